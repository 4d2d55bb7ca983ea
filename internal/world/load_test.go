package world

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-world/internal/protocol"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/annel0/voxel-world/internal/world/entity"
)

func TestGenerateBuildsTerrainAndLight(t *testing.T) {
	w, err := Generate(context.Background(), testConfig(2, 2))
	require.NoError(t, err)

	for _, c := range w.Chunks().All() {
		requireExactHeightMap(t, c)
	}
	for x := 0; x < w.SizeX(); x += 7 {
		for z := 0; z < w.SizeZ(); z += 7 {
			h := w.GetHeightMapLevel(x, z)
			require.Greater(t, h, 0)
			assert.Equal(t, block.StoneBlockID, w.GetBlockID(pos(x, 0, z)))
			assert.EqualValues(t, BrightestSkylightStrength, w.SkyLight(pos(x, ChunkHeight-1, z)))
			if w.GetBlockID(pos(x, h+1, z)) == block.AirBlockID {
				assert.EqualValues(t, BrightestSkylightStrength, w.SkyLight(pos(x, h+1, z)))
			}
		}
	}
	for _, c := range w.Chunks().All() {
		assert.Empty(t, c.DirtyBlocks(), "сгенерированные блоки не помечены изменёнными")
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a, _, err := GenerateTerrain(testConfig(1, 1))
	require.NoError(t, err)
	b, _, err := GenerateTerrain(testConfig(1, 1))
	require.NoError(t, err)
	assert.Equal(t, a.Chunks().At(0, 0).Words(), b.Chunks().At(0, 0).Words())

	cfg := testConfig(1, 1)
	cfg.Seed = 8
	other, _, err := GenerateTerrain(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.Chunks().At(0, 0).Words(), other.Chunks().At(0, 0).Words())
}

func TestPayloadRoundTrip(t *testing.T) {
	w, err := Generate(context.Background(), testConfig(2, 1))
	require.NoError(t, err)

	w.PlaceBlock(pos(40, 80, 12), block.BricksBlockID, true)
	ls, err := w.AddLightSource(pos(40, 81, 12), entity.LightSourceLantern, vec.FaceBottom)
	require.NoError(t, err)
	w.WaitLighting()
	w.SetSunStrength(9)

	var buf bytes.Buffer
	require.NoError(t, w.EncodePayload(&buf))

	cfg := testConfig(1, 1)
	loaded, err := LoadPayload(context.Background(), &buf, cfg)
	require.NoError(t, err)

	assert.Equal(t, 2, loaded.SizeInChunksX())
	assert.Equal(t, w.Seed(), loaded.Seed())
	assert.Equal(t, w.GameObjectIDSeq(), loaded.GameObjectIDSeq())
	assert.EqualValues(t, 9, loaded.SunStrength())
	for i, c := range w.Chunks().All() {
		assert.Equal(t, c.Words(), loaded.Chunks().All()[i].Words())
	}

	b := loaded.GetBlock(40, 80, 12)
	assert.Equal(t, block.BricksBlockID, b.ID)
	assert.True(t, b.Dirty)

	got, ok := loaded.Chunks().At(1, 0).LightSourceAt(ls.BlockPosition())
	require.True(t, ok)
	assert.Equal(t, ls.ID, got.ID)
	assert.Equal(t, vec.FaceBottom, got.AttachedToFace)
	assert.EqualValues(t, 15, loaded.ItemLight(ls.BlockPosition()))
}

func TestLoadPayloadTruncated(t *testing.T) {
	w := newTestWorld(t, testConfig(1, 1))
	var buf bytes.Buffer
	require.NoError(t, w.EncodePayload(&buf))

	cut := bytes.NewReader(buf.Bytes()[:buf.Len()/2])
	_, err := LoadPayload(context.Background(), cut, testConfig(1, 1))
	assert.ErrorIs(t, err, protocol.ErrIncompleteWorld)
}

func TestApplySettings(t *testing.T) {
	w := newTestWorld(t, testConfig(1, 1))
	fillFlat(w, 10, block.StoneBlockID)

	s := w.Settings()
	s.GameObjectIDSeq = 50
	s.StaticItems = []protocol.StaticItem{
		{ID: 7, Type: protocol.ItemTypeClutter, SubType: uint8(entity.ClutterGrassTuft), X: 3.5, Y: 11, Z: 3.5},
	}
	s.ChunkFlags = []protocol.ChunkFlags{{X: 0, Z: 0, GrassGrowing: true}}
	require.NoError(t, w.ApplySettings(s))

	c := w.Chunks().At(0, 0)
	assert.EqualValues(t, 50, w.GameObjectIDSeq())
	assert.True(t, c.GrassGrowing())
	assert.False(t, c.WaterExpanding())
	cl, ok := c.ClutterAt(pos(3, 11, 3))
	require.True(t, ok)
	assert.EqualValues(t, 7, cl.ID)

	s.StaticItems = append(s.StaticItems, protocol.StaticItem{ID: 8, Type: 5})
	assert.ErrorIs(t, w.ApplySettings(s), protocol.ErrUnknownItemType)

	s.StaticItems = nil
	s.ChunkFlags = []protocol.ChunkFlags{{X: 4, Z: 0}}
	assert.Error(t, w.ApplySettings(s))

	s.ChunkFlags = nil
	s.SizeInChunksX = 3
	assert.Error(t, w.ApplySettings(s))
}

func TestApplyDirtyBlocks(t *testing.T) {
	w := newTestWorld(t, testConfig(1, 1))
	fillFlat(w, 10, block.StoneBlockID)
	c := w.Chunks().At(0, 0)

	bricks := block.NewBlock(block.BricksBlockID)
	bricks.Dirty = true
	c.ApplyDirtyBlocks(map[vec.Position]uint16{
		pos(4, 30, 4):  bricks.Word(),
		pos(4, 200, 4): bricks.Word(),
	})

	assert.Equal(t, block.BricksBlockID, w.GetBlockID(pos(4, 30, 4)))
	assert.Equal(t, 30, w.GetHeightMapLevel(4, 4))
	assert.Len(t, c.DirtyBlocks(), 1)
	requireExactHeightMap(t, c)
}
