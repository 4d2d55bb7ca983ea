package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/annel0/voxel-world/internal/world/entity"
)

func TestIsValidStaticItemPosition(t *testing.T) {
	w := newTestWorld(t, testConfig(1, 1))
	fillFlat(w, 10, block.StoneBlockID)

	ok, msg := w.IsValidStaticItemPosition(pos(3, 10, 3))
	assert.False(t, ok)
	assert.Equal(t, "invalid item position", msg)

	ok, msg = w.IsValidStaticItemPosition(pos(3, 11, 40))
	assert.False(t, ok)
	assert.Equal(t, "invalid item position", msg)

	ok, msg = w.IsValidStaticItemPosition(pos(3, 11, 3))
	assert.True(t, ok)
	assert.Empty(t, msg)

	_, err := w.AddClutter(pos(3, 11, 3), entity.ClutterGrassTuft)
	require.NoError(t, err)
	ok, msg = w.IsValidStaticItemPosition(pos(3, 11, 3))
	assert.False(t, ok)
	assert.Equal(t, "item already exists on selected block", msg)

	_, err = w.AddLightSource(pos(3, 11, 3), entity.LightSourceTorch, vec.FaceBottom)
	assert.ErrorIs(t, err, ErrInvalidItemPosition)
	_, err = w.AddLightSource(pos(3, 5, 3), entity.LightSourceTorch, vec.FaceBottom)
	assert.ErrorIs(t, err, ErrInvalidItemPosition)
	_, err = w.AddLightSource(pos(4, 11, 3), entity.LightSourceType(200), vec.FaceBottom)
	assert.ErrorIs(t, err, ErrInvalidItemPosition)
}

func TestAddStaticItem(t *testing.T) {
	w := newTestWorld(t, testConfig(1, 1))
	fillFlat(w, 10, block.StoneBlockID)
	w.RebuildAllLightMaps()
	c := w.Chunks().At(0, 0)

	id, err := w.AddStaticItem(StaticItemLightSource, uint8(entity.LightSourceCrystal), pos(6, 11, 6), vec.FaceBottom)
	require.NoError(t, err)
	w.WaitLighting()
	ls, ok := c.LightSourceAt(pos(6, 11, 6))
	require.True(t, ok)
	assert.Equal(t, id, ls.ID)
	assert.EqualValues(t, 10, w.ItemLight(pos(6, 11, 6)))

	id, err = w.AddStaticItem(StaticItemClutter, uint8(entity.ClutterGrassTuft), pos(8, 11, 8), vec.FaceBottom)
	require.NoError(t, err)
	cl, ok := c.ClutterAt(pos(8, 11, 8))
	require.True(t, ok)
	assert.Equal(t, id, cl.ID)

	assert.Panics(t, func() {
		_, _ = w.AddStaticItem(StaticItemKind(9), 0, pos(9, 11, 9), vec.FaceBottom)
	})

	assert.True(t, w.RemoveStaticItem(cl.ID))
	assert.False(t, w.RemoveStaticItem(cl.ID))
	_, ok = c.ClutterAt(pos(8, 11, 8))
	assert.False(t, ok)
}

func TestRemovingSupportDropsAttachedLightSource(t *testing.T) {
	w := newTestWorld(t, testConfig(1, 1))
	fillFlat(w, 20, block.StoneBlockID)
	w.RebuildAllLightMaps()
	c := w.Chunks().At(0, 0)

	onFloor, err := w.AddLightSource(pos(10, 21, 10), entity.LightSourceTorch, vec.FaceBottom)
	require.NoError(t, err)
	onWall, err := w.AddLightSource(pos(28, 21, 10), entity.LightSourceTorch, vec.FaceLeft)
	require.NoError(t, err)
	w.WaitLighting()

	w.PlaceBlock(pos(10, 20, 10), block.AirBlockID, false)
	w.WaitLighting()
	w.PlaceBlock(pos(28, 20, 10), block.AirBlockID, false)
	w.WaitLighting()

	_, ok := c.LightSourceAt(onFloor.BlockPosition())
	assert.False(t, ok, "опору факела убрали")
	_, ok = c.LightSourceAt(onWall.BlockPosition())
	assert.True(t, ok, "факел держится за другую грань")
	assert.EqualValues(t, 0, w.ItemLight(pos(10, 22, 10)))
	requireLightMatchesRebuild(t, w)

	w.PlaceBlock(onWall.BlockPosition(), block.GlassBlockID, false)
	w.WaitLighting()
	_, ok = c.LightSourceAt(onWall.BlockPosition())
	assert.False(t, ok, "блок вытесняет предмет из ячейки")
	assert.Empty(t, c.LightSources())
	requireLightMatchesRebuild(t, w)
}

func TestRemovingBlockClearsClutterAbove(t *testing.T) {
	w := newTestWorld(t, testConfig(1, 1))
	fillFlat(w, 10, block.GrassBlockID)
	c := w.Chunks().At(0, 0)

	_, err := w.AddClutter(pos(20, 11, 20), entity.ClutterGrassTuft)
	require.NoError(t, err)
	_, err = w.AddClutter(pos(21, 11, 20), entity.ClutterGrassTuft)
	require.NoError(t, err)

	w.PlaceBlock(pos(20, 10, 20), block.AirBlockID, true)
	w.PlaceBlock(pos(21, 11, 20), block.StoneBlockID, true)

	assert.Empty(t, c.Clutter())
}

func TestScatterClutterOnlyOnGrass(t *testing.T) {
	w, g, err := GenerateTerrain(testConfig(1, 1))
	require.NoError(t, err)

	placed := g.ScatterClutter(w)
	clutter := w.Chunks().At(0, 0).Clutter()
	assert.Len(t, clutter, placed)
	for _, cl := range clutter {
		p := cl.BlockPosition()
		assert.Equal(t, block.AirBlockID, w.GetBlockID(p))
		assert.Equal(t, block.GrassBlockID, w.GetBlockID(p.Adjacent(vec.FaceBottom)))
	}
}
