package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-world/internal/config"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/annel0/voxel-world/internal/world/entity"
)

const frame = 1.0 / 60

// fastTicksConfig мир, в котором вода и рост срабатывают каждый тик
func fastTicksConfig(sx, sz int) config.WorldConfig {
	cfg := testConfig(sx, sz)
	cfg.WaterIntervalSeconds = 0.001
	cfg.GrassIntervalSeconds = 0.001
	return cfg
}

func TestWaterFlowsIntoNeighbourChunk(t *testing.T) {
	w := newTestWorld(t, fastTicksConfig(2, 2))
	fillFlat(w, 20, block.StoneBlockID)
	w.RebuildAllLightMaps()

	w.PlaceBlock(pos(31, 21, 5), block.WaterBlockID, false)
	w.WaitLighting()
	require.True(t, w.Chunks().At(1, 0).WaterExpanding(), "соседний чанк должен получить тик воды")

	w.Update(frame)
	w.WaitLighting()

	for _, p := range []vec.Position{pos(32, 21, 5), pos(30, 21, 5), pos(31, 21, 6), pos(31, 21, 4)} {
		assert.Equal(t, block.WaterBlockID, w.GetBlockID(p), "вода в %v", p)
	}
	assert.Equal(t, block.AirBlockID, w.GetBlockID(pos(31, 22, 5)))
	requireLightMatchesRebuild(t, w)
}

func TestWaterFallsDown(t *testing.T) {
	w := newTestWorld(t, fastTicksConfig(1, 1))
	fillFlat(w, 10, block.StoneBlockID)

	w.PlaceBlock(pos(5, 14, 5), block.WaterBlockID, true)
	w.Update(frame)

	assert.Equal(t, block.WaterBlockID, w.GetBlockID(pos(5, 13, 5)))
	assert.Equal(t, block.AirBlockID, w.GetBlockID(pos(6, 14, 5)), "падающая вода не растекается")
	w.WaitLighting()
}

func TestWaterExpansionStopsWithoutTargets(t *testing.T) {
	w := newTestWorld(t, fastTicksConfig(1, 1))
	fillFlat(w, 10, block.StoneBlockID)
	c := w.Chunks().At(0, 0)
	c.SetWaterExpanding(true)

	w.Update(frame)
	assert.False(t, c.WaterExpanding())
}

func TestGrassWithoutSupportTurnsToDirt(t *testing.T) {
	w := newTestWorld(t, fastTicksConfig(1, 1), WithRandSeed(3))
	fillFlat(w, 20, block.GrassBlockID)
	w.RebuildAllLightMaps()
	c := w.Chunks().At(0, 0)

	w.PlaceBlock(pos(10, 19, 10), block.AirBlockID, false)
	w.WaitLighting()
	require.True(t, c.GrassGrowing())

	for i := 0; i < 200 && w.GetBlockID(pos(10, 20, 10)) != block.DirtBlockID; i++ {
		w.Update(frame)
	}
	w.WaitLighting()

	assert.Equal(t, block.DirtBlockID, w.GetBlockID(pos(10, 20, 10)))
	assert.Equal(t, block.GrassBlockID, w.GetBlockID(pos(11, 20, 10)))

	w.Update(frame)
	assert.False(t, c.GrassGrowing(), "больше нечему расти")
}

func TestDirtGrowsGrassInSunlight(t *testing.T) {
	w := newTestWorld(t, fastTicksConfig(1, 1), WithRandSeed(5))
	fillFlat(w, 20, block.StoneBlockID)
	w.PlaceBlock(pos(10, 20, 10), block.DirtBlockID, true)
	c := w.Chunks().At(0, 0)
	require.True(t, c.GrassGrowing())

	for i := 0; i < 200 && c.GrassGrowing(); i++ {
		w.Update(frame)
	}
	w.WaitLighting()

	assert.Equal(t, block.GrassBlockID, w.GetBlockID(pos(10, 20, 10)))
}

func TestWinterWaterFreezes(t *testing.T) {
	cfg := fastTicksConfig(1, 1)
	cfg.Type = "winter"
	w := newTestWorld(t, cfg, WithRandSeed(11))
	fillFlat(w, 20, block.StoneBlockID)
	w.PlaceBlock(pos(5, 21, 5), block.WaterBlockID, true)
	c := w.Chunks().At(0, 0)
	c.SetWaterExpanding(false)
	c.SetGrassGrowing(true)

	for i := 0; i < 200 && w.GetBlockID(pos(5, 21, 5)) != block.IceBlockID; i++ {
		w.Update(frame)
	}
	w.WaitLighting()

	assert.Equal(t, block.IceBlockID, w.GetBlockID(pos(5, 21, 5)))
}

func TestDynamicItemsFallAndDecay(t *testing.T) {
	w := newTestWorld(t, testConfig(1, 1))
	fillFlat(w, 10, block.StoneBlockID)
	c := w.Chunks().At(0, 0)

	resting := entity.NewBlockItem(w.NextGameObjectID(), vec.NewCoords(5.5, 11, 5.5), block.CobbleBlockID)
	require.True(t, w.AddDynamicItem(resting))
	w.Update(frame)
	require.False(t, resting.IsMoving(), "предмет лёг на камень")

	w.PlaceBlock(pos(5, 10, 5), block.AirBlockID, true)
	assert.True(t, resting.IsMoving(), "опору убрали")

	falling := entity.NewBlockItem(w.NextGameObjectID(), vec.NewCoords(20.5, 60, 20.5), block.SandBlockID)
	require.True(t, w.AddDynamicItem(falling))
	assert.False(t, w.AddDynamicItem(entity.NewBlockItem(w.NextGameObjectID(), vec.NewCoords(-3, 60, 5), block.SandBlockID)))

	w.Update(frame)
	assert.Len(t, c.DynamicItems(), 2)

	landed := entity.NewBlockItem(w.NextGameObjectID(), vec.NewCoords(25.5, 11, 25.5), block.SandBlockID)
	require.True(t, w.AddDynamicItem(landed))
	w.Update(frame)
	require.False(t, landed.IsMoving())
	w.Update(entity.BlockItemDecaySeconds + 1)

	for _, item := range c.DynamicItems() {
		assert.NotEqual(t, landed.ID, item.ID, "пролежавший предмет исчезает")
	}
}

func TestDynamicItemBelowWorldIsRemoved(t *testing.T) {
	w := newTestWorld(t, testConfig(1, 1))
	item := entity.NewBlockItem(w.NextGameObjectID(), vec.NewCoords(5.5, 0.5, 5.5), block.SandBlockID)
	require.True(t, w.AddDynamicItem(item))

	w.Update(1)
	assert.Empty(t, w.Chunks().At(0, 0).DynamicItems())
}

func TestMobsStayInOwningChunk(t *testing.T) {
	w := newTestWorld(t, testConfig(2, 1))
	fillFlat(w, 10, block.StoneBlockID)
	left, right := w.Chunks().At(0, 0), w.Chunks().At(1, 0)

	cow := entity.NewMob(w.NextGameObjectID(), entity.MobTypeCow, vec.NewCoords(31.5, 11, 5.5), 10)
	cow.SetVelocity(mgl32.Vec3{60, 0, 0})
	require.True(t, w.AddMob(cow))

	dead := entity.NewMob(w.NextGameObjectID(), entity.MobTypeSheep, vec.NewCoords(10.5, 11, 10.5), 1)
	require.True(t, w.AddMob(dead))
	dead.Damage(5)

	w.Update(frame)

	assert.Empty(t, right.Mobs())
	require.Len(t, left.Mobs(), 1, "погибший моб удалён, живой остался в своём чанке")
	assert.Equal(t, cow.ID, left.Mobs()[0].ID)
	assert.Greater(t, cow.Coords().X, float32(32))

	cow.SetVelocity(mgl32.Vec3{-3000, 0, 0})
	w.Update(frame)
	assert.Empty(t, left.Mobs(), "моб за краем мира удалён")
}

func TestDynamicItemCrossingChunkUpdatedOncePerTick(t *testing.T) {
	w := newTestWorld(t, testConfig(3, 1))
	left, middle := w.Chunks().At(0, 0), w.Chunks().At(1, 0)

	arrow := entity.NewProjectile(w.NextGameObjectID(), vec.NewCoords(31.5, 60, 5.5), mgl32.Vec3{60, 0, 0})
	require.True(t, w.AddDynamicItem(arrow))

	w.Update(frame)

	assert.Empty(t, left.DynamicItems())
	require.Len(t, middle.DynamicItems(), 1)
	assert.InDelta(t, 32.5, arrow.Coords().X, 0.001, "один шаг за тик")
}
