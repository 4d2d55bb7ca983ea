package world

import (
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/annel0/voxel-world/internal/world/entity"
)

// DistanceFrom возвращает расстояние по XZ от центра чанка до точки наблюдения
func (c *Chunk) DistanceFrom(viewer vec.Coords) float64 {
	origin := c.WorldOrigin()
	cx := float32(origin.X) + ChunkSize/2
	cz := float32(origin.Z) + ChunkSize/2
	return float64(viewer.DistanceXZ(cx, cz))
}

// Update выполняет один тик симуляции чанка: загрузку и выгрузку по
// дистанции, загрузку собранной геометрии, растекание воды, рост травы,
// движение предметов и мобов. Вызывается только из потока обновления мира.
func (c *Chunk) Update(frameTime float64) {
	w := c.world
	c.updateLoadState()

	if c.BuildState() == BuildStateBuilt && c.BufferState() != BufferStateVboBuffered {
		if err := c.BufferData(); err != nil {
			w.log.Warn("⚠️ %v", err)
		}
	}

	if c.WaterExpanding() && w.updateCounter%w.waterTicks == 0 {
		c.expandWater()
	}
	if c.GrassGrowing() && (w.updateCounter+c.grassOffset)%w.grassTicks == 0 {
		c.growGrass()
	}

	c.updateDynamicItems(frameTime)
	c.updateMobs(frameTime)
}

func (c *Chunk) updateLoadState() {
	viewer, ok := c.world.Viewer()
	if !ok {
		return
	}
	d := c.DistanceFrom(viewer)
	cfg := c.world.cfg

	switch state := c.BuildState(); {
	case state != BuildStateNotLoaded && d > cfg.UnloadDistance:
		c.SetBuildState(BuildStateNotLoaded)
	case state == BuildStateNotLoaded && d <= cfg.LoadDistance:
		c.SetBuildState(BuildStateQueuedFar)
	}
}

// snapshot копирует блоки чанка и верхнюю границу не-воздушных блоков
func (c *Chunk) snapshot() (BlockGrid, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blocks, c.highestNonAirLevel
}

// expandWater продвигает воду на один шаг. Если вода никуда не течёт,
// тик растекания выключается.
func (c *Chunk) expandWater() {
	w := c.world
	behavior, ok := block.Get(block.WaterBlockID)
	if !ok {
		return
	}
	flow, ok := behavior.(block.FlowBehavior)
	if !ok {
		return
	}

	grid, high := c.snapshot()
	origin := c.WorldOrigin()
	seen := make(map[vec.Position]struct{})
	var targets []vec.Position
	for x := 0; x < ChunkSize; x++ {
		for z := 0; z < ChunkSize; z++ {
			for y := 1; y <= high; y++ {
				if grid.Get(x, y, z).ID != block.WaterBlockID {
					continue
				}
				pos := vec.Position{X: origin.X + x, Y: y, Z: origin.Z + z}
				for _, t := range flow.FlowTargets(w, pos) {
					if _, dup := seen[t]; !dup {
						seen[t] = struct{}{}
						targets = append(targets, t)
					}
				}
			}
		}
	}

	if len(targets) == 0 {
		c.SetWaterExpanding(false)
		return
	}

	lo, hi := targets[0], targets[0]
	for _, t := range targets {
		w.PlaceBlock(t, block.WaterBlockID, true)
		lo, hi = vec.Min(lo, t), vec.Max(hi, t)
	}
	w.log.Trace("💧 чанк %v: вода растеклась в %d ячеек", c.Coords, len(targets))
	w.ModifyLightAndQueue(lo, hi)
}

type growthChange struct {
	pos vec.Position
	id  block.BlockID
}

// growGrass собирает изменения от правил роста и применяет их случайно.
// Тик роста выключается, если изменений нет или применены все.
func (c *Chunk) growGrass() {
	w := c.world
	grid, high := c.snapshot()
	origin := c.WorldOrigin()

	var changes []growthChange
	for x := 0; x < ChunkSize; x++ {
		for z := 0; z < ChunkSize; z++ {
			for y := 1; y <= high; y++ {
				behavior, ok := block.Get(grid.Get(x, y, z).ID)
				if !ok {
					continue
				}
				pos := vec.Position{X: origin.X + x, Y: y, Z: origin.Z + z}
				if id, changed := behavior.GrowthUpdate(w, pos); changed {
					changes = append(changes, growthChange{pos: pos, id: id})
				}
			}
		}
	}

	if len(changes) == 0 {
		c.SetGrassGrowing(false)
		return
	}

	applied := 0
	var lo, hi vec.Position
	for _, ch := range changes {
		chance := growthChance
		switch {
		case len(changes) == 1:
			chance = singleChangeChance
		case ch.id == block.IceBlockID:
			chance = iceGrowthChance
		}
		if w.randFloat() >= chance {
			continue
		}
		w.PlaceBlock(ch.pos, ch.id, true)
		if applied == 0 {
			lo, hi = ch.pos, ch.pos
		}
		lo, hi = vec.Min(lo, ch.pos), vec.Max(hi, ch.pos)
		applied++
	}

	if applied == len(changes) {
		c.SetGrassGrowing(false)
	}
	if applied > 0 {
		w.log.Trace("🌱 чанк %v: применено %d из %d изменений роста", c.Coords, applied, len(changes))
		w.ModifyLightAndQueue(lo, hi)
	}
}

// itemMove переход предмета в другой чанк, применяемый после тика
type itemMove struct {
	from, to *Chunk
	item     *entity.DynamicItem
}

// updateDynamicItems двигает предметы. Переход в другой чанк откладывается
// до конца тика, чтобы предмет не обновился дважды.
func (c *Chunk) updateDynamicItems(frameTime float64) {
	w := c.world
	for _, item := range c.DynamicItems() {
		alive := item.Update(frameTime, w)
		target, inWorld := w.chunks.ByCoords(item.Coords())
		if !alive || !inWorld {
			c.removeDynamicItem(item.ID)
			continue
		}
		if target != c {
			w.itemMoves = append(w.itemMoves, itemMove{from: c, to: target, item: item})
		}
	}
}

// applyItemMoves переносит предметы, пересёкшие границу чанка за тик
func (w *World) applyItemMoves() {
	for _, m := range w.itemMoves {
		m.from.removeDynamicItem(m.item.ID)
		m.to.addDynamicItem(m.item)
	}
	w.itemMoves = w.itemMoves[:0]
}

// updateMobs двигает мобов. Моб остаётся в чанке, где был создан, и
// удаляется, если погиб или покинул мир.
func (c *Chunk) updateMobs(frameTime float64) {
	w := c.world
	for _, m := range c.Mobs() {
		alive := m.Update(frameTime, w)
		if _, inWorld := w.chunks.ByCoords(m.Coords()); !alive || !inWorld {
			c.removeMob(m.ID)
		}
	}
}

// Update выполняет один тик симуляции всего мира
func (w *World) Update(frameTime float64) {
	w.chunks.Update(frameTime)
}
