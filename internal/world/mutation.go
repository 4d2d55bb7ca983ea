package world

import (
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/annel0/voxel-world/internal/world/entity"
)

// PlaceBlock записывает блок в мир и выполняет все последствия: карту высот,
// превращение травы под блоком в землю, флаги воды и роста, удаление
// предметов, свет и звук. В пакетном режиме (isBatch) свет и звук
// выполняет вызывающий. Позиции вне мира и дно мира (Y <= 0) игнорируются.
func (w *World) PlaceBlock(pos vec.Position, id block.BlockID, isBatch bool) {
	if !w.IsValidBlockLocation(pos) || pos.Y <= 0 {
		return
	}

	// вода сверху сразу заполняет освободившуюся ячейку
	if id == block.AirBlockID && w.GetBlockID(pos.Adjacent(vec.FaceTop)) == block.WaterBlockID {
		id = block.WaterBlockID
	}

	c := w.chunks.ByPosition(pos)
	lx, ly, lz := pos.Local()
	placed := block.NewBlock(id)
	placed.Dirty = true

	c.mu.Lock()
	old := c.blocks.Get(lx, ly, lz)
	c.setBlockLocked(lx, ly, lz, placed)
	c.updateHeightMapLocked(placed, lx, ly, lz)
	c.mu.Unlock()
	blocksPlaced.WithLabelValues(id.String()).Inc()

	if !placed.IsTransparent() || id == block.WaterBlockID {
		below := pos.Adjacent(vec.FaceBottom)
		if below.Y > 0 {
			if b := w.GetBlockID(below); b == block.GrassBlockID || b == block.SnowBlockID {
				w.PlaceBlock(below, block.DirtBlockID, true)
			}
		}
	}

	w.markExpansion(c, pos, old, placed)
	lightRemoved := w.clearItemsAt(c, pos, id)
	w.publishBlockChanged(pos, old.ID, id)

	if isBatch {
		return
	}
	if lightRemoved {
		w.log.Debug("💡 источник света у %v удалён вместе с блоком", pos)
	}
	w.ModifyLightAndQueue(pos, pos)
	if s, ok := placementSound(old.ID, id); ok {
		w.playSound(s, pos)
	}
}

// PlaceCuboid заполняет прямоугольную область блоками и пересчитывает свет
// один раз на всю область
func (w *World) PlaceCuboid(p1, p2 vec.Position, id block.BlockID, isBatch bool) {
	lo, hi := vec.Min(p1, p2), vec.Max(p1, p2)
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for z := lo.Z; z <= hi.Z; z++ {
				w.PlaceBlock(vec.Position{X: x, Y: y, Z: z}, id, true)
			}
		}
	}
	if isBatch {
		return
	}
	w.ModifyLightAndQueue(lo, hi)
}

// ModifyLightAndQueue запускает фоновый пересчёт света вокруг p1..p2.
// По его завершении в очередь ставятся чанки изменённых ячеек, чанки,
// граничащие с ними, и чанки, свет которых изменился.
func (w *World) ModifyLightAndQueue(p1, p2 vec.Position) {
	w.updateLightBoxAsync(p1, p2, w.chunksOfBox(p1, p2))
}

// chunksOfBox возвращает чанки, которые пересекает область, и соседние
// чанки, с которыми её ячейки делят границу
func (w *World) chunksOfBox(p1, p2 vec.Position) []*Chunk {
	lo, hi := vec.Min(p1, p2), vec.Max(p1, p2)
	lo.X, lo.Z = max(lo.X, 0), max(lo.Z, 0)
	hi.X, hi.Z = min(hi.X, w.sizeX-1), min(hi.Z, w.sizeZ-1)

	var out []*Chunk
	for cx := lo.X / ChunkSize; cx <= hi.X/ChunkSize; cx++ {
		for cz := lo.Z / ChunkSize; cz <= hi.Z/ChunkSize; cz++ {
			out = append(out, w.chunks.At(cx, cz))
		}
	}
	// Соседи через границу возможны только у столбцов по краю области
	for x := lo.X; x <= hi.X; x++ {
		out = append(out, w.chunks.BorderChunks(vec.Position{X: x, Z: lo.Z})...)
		out = append(out, w.chunks.BorderChunks(vec.Position{X: x, Z: hi.Z})...)
	}
	for z := lo.Z; z <= hi.Z; z++ {
		out = append(out, w.chunks.BorderChunks(vec.Position{X: lo.X, Z: z})...)
		out = append(out, w.chunks.BorderChunks(vec.Position{X: hi.X, Z: z})...)
	}
	return mergeChunks(out)
}

// QueueAffectedChunks ставит чанки в очередь изменённых
func (w *World) QueueAffectedChunks(chunks []*Chunk) {
	for _, c := range chunks {
		c.QueueImmediate()
	}
}

// markExpansion включает тики растекания воды и роста травы у чанков,
// которых касается изменение
func (w *World) markExpansion(c *Chunk, pos vec.Position, old, placed block.Block) {
	switch placed.ID {
	case block.WaterBlockID:
		c.SetWaterExpanding(true)
		for _, f := range [...]vec.Face{vec.FaceRight, vec.FaceLeft, vec.FaceFront, vec.FaceBack, vec.FaceBottom} {
			n := pos.Adjacent(f)
			if w.IsValidBlockLocation(n) && w.GetBlockID(n) == block.AirBlockID {
				w.chunks.ByPosition(n).SetWaterExpanding(true)
			}
		}
	case block.AirBlockID:
		for _, f := range [...]vec.Face{vec.FaceRight, vec.FaceLeft, vec.FaceFront, vec.FaceBack, vec.FaceTop} {
			n := pos.Adjacent(f)
			if w.IsValidBlockLocation(n) && w.GetBlockID(n) == block.WaterBlockID {
				w.chunks.ByPosition(n).SetWaterExpanding(true)
			}
		}
	}

	if !placed.IsTransparent() || old.IsTransparent() != placed.IsTransparent() {
		c.SetGrassGrowing(true)
		for _, bc := range w.chunks.BorderChunks(pos) {
			bc.SetGrassGrowing(true)
		}
	}
}

// clearItemsAt удаляет предметы, которые не могут остаться после установки
// блока. Возвращает true, если был удалён источник света.
func (w *World) clearItemsAt(c *Chunk, pos vec.Position, id block.BlockID) bool {
	if id != block.AirBlockID {
		c.removeClutterAt(pos)
		return c.removeLightSourcesAt(pos, nil)
	}

	above := pos.Adjacent(vec.FaceTop)
	if w.IsValidBlockLocation(above) {
		c.removeClutterAt(above)
		for _, item := range c.DynamicItems() {
			if !item.IsMoving() && item.Coords().ToPosition() == above {
				item.StartFalling()
			}
		}
	}

	removed := false
	for _, f := range vec.AllFaces {
		n := pos.Adjacent(f)
		if !w.IsValidBlockLocation(n) || w.GetBlockID(n) != block.AirBlockID {
			continue
		}
		attached := f.Opposite()
		if w.chunks.ByPosition(n).removeLightSourcesAt(n, func(ls *entity.LightSource) bool {
			return ls.AttachedToFace == attached
		}) {
			removed = true
		}
	}
	return removed
}

// placementSound выбирает звук установки блока id на место блока old.
// Замена одного твёрдого блока другим звука не даёт.
func placementSound(old, id block.BlockID) (Sound, bool) {
	switch {
	case id == block.AirBlockID && old == block.WaterBlockID:
		return SoundJumpOutOfWater, true
	case id == block.AirBlockID:
		return SoundRemoveBlock, true
	case id == block.WaterBlockID:
		return SoundJumpOutOfWater, true
	case old == block.AirBlockID:
		return SoundAddBlock, true
	default:
		return 0, false
	}
}
