package world

import (
	"github.com/annel0/voxel-world/internal/world/block"
)

// BuildHeightMap полностью пересчитывает карту высот и границы уровней чанка
func (c *Chunk) BuildHeightMap() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buildHeightMapLocked()
}

func (c *Chunk) buildHeightMapLocked() {
	c.deepestTransparentLevel = ChunkHeight
	c.highestNonAirLevel = 0

	for x := 0; x < ChunkSize; x++ {
		for z := 0; z < ChunkSize; z++ {
			height := 0
			for y := ChunkHeight - 1; y >= 0; y-- {
				if !c.blocks.Get(x, y, z).IsTransparent() {
					height = y
					break
				}
			}
			c.heightMap[x][z] = height

			for y := 0; y < ChunkHeight; y++ {
				b := c.blocks.Get(x, y, z)
				if b.IsTransparent() && y < c.deepestTransparentLevel {
					c.deepestTransparentLevel = y
				}
				if b.ID != block.AirBlockID && y > c.highestNonAirLevel {
					c.highestNonAirLevel = y
				}
			}
		}
	}
}

// updateHeightMapLocked поддерживает карту высот после записи блока b
// в локальную ячейку (x, y, z). Вызывается под c.mu.
func (c *Chunk) updateHeightMapLocked(b block.Block, x, y, z int) {
	current := c.heightMap[x][z]

	if b.IsTransparent() {
		if y == current {
			// убрали самый верхний непрозрачный блок, ищем следующий ниже
			height := 0
			for yy := current - 1; yy > 0; yy-- {
				if !c.blocks.Get(x, yy, z).IsTransparent() {
					height = yy
					break
				}
			}
			c.heightMap[x][z] = height
		}
		if y < c.deepestTransparentLevel {
			c.deepestTransparentLevel = y
		}
	} else {
		if y > current {
			c.heightMap[x][z] = y
		}
		if y == c.deepestTransparentLevel {
			// закрыли ячейку на нижней границе прозрачности, граница могла сдвинуться
			c.buildHeightMapLocked()
			return
		}
	}

	if b.ID == block.AirBlockID {
		if y == c.highestNonAirLevel {
			c.buildHeightMapLocked()
		}
	} else if y > c.highestNonAirLevel {
		c.highestNonAirLevel = y
	}
}
