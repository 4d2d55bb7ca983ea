package world

import (
	"github.com/annel0/voxel-world/internal/world/block"
)

// BlockGrid плотный массив блоков одного чанка. Координаты локальные:
// x, z в 0..31, y в 0..95. Порядок ячеек совпадает с порядком слов в сетевом
// формате: (x*ChunkHeight + y)*ChunkSize + z.
type BlockGrid struct {
	cells [BlocksPerChunk]block.Block
}

func gridIndex(x, y, z int) int {
	return (x*ChunkHeight+y)*ChunkSize + z
}

// InBounds проверяет локальные координаты
func InBounds(x, y, z int) bool {
	return x >= 0 && x < ChunkSize && y >= 0 && y < ChunkHeight && z >= 0 && z < ChunkSize
}

// Get возвращает блок по локальным координатам
func (g *BlockGrid) Get(x, y, z int) block.Block {
	return g.cells[gridIndex(x, y, z)]
}

// Set записывает блок по локальным координатам
func (g *BlockGrid) Set(x, y, z int, b block.Block) {
	g.cells[gridIndex(x, y, z)] = b
}

// Words упаковывает сетку в слова сетевого формата
func (g *BlockGrid) Words(dst []uint16) []uint16 {
	if cap(dst) < BlocksPerChunk {
		dst = make([]uint16, BlocksPerChunk)
	}
	dst = dst[:BlocksPerChunk]
	for i, b := range g.cells {
		dst[i] = b.Word()
	}
	return dst
}

// SetWords заполняет сетку из слов сетевого формата
func (g *BlockGrid) SetWords(words []uint16) {
	for i := range g.cells {
		g.cells[i] = block.FromWord(words[i])
	}
}
