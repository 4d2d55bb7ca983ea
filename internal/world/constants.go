package world

import "github.com/annel0/voxel-world/internal/vec"

// Размеры чанка
const (
	ChunkSize   = vec.ChunkSize // по X и Z
	ChunkHeight = 96
	// BlocksPerChunk число ячеек в чанке
	BlocksPerChunk = ChunkSize * ChunkHeight * ChunkSize
)

// Свет
const (
	MaxLightStrength          = 15
	BrightestSkylightStrength = 15
	// LightBoxPadding радиус, на который расширяется область пересчёта света
	LightBoxPadding = MaxLightStrength
)

// Вероятности применения изменений в тике роста
const (
	growthChance       = 0.18
	iceGrowthChance    = 0.05
	singleChangeChance = 0.5
)
