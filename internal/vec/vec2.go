package vec

import "math"

// ChunkShift log2 размера чанка по X/Z (32 блока).
const ChunkShift = 5

// ChunkSize размер чанка по X и Z в блоках.
const ChunkSize = 1 << ChunkShift

// Vec2 представляет координаты чанка на плоскости XZ
type Vec2 struct {
	X, Z int
}

// ToChunkCoords преобразует глобальные координаты блока в координаты чанка
func (v Vec2) ToChunkCoords() Vec2 {
	return Vec2{X: v.X >> ChunkShift, Z: v.Z >> ChunkShift} // Деление на 32
}

// LocalInChunk возвращает локальные координаты внутри чанка
func (v Vec2) LocalInChunk() Vec2 {
	return Vec2{X: v.X & (ChunkSize - 1), Z: v.Z & (ChunkSize - 1)} // Модуль 32
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dz := float64(v.Z - other.Z)
	return math.Sqrt(dx*dx + dz*dz)
}
