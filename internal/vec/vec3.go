package vec

// Position представляет целочисленные координаты блока в мире
type Position struct {
	X int
	Y int
	Z int
}

// NewPosition создаёт позицию блока
func NewPosition(x, y, z int) Position {
	return Position{X: x, Y: y, Z: z}
}

// ChunkCoords возвращает координаты чанка, которому принадлежит блок
func (p Position) ChunkCoords() Vec2 {
	return Vec2{X: p.X, Z: p.Z}.ToChunkCoords()
}

// Local возвращает координаты блока внутри его чанка
func (p Position) Local() (x, y, z int) {
	l := Vec2{X: p.X, Z: p.Z}.LocalInChunk()
	return l.X, p.Y, l.Z
}

// ToCoords возвращает минимальный угол ячейки блока
func (p Position) ToCoords() Coords {
	return Coords{X: float32(p.X), Y: float32(p.Y), Z: float32(p.Z)}
}

// Add складывает две позиции
func (p Position) Add(other Position) Position {
	return Position{
		X: p.X + other.X,
		Y: p.Y + other.Y,
		Z: p.Z + other.Z,
	}
}

// Adjacent возвращает соседнюю позицию со стороны грани
func (p Position) Adjacent(face Face) Position {
	return p.Add(face.Offset())
}

// DistanceSquared возвращает квадрат расстояния до другой позиции
func (p Position) DistanceSquared(other Position) int {
	dx := p.X - other.X
	dy := p.Y - other.Y
	dz := p.Z - other.Z
	return dx*dx + dy*dy + dz*dz
}

// Min возвращает покомпонентный минимум двух позиций
func Min(a, b Position) Position {
	return Position{X: min(a.X, b.X), Y: min(a.Y, b.Y), Z: min(a.Z, b.Z)}
}

// Max возвращает покомпонентный максимум двух позиций
func Max(a, b Position) Position {
	return Position{X: max(a.X, b.X), Y: max(a.Y, b.Y), Z: max(a.Z, b.Z)}
}
