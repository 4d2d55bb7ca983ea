package vec

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Coords позиция в мире с плавающей точкой и ориентация (для сущностей).
// Direction и Pitch задаются в радианах.
type Coords struct {
	X         float32
	Y         float32
	Z         float32
	Direction float32
	Pitch     float32
}

// NewCoords создаёт координаты без ориентации
func NewCoords(x, y, z float32) Coords {
	return Coords{X: x, Y: y, Z: z}
}

// ToPosition возвращает блок, в котором находится точка
func (c Coords) ToPosition() Position {
	return Position{
		X: int(math.Floor(float64(c.X))),
		Y: int(math.Floor(float64(c.Y))),
		Z: int(math.Floor(float64(c.Z))),
	}
}

// Vec3 возвращает позицию как mgl32.Vec3
func (c Coords) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{c.X, c.Y, c.Z}
}

// WithVec3 возвращает копию с новой позицией и прежней ориентацией
func (c Coords) WithVec3(v mgl32.Vec3) Coords {
	c.X, c.Y, c.Z = v.X(), v.Y(), v.Z()
	return c
}

// DirectionVector возвращает единичный вектор взгляда
func (c Coords) DirectionVector() mgl32.Vec3 {
	cosPitch := float32(math.Cos(float64(c.Pitch)))
	return mgl32.Vec3{
		float32(math.Cos(float64(c.Direction))) * cosPitch,
		float32(math.Sin(float64(c.Pitch))),
		float32(math.Sin(float64(c.Direction))) * cosPitch,
	}.Normalize()
}

// DistanceTo возвращает расстояние между точками
func (c Coords) DistanceTo(other Coords) float32 {
	return c.Vec3().Sub(other.Vec3()).Len()
}

// DistanceXZ возвращает расстояние между точками на плоскости XZ
func (c Coords) DistanceXZ(x, z float32) float32 {
	return mgl32.Vec2{c.X - x, c.Z - z}.Len()
}
