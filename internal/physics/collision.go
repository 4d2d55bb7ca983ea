package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/voxel-world/internal/vec"
)

// Gravity ускорение свободного падения, блоков/с²
const Gravity float32 = 9.8

// TerminalVelocity максимальная скорость падения, блоков/с
const TerminalVelocity float32 = 30

// BoxCollider представляет простой коллайдер-параллелепипед с центром
// в основании (позиция сущности в середине нижней грани)
type BoxCollider struct {
	Width  float32 // Ширина по X и Z в блоках
	Height float32 // Высота в блоках
}

// NewBoxCollider создаёт новый коллайдер с указанными размерами
func NewBoxCollider(width, height float32) *BoxCollider {
	return &BoxCollider{
		Width:  width,
		Height: height,
	}
}

// IsPointInside проверяет, находится ли точка внутри коллайдера
func (bc *BoxCollider) IsPointInside(colliderPos, point mgl32.Vec3) bool {
	half := bc.Width / 2
	return point.X() >= colliderPos.X()-half &&
		point.X() < colliderPos.X()+half &&
		point.Y() >= colliderPos.Y() &&
		point.Y() < colliderPos.Y()+bc.Height &&
		point.Z() >= colliderPos.Z()-half &&
		point.Z() < colliderPos.Z()+half
}

// CheckBoxCollision проверяет пересечение двух коллайдеров
func CheckBoxCollision(pos1 mgl32.Vec3, collider1 *BoxCollider, pos2 mgl32.Vec3, collider2 *BoxCollider) bool {
	half1 := collider1.Width / 2
	half2 := collider2.Width / 2

	return pos1.X()+half1 > pos2.X()-half2 &&
		pos1.X()-half1 < pos2.X()+half2 &&
		pos1.Z()+half1 > pos2.Z()-half2 &&
		pos1.Z()-half1 < pos2.Z()+half2 &&
		pos1.Y()+collider1.Height > pos2.Y() &&
		pos1.Y() < pos2.Y()+collider2.Height
}

// GetFootprint возвращает блоки, на которые опирается коллайдер
// (для коллайдера не шире блока это один блок под центром)
func GetFootprint(pos mgl32.Vec3, collider *BoxCollider) []vec.Position {
	y := int(math.Floor(float64(pos.Y()))) - 1
	if collider.Width <= 1 {
		p := vec.Coords{X: pos.X(), Y: pos.Y(), Z: pos.Z()}.ToPosition()
		p.Y = y
		return []vec.Position{p}
	}

	half := collider.Width / 2
	corners := [4][2]float32{
		{pos.X() - half, pos.Z() - half},
		{pos.X() + half - 0.001, pos.Z() - half},
		{pos.X() - half, pos.Z() + half - 0.001},
		{pos.X() + half - 0.001, pos.Z() + half - 0.001},
	}
	points := make([]vec.Position, 0, len(corners))
	for _, c := range corners {
		p := vec.Coords{X: c[0], Z: c[1]}.ToPosition()
		p.Y = y
		points = append(points, p)
	}
	return points
}

// IsSupported проверяет, стоит ли коллайдер на твёрдом блоке.
// isSolid функция, которая проверяет, является ли блок в позиции твёрдым.
func IsSupported(pos mgl32.Vec3, collider *BoxCollider, isSolid func(vec.Position) bool) bool {
	// Опора только если основание лежит ровно на грани блока
	if pos.Y()-float32(math.Floor(float64(pos.Y()))) > 0.001 {
		return false
	}
	for _, p := range GetFootprint(pos, collider) {
		if isSolid(p) {
			return true
		}
	}
	return false
}

// Fall выполняет один шаг падения под действием гравитации. Возвращает новую
// позицию, новую скорость и true, если коллайдер приземлился.
func Fall(pos, velocity mgl32.Vec3, dt float32, collider *BoxCollider, isSolid func(vec.Position) bool) (mgl32.Vec3, mgl32.Vec3, bool) {
	vy := velocity.Y() - Gravity*dt
	if vy < -TerminalVelocity {
		vy = -TerminalVelocity
	}
	velocity = mgl32.Vec3{velocity.X(), vy, velocity.Z()}
	next := pos.Add(velocity.Mul(dt))

	// Проверяем каждую горизонталь блоков, которую пересекает основание за шаг
	startY := int(math.Floor(float64(pos.Y())))
	endY := int(math.Floor(float64(next.Y())))
	for y := startY; y > endY; y-- {
		probe := mgl32.Vec3{next.X(), float32(y), next.Z()}
		for _, p := range GetFootprint(probe, collider) {
			if isSolid(p) {
				return probe, mgl32.Vec3{}, true
			}
		}
	}
	return next, velocity, false
}
