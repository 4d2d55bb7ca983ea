package entity

import (
	"fmt"

	"github.com/annel0/voxel-world/internal/vec"
)

// ClutterType вид декоративного объекта
type ClutterType uint8

const (
	ClutterGrassTuft ClutterType = iota
	ClutterFlower
	ClutterMushroom
	ClutterRock
	ClutterBush
)

// IsValid проверяет, известен ли вид
func (t ClutterType) IsValid() bool {
	return t <= ClutterBush
}

// String возвращает имя вида
func (t ClutterType) String() string {
	switch t {
	case ClutterGrassTuft:
		return "grass_tuft"
	case ClutterFlower:
		return "flower"
	case ClutterMushroom:
		return "mushroom"
	case ClutterRock:
		return "rock"
	case ClutterBush:
		return "bush"
	}
	return fmt.Sprintf("ClutterType(%d)", uint8(t))
}

// Clutter декоративный объект, лежащий на верхней грани блока под ним
type Clutter struct {
	ID       ID
	Position vec.Coords
	Type     ClutterType
}

// NewClutter создаёт декоративный объект в центре ячейки
func NewClutter(id ID, pos vec.Position, clutterType ClutterType) *Clutter {
	coords := pos.ToCoords()
	coords.X += 0.5
	coords.Z += 0.5
	return &Clutter{ID: id, Position: coords, Type: clutterType}
}

func (c *Clutter) EntityID() ID { return c.ID }

func (c *Clutter) Coords() vec.Coords { return c.Position }

func (c *Clutter) BlockPosition() vec.Position { return c.Position.ToPosition() }

func (c *Clutter) Appearance() Appearance {
	return Appearance{Model: "clutter:" + c.Type.String()}
}
