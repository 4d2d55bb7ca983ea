package entity

import (
	"fmt"

	"github.com/annel0/voxel-world/internal/vec"
)

// LightSourceType вид источника света
type LightSourceType uint8

const (
	LightSourceTorch LightSourceType = iota
	LightSourceLantern
	LightSourceCrystal
)

var lightStrengths = map[LightSourceType]byte{
	LightSourceTorch:   14,
	LightSourceLantern: 15,
	LightSourceCrystal: 10,
}

// IsValid проверяет, известен ли вид источника
func (t LightSourceType) IsValid() bool {
	_, ok := lightStrengths[t]
	return ok
}

// String возвращает имя вида источника
func (t LightSourceType) String() string {
	switch t {
	case LightSourceTorch:
		return "torch"
	case LightSourceLantern:
		return "lantern"
	case LightSourceCrystal:
		return "crystal"
	}
	return fmt.Sprintf("LightSourceType(%d)", uint8(t))
}

// LightSource статический источник света, прикреплённый к грани соседнего блока
type LightSource struct {
	ID             ID
	Position       vec.Coords
	Type           LightSourceType
	AttachedToFace vec.Face // грань своей ячейки, которой источник прикреплён к опоре
}

// NewLightSource создаёт источник света в центре ячейки
func NewLightSource(id ID, pos vec.Position, lightType LightSourceType, attachedTo vec.Face) *LightSource {
	coords := pos.ToCoords()
	coords.X += 0.5
	coords.Z += 0.5
	return &LightSource{ID: id, Position: coords, Type: lightType, AttachedToFace: attachedTo}
}

// EntityID возвращает идентификатор
func (l *LightSource) EntityID() ID { return l.ID }

// Coords возвращает координаты
func (l *LightSource) Coords() vec.Coords { return l.Position }

// BlockPosition возвращает ячейку, в которой находится источник
func (l *LightSource) BlockPosition() vec.Position { return l.Position.ToPosition() }

// Strength возвращает силу света источника
func (l *LightSource) Strength() byte { return lightStrengths[l.Type] }

// Appearance возвращает модель источника
func (l *LightSource) Appearance() Appearance {
	return Appearance{Model: "light:" + l.Type.String(), Variant: uint8(l.AttachedToFace)}
}
