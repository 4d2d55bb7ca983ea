package entity

import (
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

// ID уникальный идентификатор игрового объекта в пределах мира
type ID uint64

// Appearance описывает, чем объект отображается (модель и вариант)
type Appearance struct {
	Model   string
	Variant uint8
}

// Positioned объект с положением в мире
type Positioned interface {
	EntityID() ID
	Coords() vec.Coords
}

// Updatable объект, который обновляется каждый тик.
// Update возвращает false, когда объект должен быть удалён из мира.
type Updatable interface {
	Update(frameTime float64, env BlockSource) bool
}

// Renderable объект, который видит отрисовка
type Renderable interface {
	Appearance() Appearance
}

// BlockSource доступ объектов к блокам мира (только чтение)
type BlockSource interface {
	GetBlockID(pos vec.Position) block.BlockID
	IsValidBlockLocation(pos vec.Position) bool
}

// isSolidIn возвращает функцию проверки твёрдого блока для физики.
// За пределами мира опоры нет.
func isSolidIn(env BlockSource) func(vec.Position) bool {
	return func(p vec.Position) bool {
		if !env.IsValidBlockLocation(p) {
			return false
		}
		return block.IsSolid(env.GetBlockID(p))
	}
}
