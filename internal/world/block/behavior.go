package block

import (
	"github.com/annel0/voxel-world/internal/vec"
)

// BlockBehavior определяет поведение блока в тике роста
type BlockBehavior interface {
	ID() BlockID
	Name() string
	// GrowthUpdate возвращает тип, в который блок должен превратиться,
	// и true, если превращение возможно
	GrowthUpdate(api BlockAPI, pos vec.Position) (BlockID, bool)
}

// FlowBehavior реализуется жидкостями, которые растекаются в тике воды
type FlowBehavior interface {
	// FlowTargets возвращает позиции, в которые жидкость растечётся
	FlowTargets(api BlockAPI, pos vec.Position) []vec.Position
}
