package block

import (
	"github.com/annel0/voxel-world/internal/vec"
)

// BlockAPI определяет доступ правил блоков к миру (только чтение).
// Изменения применяет сам мир через конвейер установки блоков.
type BlockAPI interface {
	// GetBlockID возвращает тип блока в позиции
	GetBlockID(pos vec.Position) BlockID

	// IsValidBlockLocation проверяет, лежит ли позиция внутри мира
	IsValidBlockLocation(pos vec.Position) bool

	// GetHeightMapLevel возвращает высоту самого верхнего непрозрачного блока столбца
	GetHeightMapLevel(x, z int) int

	// HasAdjacentBlockReceivingDirectSunlight проверяет, получает ли прямой
	// солнечный свет блок над позицией или один из его боковых соседей
	HasAdjacentBlockReceivingDirectSunlight(pos vec.Position) bool

	// WorldType возвращает тип мира
	WorldType() WorldType
}
