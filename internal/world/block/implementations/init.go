package implementations

import "github.com/annel0/voxel-world/internal/world/block"

// Регистрируем все правила блоков при импорте пакета
func init() {
	block.Register(&GrassBehavior{})
	block.Register(&SnowBehavior{})
	block.Register(&DirtBehavior{})
	block.Register(&WaterBehavior{})
}
