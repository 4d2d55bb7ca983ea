package implementations

import (
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

// GrassBehavior реализует поведение блока травы
type GrassBehavior struct{}

// ID возвращает идентификатор блока
func (b *GrassBehavior) ID() block.BlockID {
	return block.GrassBlockID
}

// Name возвращает имя блока
func (b *GrassBehavior) Name() string {
	return "Grass"
}

// GrowthUpdate превращает траву в землю, если её накрыли или под ней пусто
func (b *GrassBehavior) GrowthUpdate(api block.BlockAPI, pos vec.Position) (block.BlockID, bool) {
	if isSmothered(api, pos) || isUnsupported(api, pos) {
		return block.DirtBlockID, true
	}
	return block.GrassBlockID, false
}

// SnowBehavior реализует поведение снежного покрова (то же правило, что у травы)
type SnowBehavior struct{}

// ID возвращает идентификатор блока
func (b *SnowBehavior) ID() block.BlockID {
	return block.SnowBlockID
}

// Name возвращает имя блока
func (b *SnowBehavior) Name() string {
	return "Snow"
}

// GrowthUpdate превращает снег в землю, если его накрыли или под ним пусто
func (b *SnowBehavior) GrowthUpdate(api block.BlockAPI, pos vec.Position) (block.BlockID, bool) {
	if isSmothered(api, pos) || isUnsupported(api, pos) {
		return block.DirtBlockID, true
	}
	return block.SnowBlockID, false
}

// isSmothered: над блоком непрозрачный блок
func isSmothered(api block.BlockAPI, pos vec.Position) bool {
	above := pos.Adjacent(vec.FaceTop)
	return api.IsValidBlockLocation(above) && !block.IsTransparent(api.GetBlockID(above))
}

// isUnsupported: под блоком воздух
func isUnsupported(api block.BlockAPI, pos vec.Position) bool {
	below := pos.Adjacent(vec.FaceBottom)
	return api.IsValidBlockLocation(below) && api.GetBlockID(below) == block.AirBlockID
}
