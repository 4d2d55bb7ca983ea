package implementations

import (
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

// DirtBehavior реализует поведение блока земли
type DirtBehavior struct{}

// ID возвращает идентификатор блока
func (b *DirtBehavior) ID() block.BlockID {
	return block.DirtBlockID
}

// Name возвращает имя блока
func (b *DirtBehavior) Name() string {
	return "Dirt"
}

// GrowthUpdate покрывает землю травой (снегом в зимнем мире), если сверху
// открытое место и рядом есть прямой солнечный свет. В пустыне ничего не растёт.
func (b *DirtBehavior) GrowthUpdate(api block.BlockAPI, pos vec.Position) (block.BlockID, bool) {
	worldType := api.WorldType()
	if worldType == block.WorldTypeDesert {
		return block.DirtBlockID, false
	}

	above := pos.Adjacent(vec.FaceTop)
	if !api.IsValidBlockLocation(above) {
		return block.DirtBlockID, false
	}
	aboveID := api.GetBlockID(above)
	if !block.IsTransparent(aboveID) || aboveID == block.WaterBlockID {
		return block.DirtBlockID, false
	}
	if isUnsupported(api, pos) {
		return block.DirtBlockID, false
	}
	if !api.HasAdjacentBlockReceivingDirectSunlight(pos) {
		return block.DirtBlockID, false
	}

	if worldType == block.WorldTypeWinter {
		return block.SnowBlockID, true
	}
	return block.GrassBlockID, true
}
