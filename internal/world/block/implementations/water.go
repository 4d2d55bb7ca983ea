package implementations

import (
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

// WaterBehavior реализует растекание и замерзание воды
type WaterBehavior struct{}

// ID возвращает идентификатор блока
func (b *WaterBehavior) ID() block.BlockID {
	return block.WaterBlockID
}

// Name возвращает имя блока
func (b *WaterBehavior) Name() string {
	return "Water"
}

// GrowthUpdate замораживает открытую небу поверхность воды в зимнем мире
func (b *WaterBehavior) GrowthUpdate(api block.BlockAPI, pos vec.Position) (block.BlockID, bool) {
	if api.WorldType() != block.WorldTypeWinter {
		return block.WaterBlockID, false
	}
	above := pos.Adjacent(vec.FaceTop)
	if api.IsValidBlockLocation(above) && api.GetBlockID(above) != block.AirBlockID {
		return block.WaterBlockID, false
	}
	if pos.Y < api.GetHeightMapLevel(pos.X, pos.Z) {
		return block.WaterBlockID, false
	}
	return block.IceBlockID, true
}

var lateralFaces = [4]vec.Face{vec.FaceRight, vec.FaceLeft, vec.FaceFront, vec.FaceBack}

// FlowTargets: вода стекает вниз, а если снизу не воздух, растекается в стороны
func (b *WaterBehavior) FlowTargets(api block.BlockAPI, pos vec.Position) []vec.Position {
	below := pos.Adjacent(vec.FaceBottom)
	if below.Y > 0 && api.IsValidBlockLocation(below) {
		switch api.GetBlockID(below) {
		case block.AirBlockID:
			return []vec.Position{below}
		case block.WaterBlockID:
			// столб воды растекается только у дна
			return nil
		}
	}

	var targets []vec.Position
	for _, face := range lateralFaces {
		adj := pos.Adjacent(face)
		if api.IsValidBlockLocation(adj) && api.GetBlockID(adj) == block.AirBlockID {
			targets = append(targets, adj)
		}
	}
	return targets
}
