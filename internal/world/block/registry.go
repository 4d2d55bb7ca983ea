package block

import "fmt"

// BlockID представляет идентификатор типа блока (0–255)
type BlockID uint8

// Константы ID блоков
const (
	AirBlockID        BlockID = iota // 0
	WaterBlockID                     // 1
	DirtBlockID                      // 2
	GrassBlockID                     // 3
	SnowBlockID                      // 4
	SandBlockID                      // 5
	StoneBlockID                     // 6
	CobbleBlockID                    // 7
	GravelBlockID                    // 8
	IceBlockID                       // 9
	TreeBlockID                      // 10 - ствол дерева
	LeavesBlockID                    // 11
	SnowLeavesBlockID                // 12
	WoodTileBlockID                  // 13
	GlassBlockID                     // 14
	BricksBlockID                    // 15
)

// Properties описывает статические свойства типа блока
type Properties struct {
	Name        string
	Transparent bool // пропускает свет и не перекрывает грани соседей
	Solid       bool // на нём могут лежать предметы
}

var properties = [256]Properties{
	AirBlockID:        {Name: "Air", Transparent: true},
	WaterBlockID:      {Name: "Water", Transparent: true},
	DirtBlockID:       {Name: "Dirt", Solid: true},
	GrassBlockID:      {Name: "Grass", Solid: true},
	SnowBlockID:       {Name: "Snow", Solid: true},
	SandBlockID:       {Name: "Sand", Solid: true},
	StoneBlockID:      {Name: "Stone", Solid: true},
	CobbleBlockID:     {Name: "Cobble", Solid: true},
	GravelBlockID:     {Name: "Gravel", Solid: true},
	IceBlockID:        {Name: "Ice", Solid: true},
	TreeBlockID:       {Name: "Tree", Solid: true},
	LeavesBlockID:     {Name: "Leaves", Transparent: true, Solid: true},
	SnowLeavesBlockID: {Name: "SnowLeaves", Transparent: true, Solid: true},
	WoodTileBlockID:   {Name: "WoodTile", Solid: true},
	GlassBlockID:      {Name: "Glass", Transparent: true, Solid: true},
	BricksBlockID:     {Name: "Bricks", Solid: true},
}

// LastKnownBlockID последний ID, для которого заданы свойства
const LastKnownBlockID = BricksBlockID

func init() {
	// Неизвестные типы ведут себя как непрозрачный твёрдый блок
	for id := int(LastKnownBlockID) + 1; id < len(properties); id++ {
		properties[id] = Properties{Name: fmt.Sprintf("Unknown(%d)", id), Solid: true}
	}
}

// PropertiesOf возвращает свойства типа блока
func PropertiesOf(id BlockID) Properties {
	return properties[id]
}

// IsTransparent проверяет, прозрачен ли тип блока
func IsTransparent(id BlockID) bool {
	return properties[id].Transparent
}

// IsSolid проверяет, является ли тип блока твёрдым
func IsSolid(id BlockID) bool {
	return properties[id].Solid
}

// IsKnown проверяет, описан ли тип блока
func IsKnown(id BlockID) bool {
	return id <= LastKnownBlockID
}

// String возвращает имя типа блока
func (id BlockID) String() string {
	return properties[id].Name
}

var registry = make(map[BlockID]BlockBehavior)

// Register добавляет поведение блока в регистр
func Register(behavior BlockBehavior) {
	registry[behavior.ID()] = behavior
}

// Get возвращает поведение для указанного ID
func Get(id BlockID) (BlockBehavior, bool) {
	behavior, exists := registry[id]
	return behavior, exists
}
