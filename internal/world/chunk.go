package world

import (
	"sync"
	"sync/atomic"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/annel0/voxel-world/internal/world/entity"
)

// Chunk представляет участок мира размером 32x96x32 блоков
type Chunk struct {
	Coords vec.Vec2 // Координаты чанка в сетке чанков
	world  *World

	// mu защищает blocks, карту высот и границы уровней.
	// Запись только из конвейера установки блоков (один писатель).
	mu                      sync.RWMutex
	blocks                  BlockGrid
	heightMap               [ChunkSize][ChunkSize]int
	deepestTransparentLevel int
	highestNonAirLevel      int

	// Временные карты света чанка, нужны только при загрузке мира
	skyLightMapInitial  []byte
	itemLightMapInitial []byte

	lightSources sync.Map // entity.ID -> *entity.LightSource
	dynamicItems sync.Map // entity.ID -> *entity.DynamicItem
	clutterMu    sync.RWMutex
	clutter      map[entity.ID]*entity.Clutter
	mobsMu       sync.RWMutex
	mobs         map[entity.ID]*entity.Mob

	stateMu     sync.Mutex
	buildState  BuildState
	bufferState BufferState

	buildMu sync.Mutex // исключает параллельную сборку геометрии
	facesMu sync.RWMutex
	faces   []Face

	waterExpanding atomic.Bool
	grassGrowing   atomic.Bool
	grassOffset    int // случайный сдвиг тика роста, чтобы чанки не росли одновременно
}

// newChunk создаёт пустой (воздушный) чанк
func newChunk(w *World, coords vec.Vec2, grassOffset int) *Chunk {
	return &Chunk{
		Coords:      coords,
		world:       w,
		clutter:     make(map[entity.ID]*entity.Clutter),
		mobs:        make(map[entity.ID]*entity.Mob),
		grassOffset: grassOffset,
	}
}

// WorldOrigin возвращает мировые координаты блока (0,0,0) чанка
func (c *Chunk) WorldOrigin() vec.Position {
	return vec.Position{X: c.Coords.X * ChunkSize, Z: c.Coords.Z * ChunkSize}
}

// Contains проверяет, принадлежит ли мировая позиция чанку
func (c *Chunk) Contains(pos vec.Position) bool {
	return pos.ChunkCoords() == c.Coords && pos.Y >= 0 && pos.Y < ChunkHeight
}

// GetBlock возвращает блок по локальным координатам
func (c *Chunk) GetBlock(x, y, z int) block.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blocks.Get(x, y, z)
}

// setBlockLocked записывает блок; вызывается под c.mu
func (c *Chunk) setBlockLocked(x, y, z int, b block.Block) {
	c.blocks.Set(x, y, z, b)
}

// HeightMapLevel возвращает высоту самого верхнего непрозрачного блока столбца
func (c *Chunk) HeightMapLevel(x, z int) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.heightMap[x][z]
}

// DeepestTransparentLevel возвращает нижнюю границу прозрачных блоков
func (c *Chunk) DeepestTransparentLevel() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.deepestTransparentLevel
}

// HighestNonAirLevel возвращает верхнюю границу не-воздушных блоков
func (c *Chunk) HighestNonAirLevel() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.highestNonAirLevel
}

// WaterExpanding сообщает, включён ли тик растекания воды
func (c *Chunk) WaterExpanding() bool { return c.waterExpanding.Load() }

// SetWaterExpanding включает или выключает тик растекания воды
func (c *Chunk) SetWaterExpanding(v bool) { c.waterExpanding.Store(v) }

// GrassGrowing сообщает, включён ли тик роста
func (c *Chunk) GrassGrowing() bool { return c.grassGrowing.Load() }

// SetGrassGrowing включает или выключает тик роста
func (c *Chunk) SetGrassGrowing(v bool) { c.grassGrowing.Store(v) }

// DirtyBlocks возвращает локальные позиции и блоки, изменённые относительно генерации
func (c *Chunk) DirtyBlocks() map[vec.Position]block.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dirty := make(map[vec.Position]block.Block)
	for x := 0; x < ChunkSize; x++ {
		for y := 0; y < ChunkHeight; y++ {
			for z := 0; z < ChunkSize; z++ {
				if b := c.blocks.Get(x, y, z); b.Dirty {
					dirty[vec.Position{X: x, Y: y, Z: z}] = b
				}
			}
		}
	}
	return dirty
}

// Words возвращает блоки чанка в сетевом формате
func (c *Chunk) Words() []uint16 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blocks.Words(nil)
}

// LightSources возвращает снимок источников света чанка
func (c *Chunk) LightSources() []*entity.LightSource {
	var out []*entity.LightSource
	c.lightSources.Range(func(_, v any) bool {
		out = append(out, v.(*entity.LightSource))
		return true
	})
	return out
}

// LightSourceAt возвращает источник света в ячейке
func (c *Chunk) LightSourceAt(pos vec.Position) (*entity.LightSource, bool) {
	var found *entity.LightSource
	c.lightSources.Range(func(_, v any) bool {
		ls := v.(*entity.LightSource)
		if ls.BlockPosition() == pos {
			found = ls
			return false
		}
		return true
	})
	return found, found != nil
}

func (c *Chunk) addLightSource(ls *entity.LightSource) {
	c.lightSources.Store(ls.ID, ls)
}

// removeLightSourcesAt удаляет источники в ячейке, удовлетворяющие условию.
// Возвращает true, если что-то удалено.
func (c *Chunk) removeLightSourcesAt(pos vec.Position, match func(*entity.LightSource) bool) bool {
	removed := false
	c.lightSources.Range(func(k, v any) bool {
		ls := v.(*entity.LightSource)
		if ls.BlockPosition() == pos && (match == nil || match(ls)) {
			c.lightSources.Delete(k)
			removed = true
		}
		return true
	})
	return removed
}

// Clutter возвращает снимок декоративных объектов чанка
func (c *Chunk) Clutter() []*entity.Clutter {
	c.clutterMu.RLock()
	defer c.clutterMu.RUnlock()

	out := make([]*entity.Clutter, 0, len(c.clutter))
	for _, cl := range c.clutter {
		out = append(out, cl)
	}
	return out
}

// ClutterAt возвращает декоративный объект в ячейке
func (c *Chunk) ClutterAt(pos vec.Position) (*entity.Clutter, bool) {
	c.clutterMu.RLock()
	defer c.clutterMu.RUnlock()
	for _, cl := range c.clutter {
		if cl.BlockPosition() == pos {
			return cl, true
		}
	}
	return nil, false
}

func (c *Chunk) addClutter(cl *entity.Clutter) {
	c.clutterMu.Lock()
	defer c.clutterMu.Unlock()
	c.clutter[cl.ID] = cl
}

func (c *Chunk) removeClutterAt(pos vec.Position) bool {
	c.clutterMu.Lock()
	defer c.clutterMu.Unlock()
	removed := false
	for id, cl := range c.clutter {
		if cl.BlockPosition() == pos {
			delete(c.clutter, id)
			removed = true
		}
	}
	return removed
}

func (c *Chunk) removeStaticItem(id entity.ID) bool {
	if _, ok := c.lightSources.LoadAndDelete(id); ok {
		return true
	}
	c.clutterMu.Lock()
	defer c.clutterMu.Unlock()
	if _, ok := c.clutter[id]; ok {
		delete(c.clutter, id)
		return true
	}
	return false
}

// DynamicItems возвращает снимок динамических предметов чанка
func (c *Chunk) DynamicItems() []*entity.DynamicItem {
	var out []*entity.DynamicItem
	c.dynamicItems.Range(func(_, v any) bool {
		out = append(out, v.(*entity.DynamicItem))
		return true
	})
	return out
}

func (c *Chunk) addDynamicItem(item *entity.DynamicItem) {
	c.dynamicItems.Store(item.ID, item)
}

func (c *Chunk) removeDynamicItem(id entity.ID) {
	c.dynamicItems.Delete(id)
}

// Mobs возвращает снимок мобов чанка
func (c *Chunk) Mobs() []*entity.Mob {
	c.mobsMu.RLock()
	defer c.mobsMu.RUnlock()
	out := make([]*entity.Mob, 0, len(c.mobs))
	for _, m := range c.mobs {
		out = append(out, m)
	}
	return out
}

func (c *Chunk) addMob(m *entity.Mob) {
	c.mobsMu.Lock()
	defer c.mobsMu.Unlock()
	c.mobs[m.ID] = m
}

func (c *Chunk) removeMob(id entity.ID) {
	c.mobsMu.Lock()
	defer c.mobsMu.Unlock()
	delete(c.mobs, id)
}
