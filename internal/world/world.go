package world

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/annel0/voxel-world/internal/config"
	"github.com/annel0/voxel-world/internal/eventbus"
	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/protocol"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
	_ "github.com/annel0/voxel-world/internal/world/block/implementations" // правила роста
	"github.com/annel0/voxel-world/internal/world/entity"
)

// World контекст одного мира: сетка чанков, карты света, планировщик,
// последовательность идентификаторов и внешние потребители.
type World struct {
	cfg       config.WorldConfig
	worldType block.WorldType
	seed      int64

	sizeInChunksX int
	sizeInChunksZ int
	sizeX         int // размер мира в блоках по X
	sizeZ         int // размер мира в блоках по Z

	chunks    *Chunks
	light     *LightMaps
	scheduler *Scheduler

	nextID      atomic.Uint64
	sunStrength atomic.Int32

	viewerMu sync.RWMutex
	viewer   *vec.Coords

	renderer Renderer
	sound    SoundPlayer
	bus      eventbus.EventBus
	log      *logging.Logger
	lightLog *logging.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	lightTaskMu sync.Mutex     // сериализует пересчёт областей света
	lightTasks  sync.WaitGroup // фоновые задачи света

	updateCounter int // тики симуляции; только поток обновления
	waterTicks    int
	grassTicks    int
	itemMoves     []itemMove // переходы предметов между чанками за тик
}

// Option настраивает мир при создании
type Option func(*World)

// WithRenderer подключает рендерер чанков
func WithRenderer(r Renderer) Option {
	return func(w *World) { w.renderer = r }
}

// WithSoundPlayer подключает проигрывание звуков
func WithSoundPlayer(s SoundPlayer) Option {
	return func(w *World) { w.sound = s }
}

// WithEventBus подключает шину событий мира
func WithEventBus(bus eventbus.EventBus) Option {
	return func(w *World) { w.bus = bus }
}

// WithRandSeed фиксирует генератор случайных чисел симуляции (для тестов)
func WithRandSeed(seed int64) Option {
	return func(w *World) { w.rng = rand.New(rand.NewSource(seed)) }
}

// New создаёт мир из воздуха заданного размера. Все чанки в состоянии NotLoaded.
func New(cfg config.WorldConfig, opts ...Option) (*World, error) {
	cfg = cfg.WithDefaults()
	worldType, err := block.ParseWorldType(cfg.Type)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания мира: %w", err)
	}
	if err := protocol.ValidateSize(cfg.SizeInChunksX, cfg.SizeInChunksZ); err != nil {
		return nil, fmt.Errorf("ошибка создания мира: %w", err)
	}

	w := &World{
		cfg:           cfg,
		worldType:     worldType,
		seed:          cfg.Seed,
		sizeInChunksX: cfg.SizeInChunksX,
		sizeInChunksZ: cfg.SizeInChunksZ,
		sizeX:         cfg.SizeInChunksX * ChunkSize,
		sizeZ:         cfg.SizeInChunksZ * ChunkSize,
		scheduler:     NewScheduler(),
		log:           logging.GetWorldLogger(),
		lightLog:      logging.GetLightingLogger(),
		waterTicks:    cfg.Ticks(cfg.WaterIntervalSeconds),
		grassTicks:    cfg.Ticks(cfg.GrassIntervalSeconds),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.rng == nil {
		w.rng = rand.New(rand.NewSource(cfg.Seed))
	}
	w.sunStrength.Store(BrightestSkylightStrength)
	w.light = newLightMaps(w.sizeX, w.sizeZ)
	w.chunks = newChunks(w)

	return w, nil
}

// WorldType возвращает тип мира
func (w *World) WorldType() block.WorldType { return w.worldType }

// Seed возвращает сид генерации
func (w *World) Seed() int64 { return w.seed }

// Config возвращает параметры мира
func (w *World) Config() config.WorldConfig { return w.cfg }

// SizeX возвращает размер мира в блоках по X
func (w *World) SizeX() int { return w.sizeX }

// SizeZ возвращает размер мира в блоках по Z
func (w *World) SizeZ() int { return w.sizeZ }

// SizeInChunksX возвращает число чанков по X
func (w *World) SizeInChunksX() int { return w.sizeInChunksX }

// SizeInChunksZ возвращает число чанков по Z
func (w *World) SizeInChunksZ() int { return w.sizeInChunksZ }

// Chunks возвращает сетку чанков
func (w *World) Chunks() *Chunks { return w.chunks }

// Scheduler возвращает очереди сборки чанков
func (w *World) Scheduler() *Scheduler { return w.scheduler }

// NextGameObjectID выдаёт следующий идентификатор игрового объекта
func (w *World) NextGameObjectID() entity.ID {
	return entity.ID(w.nextID.Add(1))
}

// GameObjectIDSeq возвращает последний выданный идентификатор
func (w *World) GameObjectIDSeq() uint64 { return w.nextID.Load() }

// SetGameObjectIDSeq восстанавливает последовательность идентификаторов после загрузки
func (w *World) SetGameObjectIDSeq(v uint64) { w.nextID.Store(v) }

// SetViewer задаёт точку наблюдения, от которой считаются дистанции загрузки
func (w *World) SetViewer(c vec.Coords) {
	w.viewerMu.Lock()
	defer w.viewerMu.Unlock()
	w.viewer = &c
}

// Viewer возвращает точку наблюдения, если она задана
func (w *World) Viewer() (vec.Coords, bool) {
	w.viewerMu.RLock()
	defer w.viewerMu.RUnlock()
	if w.viewer == nil {
		return vec.Coords{}, false
	}
	return *w.viewer, true
}

// IsValidBlockLocation проверяет, лежит ли позиция внутри мира (включая дно мира)
func (w *World) IsValidBlockLocation(pos vec.Position) bool {
	return w.isValidXYZ(pos.X, pos.Y, pos.Z)
}

func (w *World) isValidXYZ(x, y, z int) bool {
	return x >= 0 && x < w.sizeX && y >= 0 && y < ChunkHeight && z >= 0 && z < w.sizeZ
}

// GetBlock возвращает блок по мировым координатам; вне мира воздух
func (w *World) GetBlock(x, y, z int) block.Block {
	if !w.isValidXYZ(x, y, z) {
		return block.Block{}
	}
	c := w.chunks.At(x/ChunkSize, z/ChunkSize)
	return c.GetBlock(x%ChunkSize, y, z%ChunkSize)
}

// GetBlockID возвращает тип блока в позиции
func (w *World) GetBlockID(pos vec.Position) block.BlockID {
	return w.GetBlock(pos.X, pos.Y, pos.Z).ID
}

// GetHeightMapLevel возвращает высоту самого верхнего непрозрачного блока столбца
func (w *World) GetHeightMapLevel(x, z int) int {
	return w.chunks.At(x/ChunkSize, z/ChunkSize).HeightMapLevel(x%ChunkSize, z%ChunkSize)
}

// IsOnChunkBorder проверяет, лежит ли столбец на краю своего чанка
func IsOnChunkBorder(x, z int) bool {
	lx, lz := x%ChunkSize, z%ChunkSize
	return lx == 0 || lz == 0 || lx == ChunkSize-1 || lz == ChunkSize-1
}

// HasAdjacentBlockReceivingDirectSunlight проверяет по карте высот,
// получает ли прямой солнечный свет один из четырёх боковых соседей
func (w *World) HasAdjacentBlockReceivingDirectSunlight(pos vec.Position) bool {
	x, y, z := pos.X, pos.Y, pos.Z
	return (x < w.sizeX-1 && w.GetHeightMapLevel(x+1, z) <= y) ||
		(x > 0 && w.GetHeightMapLevel(x-1, z) <= y) ||
		(z < w.sizeZ-1 && w.GetHeightMapLevel(x, z+1) <= y) ||
		(z > 0 && w.GetHeightMapLevel(x, z-1) <= y)
}

// SunStrength возвращает текущую силу солнца 0..15
func (w *World) SunStrength() byte { return byte(w.sunStrength.Load()) }

// SetSunStrength меняет силу солнца и ставит загруженные чанки в фоновую
// очередь пересборки (смена дня и ночи)
func (w *World) SetSunStrength(s byte) {
	if s > BrightestSkylightStrength {
		s = BrightestSkylightStrength
	}
	if old := w.sunStrength.Swap(int32(s)); old == int32(s) {
		return
	}
	for _, c := range w.chunks.All() {
		st := c.BuildState()
		if st == BuildStateNotLoaded || st.IsQueued() {
			continue
		}
		c.SetBuildState(BuildStateQueuedDayNight)
	}
}

// QueueInitialChunks ставит чанки в очередь при первом входе в мир:
// ближние к точке наблюдения как начальную видимую область, остальные
// в пределах дистанции выгрузки как начальные дальние
func (w *World) QueueInitialChunks(viewer vec.Coords) {
	w.SetViewer(viewer)
	for _, c := range w.chunks.All() {
		d := c.DistanceFrom(viewer)
		switch {
		case d <= w.cfg.LoadDistance:
			c.SetBuildState(BuildStateQueuedInitialFrustum)
		case d <= w.cfg.UnloadDistance:
			c.SetBuildState(BuildStateQueuedInitialFar)
		}
	}
}

func (w *World) randFloat() float64 {
	w.rngMu.Lock()
	defer w.rngMu.Unlock()
	return w.rng.Float64()
}

func (w *World) randIntn(n int) int {
	w.rngMu.Lock()
	defer w.rngMu.Unlock()
	return w.rng.Intn(n)
}

var (
	_ block.BlockAPI     = (*World)(nil)
	_ entity.BlockSource = (*World)(nil)
)
