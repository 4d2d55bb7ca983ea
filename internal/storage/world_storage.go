package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"

	"github.com/annel0/voxel-world/internal/cache"
	"github.com/annel0/voxel-world/internal/config"
	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/observability"
	"github.com/annel0/voxel-world/internal/protocol"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
)

// Ключи BadgerDB
const (
	settingsKey = "world:settings"
	viewerKey   = "world:viewer"
)

var (
	// ErrStorageNotReady хранилище закрыто или не открыто
	ErrStorageNotReady = errors.New("хранилище не готово")
	// ErrWorldNotFound в хранилище нет сохранённого мира
	ErrWorldNotFound = errors.New("сохранённый мир не найден")
	// ErrKeyNotFound ключ отсутствует в хранилище
	ErrKeyNotFound = errors.New("ключ не найден")
)

func chunkKey(coords vec.Vec2) string {
	return fmt.Sprintf("chunk:%d:%d", coords.X, coords.Z)
}

// WorldStorage хранит мир как отличия от генерации: изменённые блоки
// чанков (JSON, сжатый zstd) и настройки мира. Ландшафт при загрузке
// генерируется заново по сиду.
type WorldStorage struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	cache       cache.CacheRepo
	cacheTTL    time.Duration
	writeBehind bool // кеш сам переносит записи в BadgerDB
	log         *logging.Logger
}

var _ cache.ColdStorage = (*WorldStorage)(nil)

// ChunkDelta содержит изменённые блоки чанка
type ChunkDelta struct {
	Coords vec.Vec2     `json:"coords"`
	Blocks []BlockDelta `json:"blocks"`
}

// BlockDelta изменённый блок в локальных координатах чанка
type BlockDelta struct {
	X    uint8  `json:"x"`
	Y    uint8  `json:"y"`
	Z    uint8  `json:"z"`
	Word uint16 `json:"w"` // слово блока в сетевом формате, с флагом изменения
}

// Words возвращает блоки дельты по локальным позициям
func (d *ChunkDelta) Words() map[vec.Position]uint16 {
	out := make(map[vec.Position]uint16, len(d.Blocks))
	for _, b := range d.Blocks {
		out[vec.Position{X: int(b.X), Y: int(b.Y), Z: int(b.Z)}] = b.Word
	}
	return out
}

// Option настраивает хранилище
type Option func(*WorldStorage)

// WithCache подключает горячий кеш перед BadgerDB
func WithCache(c cache.CacheRepo, ttl time.Duration) Option {
	return func(ws *WorldStorage) {
		ws.cache = c
		ws.cacheTTL = ttl
	}
}

// SetCache подключает кеш к уже открытому хранилищу. Нужен, когда кеш
// использует само хранилище как ColdStorage. При writeBehind запись идёт
// только в кеш, а на диск её переносит кеш.
func (ws *WorldStorage) SetCache(c cache.CacheRepo, ttl time.Duration, writeBehind bool) {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()
	ws.cache = c
	ws.cacheTTL = ttl
	ws.writeBehind = writeBehind && c != nil
}

// NewWorldStorage открывает хранилище мира в каталоге dataPath
func NewWorldStorage(dataPath string, opts ...Option) (*WorldStorage, error) {
	dbPath := filepath.Join(dataPath, "world")
	bopts := badger.DefaultOptions(dbPath)
	bopts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd decoder: %w", err)
	}

	ws := &WorldStorage{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
		encoder: encoder,
		decoder: decoder,
		log:     logging.GetStorageLogger(),
	}
	for _, opt := range opts {
		opt(ws)
	}
	ws.log.Info("💾 Хранилище мира открыто: %s", dbPath)
	return ws, nil
}

// Close закрывает хранилище данных
func (ws *WorldStorage) Close() error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if !ws.isReady {
		return nil
	}
	ws.isReady = false
	ws.decoder.Close()
	_ = ws.encoder.Close()
	return ws.db.Close()
}

// Load читает значение из BadgerDB (ColdStorage для кеша)
func (ws *WorldStorage) Load(ctx context.Context, key string) ([]byte, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()
	if !ws.isReady {
		return nil, ErrStorageNotReady
	}

	var data []byte
	err := ws.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%s: %w", key, ErrKeyNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return data, nil
}

// Store записывает значение в BadgerDB (ColdStorage для кеша)
func (ws *WorldStorage) Store(ctx context.Context, key string, value []byte) error {
	return ws.BatchStore(ctx, map[string][]byte{key: value})
}

// BatchStore записывает несколько значений одной пачкой
func (ws *WorldStorage) BatchStore(ctx context.Context, items map[string][]byte) error {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()
	if !ws.isReady {
		return ErrStorageNotReady
	}

	wb := ws.db.NewWriteBatch()
	defer wb.Cancel()
	for key, value := range items {
		if err := wb.Set([]byte(key), value); err != nil {
			return fmt.Errorf("ошибка записи в BadgerDB: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("ошибка записи в BadgerDB: %w", err)
	}
	return nil
}

// put пишет в BadgerDB и обновляет кеш. Кеш с Write-Behind получает запись
// первым и сам сбрасывает её в BadgerDB.
func (ws *WorldStorage) put(ctx context.Context, key string, value []byte) error {
	if ws.writeBehind {
		if err := ws.cache.Set(ctx, key, value, ws.cacheTTL); err != nil {
			ws.log.Warn("⚠️ кеш не принял %s, пишем напрямую: %v", key, err)
			return ws.Store(ctx, key, value)
		}
		return nil
	}
	if err := ws.Store(ctx, key, value); err != nil {
		return err
	}
	if ws.cache != nil {
		if err := ws.cache.Set(ctx, key, value, ws.cacheTTL); err != nil {
			ws.log.Warn("⚠️ кеш не обновлён для %s: %v", key, err)
		}
	}
	return nil
}

// get читает сначала из кеша, затем из BadgerDB
func (ws *WorldStorage) get(ctx context.Context, key string) ([]byte, error) {
	if ws.cache != nil {
		data, err := ws.cache.Get(ctx, key)
		if err == nil {
			return data, nil
		}
		if !cache.IsCacheMiss(err) {
			ws.log.Warn("⚠️ ошибка кеша для %s: %v", key, err)
		}
	}
	return ws.Load(ctx, key)
}

// SaveChunk сохраняет изменённые блоки чанка. Чанк без изменений не пишется.
func (ws *WorldStorage) SaveChunk(ctx context.Context, chunk *world.Chunk) (bool, error) {
	dirty := chunk.DirtyBlocks()
	if len(dirty) == 0 {
		return false, nil
	}

	delta := ChunkDelta{Coords: chunk.Coords, Blocks: make([]BlockDelta, 0, len(dirty))}
	for p, b := range dirty {
		delta.Blocks = append(delta.Blocks, BlockDelta{X: uint8(p.X), Y: uint8(p.Y), Z: uint8(p.Z), Word: b.Word()})
	}

	raw, err := json.Marshal(delta)
	if err != nil {
		return false, fmt.Errorf("ошибка сериализации дельты: %w", err)
	}
	if err := ws.put(ctx, chunkKey(chunk.Coords), ws.encoder.EncodeAll(raw, nil)); err != nil {
		return false, err
	}
	return true, nil
}

// LoadChunk загружает дельту чанка. Для несохранённого чанка возвращается пустая дельта.
func (ws *WorldStorage) LoadChunk(ctx context.Context, coords vec.Vec2) (*ChunkDelta, error) {
	data, err := ws.get(ctx, chunkKey(coords))
	if errors.Is(err, ErrKeyNotFound) {
		return &ChunkDelta{Coords: coords}, nil
	}
	if err != nil {
		return nil, err
	}

	raw, err := ws.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки дельты %v: %w", coords, err)
	}
	var delta ChunkDelta
	if err := json.Unmarshal(raw, &delta); err != nil {
		return nil, fmt.Errorf("ошибка десериализации дельты: %w", err)
	}
	return &delta, nil
}

// SaveSettings сохраняет заголовок мира
func (ws *WorldStorage) SaveSettings(ctx context.Context, s protocol.Settings) error {
	data, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("ошибка сериализации настроек: %w", err)
	}
	return ws.put(ctx, settingsKey, data)
}

// LoadSettings загружает заголовок мира
func (ws *WorldStorage) LoadSettings(ctx context.Context) (protocol.Settings, error) {
	var s protocol.Settings
	data, err := ws.get(ctx, settingsKey)
	if errors.Is(err, ErrKeyNotFound) {
		return s, ErrWorldNotFound
	}
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("ошибка разбора настроек: %w", err)
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// SaveViewer сохраняет точку наблюдения
func (ws *WorldStorage) SaveViewer(ctx context.Context, c vec.Coords) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return ws.put(ctx, viewerKey, data)
}

// LoadViewer загружает точку наблюдения; false, если она не сохранялась
func (ws *WorldStorage) LoadViewer(ctx context.Context) (vec.Coords, bool, error) {
	var c vec.Coords
	data, err := ws.get(ctx, viewerKey)
	if errors.Is(err, ErrKeyNotFound) {
		return c, false, nil
	}
	if err != nil {
		return c, false, err
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, false, fmt.Errorf("ошибка разбора точки наблюдения: %w", err)
	}
	return c, true, nil
}

// SaveWorld сохраняет настройки и изменённые чанки мира.
// Возвращает число записанных чанков.
func (ws *WorldStorage) SaveWorld(ctx context.Context, w *world.World) (saved int, err error) {
	ctx, span := observability.StartSpan(ctx, "storage.SaveWorld")
	defer func() {
		span.SetAttributes(attribute.Int("saved_chunks", saved))
		observability.EndSpan(span, err)
	}()

	start := time.Now()
	if err := ws.SaveSettings(ctx, w.Settings()); err != nil {
		return 0, err
	}
	if viewer, ok := w.Viewer(); ok {
		if err := ws.SaveViewer(ctx, viewer); err != nil {
			return 0, err
		}
	}

	for _, c := range w.Chunks().All() {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		ok, err := ws.SaveChunk(ctx, c)
		if err != nil {
			return saved, fmt.Errorf("чанк %v: %w", c.Coords, err)
		}
		if ok {
			saved++
		}
	}
	ws.log.Info("💾 Мир сохранён: %d изменённых чанков за %v", saved, time.Since(start))
	return saved, nil
}

// LoadWorld восстанавливает мир: генерирует ландшафт по сохранённому сиду,
// применяет дельты чанков и настройки, затем строит свет
func (ws *WorldStorage) LoadWorld(ctx context.Context, cfg config.WorldConfig, opts ...world.Option) (_ *world.World, err error) {
	ctx, span := observability.StartSpan(ctx, "storage.LoadWorld")
	defer func() { observability.EndSpan(span, err) }()

	start := time.Now()
	s, err := ws.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}

	cfg.SizeInChunksX = s.SizeInChunksX
	cfg.SizeInChunksZ = s.SizeInChunksZ
	cfg.Seed = s.Seed
	cfg.Type = s.WorldType

	w, _, err := world.GenerateTerrain(cfg, opts...)
	if err != nil {
		return nil, err
	}

	for _, c := range w.Chunks().All() {
		delta, err := ws.LoadChunk(ctx, c.Coords)
		if err != nil {
			return nil, fmt.Errorf("чанк %v: %w", c.Coords, err)
		}
		if len(delta.Blocks) > 0 {
			c.ApplyDirtyBlocks(delta.Words())
		}
	}
	if err := w.ApplySettings(s); err != nil {
		return nil, err
	}
	if viewer, ok, err := ws.LoadViewer(ctx); err != nil {
		return nil, err
	} else if ok {
		w.SetViewer(viewer)
	}
	if err := w.InitializeAllLightMaps(ctx); err != nil {
		return nil, err
	}

	ws.log.Info("💾 Мир загружен из %s за %v", ws.dbPath, time.Since(start))
	return w, nil
}
