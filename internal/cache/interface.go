package cache

import (
	"context"
	"errors"
	"time"
)

// CacheRepo горячий кеш сжатых данных мира (дельты чанков, настройки).
// Ключи строковые, значения непрозрачные байты.
//
// Использование:
//
//	c := NewMemoryCache(1 << 26)
//	data, err := c.Get(ctx, "chunk:1:2")
//	err = c.Set(ctx, "chunk:1:2", data, 10*time.Minute)
type CacheRepo interface {
	// Get получает значение по ключу. Возвращает ErrCacheMiss, если ключа нет.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение с указанным TTL. TTL = 0 означает без истечения.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет ключ.
	Delete(ctx context.Context, key string) error

	// BatchGet получает несколько значений; отсутствующие ключи пропускаются.
	BatchGet(ctx context.Context, keys []string) (map[string][]byte, error)

	// BatchSet сохраняет несколько значений.
	BatchSet(ctx context.Context, items map[string][]byte, ttl time.Duration) error

	// Close закрывает кеш.
	Close() error

	// GetMetrics возвращает снимок метрик.
	GetMetrics() *CacheMetrics
}

// ColdStorage постоянное хранилище за кешем (badger).
// Используется для Read-Through и Write-Behind.
type ColdStorage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Store(ctx context.Context, key string, value []byte) error
	BatchStore(ctx context.Context, items map[string][]byte) error
}

// CacheMetrics содержит метрики производительности кеша.
type CacheMetrics struct {
	TotalRequests int64   `json:"total_requests"`
	CacheHits     int64   `json:"cache_hits"`
	CacheMisses   int64   `json:"cache_misses"`
	HitRatio      float64 `json:"hit_ratio"`

	AvgLatencyMs float64 `json:"avg_latency_ms"`
	MaxLatencyMs float64 `json:"max_latency_ms"`

	PendingWrites int64 `json:"pending_writes"`

	LastUpdate time.Time `json:"last_update"`
}

// CacheConfig содержит конфигурацию Redis кеша.
type CacheConfig struct {
	RedisURL      string `yaml:"redis_url"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	KeyPrefix     string `yaml:"key_prefix"`

	DefaultTTL time.Duration `yaml:"default_ttl"`
	MaxTTL     time.Duration `yaml:"max_ttl"`

	WriteBehindEnabled   bool          `yaml:"write_behind_enabled"`
	WriteBehindInterval  time.Duration `yaml:"write_behind_interval"`
	WriteBehindBatchSize int           `yaml:"write_behind_batch_size"`

	MaxConnections int           `yaml:"max_connections"`
	PoolTimeout    time.Duration `yaml:"pool_timeout"`
}

// Ошибки кеша
var (
	ErrCacheMiss  = errors.New("cache miss")
	ErrInvalidKey = errors.New("invalid key")
)

// IsCacheMiss проверяет, является ли ошибка промахом кеша.
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}
