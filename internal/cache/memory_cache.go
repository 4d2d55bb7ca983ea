package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// MemoryCache кеш в памяти процесса на ristretto. Используется, когда
// Redis не настроен. Запись асинхронна: значение становится видимым после
// обработки буфера ristretto.
type MemoryCache struct {
	cache *ristretto.Cache
	stats stats
}

// NewMemoryCache создаёт кеш с ограничением суммарного размера значений в байтах
func NewMemoryCache(maxBytes int64) (*MemoryCache, error) {
	if maxBytes <= 0 {
		maxBytes = 64 << 20
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания кеша в памяти: %w", err)
	}
	return &MemoryCache{cache: c}, nil
}

func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	defer m.stats.recordLatency(time.Now())
	if key == "" {
		return nil, ErrInvalidKey
	}
	v, ok := m.cache.Get(key)
	if !ok {
		m.stats.miss()
		return nil, ErrCacheMiss
	}
	m.stats.hit()
	return v.([]byte), nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	defer m.stats.recordLatency(time.Now())
	if key == "" {
		return ErrInvalidKey
	}
	stored := append([]byte(nil), value...)
	m.cache.SetWithTTL(key, stored, int64(len(stored))+int64(len(key)), ttl)
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.cache.Del(key)
	return nil
}

func (m *MemoryCache) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if v, err := m.Get(ctx, key); err == nil {
			out[key] = v
		}
	}
	return out, nil
}

func (m *MemoryCache) BatchSet(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	for key, value := range items {
		if err := m.Set(ctx, key, value, ttl); err != nil {
			return err
		}
	}
	return nil
}

// Wait дожидается применения всех отложенных записей
func (m *MemoryCache) Wait() {
	m.cache.Wait()
}

func (m *MemoryCache) Close() error {
	m.cache.Close()
	return nil
}

func (m *MemoryCache) GetMetrics() *CacheMetrics {
	return m.stats.snapshot(0)
}
