package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/voxel-world/internal/logging"
)

// RedisCache реализует CacheRepo поверх Redis как горячий кеш данных мира.
// При промахе читает из ColdStorage (Read-Through); при включённом
// Write-Behind асинхронно переносит записи в ColdStorage пачками.
type RedisCache struct {
	client      *redis.Client
	config      *CacheConfig
	coldStorage ColdStorage
	log         *logging.Logger

	writeBehindQueue chan writeItem
	writeBehindStop  chan struct{}
	writeBehindWg    sync.WaitGroup

	stats stats
}

// writeItem представляет элемент в очереди Write-Behind.
type writeItem struct {
	Key   string
	Value []byte
}

// NewRedisCache подключается к Redis. coldStorage может быть nil.
func NewRedisCache(config *CacheConfig, coldStorage ColdStorage) (*RedisCache, error) {
	if config.DefaultTTL == 0 {
		config.DefaultTTL = 10 * time.Minute
	}
	if config.MaxTTL == 0 {
		config.MaxTTL = time.Hour
	}
	if config.WriteBehindInterval == 0 {
		config.WriteBehindInterval = 5 * time.Second
	}
	if config.WriteBehindBatchSize == 0 {
		config.WriteBehindBatchSize = 64
	}
	if config.MaxConnections == 0 {
		config.MaxConnections = 10
	}
	if config.PoolTimeout == 0 {
		config.PoolTimeout = 30 * time.Second
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "voxel:"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         config.RedisURL,
		Password:     config.RedisPassword,
		DB:           config.RedisDB,
		PoolSize:     config.MaxConnections,
		PoolTimeout:  config.PoolTimeout,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c := &RedisCache{
		client:      rdb,
		config:      config,
		coldStorage: coldStorage,
		log:         logging.GetCacheLogger(),
	}

	if config.WriteBehindEnabled && coldStorage != nil {
		c.writeBehindQueue = make(chan writeItem, config.WriteBehindBatchSize*2)
		c.writeBehindStop = make(chan struct{})
		c.startWriteBehind()
	}

	c.log.Info("🧊 Redis cache initialized: %s (Write-Behind: %v)", config.RedisURL, config.WriteBehindEnabled)
	return c, nil
}

func (r *RedisCache) key(k string) string {
	return r.config.KeyPrefix + k
}

func (r *RedisCache) clampTTL(ttl time.Duration) time.Duration {
	if ttl > r.config.MaxTTL {
		return r.config.MaxTTL
	}
	return ttl
}

// Get получает значение из Redis; при промахе пробует ColdStorage.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	defer r.stats.recordLatency(time.Now())
	if key == "" {
		return nil, ErrInvalidKey
	}

	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == nil {
		r.stats.hit()
		return val, nil
	}
	r.stats.miss()

	if !errors.Is(err, redis.Nil) {
		r.log.Error("Redis Get error for key %s: %v", key, err)
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	if r.coldStorage != nil {
		val, err := r.coldStorage.Load(ctx, key)
		if err == nil {
			// прогреваем кеш для следующих запросов
			if err := r.client.Set(ctx, r.key(key), val, r.config.DefaultTTL).Err(); err != nil {
				r.log.Warn("Redis warm-up failed for key %s: %v", key, err)
			}
			return val, nil
		}
		r.log.Debug("Cold storage miss for key %s: %v", key, err)
	}
	return nil, ErrCacheMiss
}

// Set сохраняет значение в Redis и ставит его в очередь Write-Behind.
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	defer r.stats.recordLatency(time.Now())
	if key == "" {
		return ErrInvalidKey
	}

	if err := r.client.Set(ctx, r.key(key), value, r.clampTTL(ttl)).Err(); err != nil {
		r.log.Error("Redis Set error for key %s: %v", key, err)
		return fmt.Errorf("redis set error: %w", err)
	}
	r.enqueueWrite(ctx, key, value)
	return nil
}

func (r *RedisCache) enqueueWrite(ctx context.Context, key string, value []byte) {
	if r.writeBehindQueue == nil {
		return
	}
	select {
	case r.writeBehindQueue <- writeItem{Key: key, Value: value}:
	default:
		// Очередь полна, пишем синхронно
		r.log.Warn("Write-behind queue full, writing synchronously: %s", key)
		if err := r.coldStorage.Store(ctx, key, value); err != nil {
			r.log.Error("Failed to write to cold storage: %v", err)
		}
	}
}

// Delete удаляет ключ из кеша.
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	defer r.stats.recordLatency(time.Now())
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete error: %w", err)
	}
	return nil
}

// BatchGet получает несколько значений за один pipeline.
func (r *RedisCache) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	defer r.stats.recordLatency(time.Now())

	result := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	pipe := r.client.Pipeline()
	cmds := make(map[string]*redis.StringCmd, len(keys))
	for _, key := range keys {
		cmds[key] = pipe.Get(ctx, r.key(key))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis batch get error: %w", err)
	}

	for key, cmd := range cmds {
		val, err := cmd.Bytes()
		if err == nil {
			result[key] = val
			r.stats.hit()
			continue
		}
		r.stats.miss()
		if !errors.Is(err, redis.Nil) {
			r.log.Error("Redis BatchGet error for key %s: %v", key, err)
		}
	}
	return result, nil
}

// BatchSet сохраняет несколько значений за один pipeline.
func (r *RedisCache) BatchSet(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	defer r.stats.recordLatency(time.Now())
	if len(items) == 0 {
		return nil
	}

	ttl = r.clampTTL(ttl)
	pipe := r.client.Pipeline()
	for key, value := range items {
		pipe.Set(ctx, r.key(key), value, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis batch set error: %w", err)
	}

	for key, value := range items {
		r.enqueueWrite(ctx, key, value)
	}
	return nil
}

// Close останавливает Write-Behind (с досылкой накопленного) и закрывает соединение.
func (r *RedisCache) Close() error {
	if r.writeBehindStop != nil {
		close(r.writeBehindStop)
		r.writeBehindWg.Wait()
	}
	if err := r.client.Close(); err != nil {
		r.log.Error("Error closing Redis connection: %v", err)
		return err
	}
	r.log.Info("Redis cache closed")
	return nil
}

// GetMetrics возвращает текущие метрики кеша.
func (r *RedisCache) GetMetrics() *CacheMetrics {
	return r.stats.snapshot(int64(len(r.writeBehindQueue)))
}

// startWriteBehind запускает горутину асинхронной записи в ColdStorage.
func (r *RedisCache) startWriteBehind() {
	r.writeBehindWg.Add(1)
	go func() {
		defer r.writeBehindWg.Done()

		ticker := time.NewTicker(r.config.WriteBehindInterval)
		defer ticker.Stop()

		batch := make(map[string][]byte)
		for {
			select {
			case item := <-r.writeBehindQueue:
				batch[item.Key] = item.Value
				if len(batch) >= r.config.WriteBehindBatchSize {
					r.flushWriteBehindBatch(batch)
					batch = make(map[string][]byte)
				}

			case <-ticker.C:
				if len(batch) > 0 {
					r.flushWriteBehindBatch(batch)
					batch = make(map[string][]byte)
				}

			case <-r.writeBehindStop:
				// досылаем то, что осталось в очереди
				for {
					select {
					case item := <-r.writeBehindQueue:
						batch[item.Key] = item.Value
						continue
					default:
					}
					break
				}
				r.flushWriteBehindBatch(batch)
				return
			}
		}
	}()

	r.log.Info("Write-Behind started (interval: %v, batch size: %d)",
		r.config.WriteBehindInterval, r.config.WriteBehindBatchSize)
}

// flushWriteBehindBatch записывает пачку в ColdStorage.
func (r *RedisCache) flushWriteBehindBatch(batch map[string][]byte) {
	if len(batch) == 0 {
		return
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := r.coldStorage.BatchStore(ctx, batch); err != nil {
		r.log.Error("Write-Behind batch store failed (%d items): %v", len(batch), err)
		return
	}
	r.log.Debug("Write-Behind batch stored: %d items in %v", len(batch), time.Since(start))
}
