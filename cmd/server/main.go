package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxel-world/internal/cache"
	"github.com/annel0/voxel-world/internal/config"
	"github.com/annel0/voxel-world/internal/eventbus"
	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/observability"
	"github.com/annel0/voxel-world/internal/storage"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
)

// memoryCacheBytes объём локального кеша чанков, когда Redis не настроен
const memoryCacheBytes = 64 << 20

func main() {
	configPath := flag.String("config", "", "Путь к YAML конфигурации (по умолчанию VOXEL_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if err := logging.InitDefaultLogger("server", logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Dir); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.GetLoggerManager().CloseAll()

	logging.Info("🌍 Запуск сервера воксельного мира %dx%d чанков", cfg.World.SizeInChunksX, cfg.World.SizeInChunksZ)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === НАБЛЮДАЕМОСТЬ ===
	if cfg.Server.TracingEnabled {
		shutdown, err := observability.InitTelemetry(ctx, "voxel-world", cfg.Server.TracingEndpoint)
		if err != nil {
			logging.Warn("Трассировка отключена: %v", err)
		} else {
			defer shutdown(context.Background())
		}
	}
	if pc, err := observability.NewProcessCollector(nil); err != nil {
		logging.Warn("Метрики процесса недоступны: %v", err)
	} else {
		pc.Start(10 * time.Second)
		defer pc.Stop()
	}

	// === ХРАНИЛИЩЕ И КЕШ ===
	// Кеш закрывается раньше хранилища, чтобы Write-Behind успел сбросить записи
	ws, err := storage.NewWorldStorage(cfg.Storage.Path)
	if err != nil {
		logging.Error("Ошибка открытия хранилища: %v", err)
		os.Exit(1)
	}
	defer ws.Close()

	hot, writeBehind, err := openCache(cfg, ws)
	if err != nil {
		logging.Error("Ошибка подключения кеша: %v", err)
		os.Exit(1)
	}
	defer hot.Close()
	ws.SetCache(hot, cfg.Cache.TTL, writeBehind)

	// === ШИНА СОБЫТИЙ ===
	bus, err := openEventBus(cfg)
	if err != nil {
		logging.Error("Ошибка подключения шины событий: %v", err)
		os.Exit(1)
	}
	defer bus.Close()

	if _, err := eventbus.StartLoggingListener(ctx, bus); err != nil {
		logging.Warn("Логирование событий отключено: %v", err)
	}
	exporter := eventbus.NewMetricsExporter(bus, nil)
	exporter.StartHTTP(fmt.Sprintf(":%d", cfg.Server.GetMetricsPort()))
	defer exporter.Stop()

	// === МИР ===
	w, err := loadOrGenerate(ctx, cfg, ws, world.WithEventBus(bus))
	if err != nil {
		logging.Error("Ошибка подготовки мира: %v", err)
		os.Exit(1)
	}

	viewer, ok := w.Viewer()
	if !ok {
		viewer = vec.NewCoords(float32(w.SizeX())/2, float32(world.ChunkHeight-1), float32(w.SizeZ())/2)
	}
	w.QueueInitialChunks(viewer)
	logging.Info("👁️ Наблюдатель в точке (%.1f, %.1f, %.1f)", viewer.X, viewer.Y, viewer.Z)

	run(ctx, cfg, w, ws)

	logging.Info("🛑 Остановка сервера...")
	w.WaitLighting()
	saveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := ws.SaveWorld(saveCtx, w); err != nil {
		logging.Error("Ошибка сохранения мира при остановке: %v", err)
	}
	logging.Info("✅ Сервер остановлен")
}

// openCache выбирает Redis, если он включён, иначе локальный кеш в памяти.
// Redis читает промахи из cold и, если включено, сам пишет в него пачками.
func openCache(cfg *config.Config, cold cache.ColdStorage) (cache.CacheRepo, bool, error) {
	if cfg.Cache.Enabled && cfg.Cache.RedisURL != "" {
		rc, err := cache.NewRedisCache(&cache.CacheConfig{
			RedisURL:           cfg.Cache.RedisURL,
			RedisPassword:      cfg.Cache.RedisPassword,
			RedisDB:            cfg.Cache.RedisDB,
			DefaultTTL:         cfg.Cache.TTL,
			WriteBehindEnabled: cfg.Cache.WriteBehind,
		}, cold)
		if err != nil {
			return nil, false, err
		}
		return rc, cfg.Cache.WriteBehind, nil
	}
	mc, err := cache.NewMemoryCache(memoryCacheBytes)
	if err != nil {
		return nil, false, err
	}
	return mc, false, nil
}

// openEventBus подключается к NATS JetStream или создаёт шину в памяти
func openEventBus(cfg *config.Config) (eventbus.EventBus, error) {
	if cfg.EventBus.URL == "" {
		logging.Info("📨 NATS не настроен, используется шина событий в памяти")
		return eventbus.NewMemoryBus(1024), nil
	}
	retention := time.Duration(cfg.EventBus.Retention) * time.Hour
	return eventbus.NewJetStreamBus(cfg.EventBus.URL, cfg.EventBus.Stream, retention)
}

// loadOrGenerate поднимает сохранённый мир или генерирует новый
func loadOrGenerate(ctx context.Context, cfg *config.Config, ws *storage.WorldStorage, opts ...world.Option) (*world.World, error) {
	w, err := ws.LoadWorld(ctx, cfg.World, opts...)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, storage.ErrWorldNotFound) {
		return nil, err
	}

	logging.Info("🌱 Сохранённый мир не найден, генерируем новый (сид %d)", cfg.World.Seed)
	w, err = world.Generate(ctx, cfg.World, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := ws.SaveWorld(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// run крутит цикл симуляции до отмены контекста
func run(ctx context.Context, cfg *config.Config, w *world.World, ws *storage.WorldStorage) {
	frameTime := 1.0 / float64(cfg.World.UpdatesPerSecond)
	ticker := time.NewTicker(time.Duration(frameTime * float64(time.Second)))
	defer ticker.Stop()

	saveInterval := cfg.Storage.SaveInterval
	if saveInterval <= 0 {
		saveInterval = 5 * time.Minute
	}
	saveTicker := time.NewTicker(saveInterval)
	defer saveTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Update(frameTime)
			w.Scheduler().Drain(cfg.World.BuildBudget, world.BuildQueued)
		case <-saveTicker.C:
			if _, err := ws.SaveWorld(ctx, w); err != nil {
				logging.Error("Ошибка периодического сохранения: %v", err)
			}
		}
	}
}
