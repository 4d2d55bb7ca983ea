package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	World    WorldConfig    `yaml:"world"`
	Storage  StorageConfig  `yaml:"storage"`
	Cache    CacheConfig    `yaml:"cache"`
	EventBus EventBusConfig `yaml:"eventbus"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// WorldConfig параметры мира и симуляции.
// Дистанции задаются в блоках, интервалы в секундах игрового времени.
type WorldConfig struct {
	SizeInChunksX        int     `yaml:"size_in_chunks_x"`
	SizeInChunksZ        int     `yaml:"size_in_chunks_z"`
	Seed                 int64   `yaml:"seed"`
	Type                 string  `yaml:"type"`
	LoadDistance         float64 `yaml:"load_distance"`
	UnloadDistance       float64 `yaml:"unload_distance"`
	UpdatesPerSecond     int     `yaml:"updates_per_second"`
	WaterIntervalSeconds float64 `yaml:"water_interval_seconds"`
	GrassIntervalSeconds float64 `yaml:"grass_interval_seconds"`
	LightWorkers         int     `yaml:"light_workers"`
	BuildBudget          int     `yaml:"build_budget"`
}

type StorageConfig struct {
	Path         string        `yaml:"path"`
	SaveInterval time.Duration `yaml:"save_interval"`
}

type CacheConfig struct {
	Enabled       bool          `yaml:"enabled"`
	RedisURL      string        `yaml:"redis_url"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
	// WriteBehind передаёт запись в BadgerDB кешу Redis: данные попадают
	// на диск пачками в фоне
	WriteBehind bool `yaml:"write_behind"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

type ServerConfig struct {
	MetricsPort int `yaml:"metrics_port"`
	// Трассировка OTLP; пустой endpoint означает localhost:4318
	TracingEnabled  bool   `yaml:"tracing_enabled"`
	TracingEndpoint string `yaml:"tracing_endpoint"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// DefaultConfig возвращает конфигурацию одиночной игры без внешних сервисов
func DefaultConfig() *Config {
	return &Config{
		World:   DefaultWorldConfig(),
		Storage: StorageConfig{Path: "data/world", SaveInterval: 5 * time.Minute},
		Cache:   CacheConfig{TTL: 10 * time.Minute},
		EventBus: EventBusConfig{
			Stream:    "WORLD_EVENTS",
			Retention: 24,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// DefaultWorldConfig возвращает параметры мира по умолчанию
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		SizeInChunksX:        8,
		SizeInChunksZ:        8,
		Seed:                 1,
		Type:                 "grass",
		LoadDistance:         160,
		UnloadDistance:       200,
		UpdatesPerSecond:     60,
		WaterIntervalSeconds: 1.5,
		GrassIntervalSeconds: 75,
		LightWorkers:         4,
		BuildBudget:          4,
	}
}

// WithDefaults заполняет нулевые поля значениями по умолчанию
func (w WorldConfig) WithDefaults() WorldConfig {
	def := DefaultWorldConfig()
	if w.SizeInChunksX <= 0 {
		w.SizeInChunksX = def.SizeInChunksX
	}
	if w.SizeInChunksZ <= 0 {
		w.SizeInChunksZ = def.SizeInChunksZ
	}
	if w.Type == "" {
		w.Type = def.Type
	}
	if w.LoadDistance <= 0 {
		w.LoadDistance = def.LoadDistance
	}
	// Не заданная в файле дистанция выгрузки остаётся значением по умолчанию;
	// заданная меньше загрузки поднимается до загрузки плюс стандартный зазор
	if w.UnloadDistance < w.LoadDistance {
		w.UnloadDistance = w.LoadDistance + (def.UnloadDistance - def.LoadDistance)
	}
	if w.UpdatesPerSecond <= 0 {
		w.UpdatesPerSecond = def.UpdatesPerSecond
	}
	if w.WaterIntervalSeconds <= 0 {
		w.WaterIntervalSeconds = def.WaterIntervalSeconds
	}
	if w.GrassIntervalSeconds <= 0 {
		w.GrassIntervalSeconds = def.GrassIntervalSeconds
	}
	if w.LightWorkers <= 0 {
		w.LightWorkers = def.LightWorkers
	}
	if w.BuildBudget <= 0 {
		w.BuildBudget = def.BuildBudget
	}
	return w
}

// Ticks переводит интервал в секундах в число тиков обновления,
// округляя до ближайшего (минимум 1)
func (w WorldConfig) Ticks(seconds float64) int {
	ticks := int(math.Round(seconds * float64(w.UpdatesPerSecond)))
	if ticks < 1 {
		return 1
	}
	return ticks
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// applyEnv переопределяет адреса внешних сервисов из переменных окружения
func (c *Config) applyEnv() {
	if v := os.Getenv("STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Cache.RedisURL = v
		c.Cache.Enabled = true
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		c.EventBus.URL = v
	}
	if v := os.Getenv("TRACING_ENDPOINT"); v != "" {
		c.Server.TracingEndpoint = v
		c.Server.TracingEnabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать путь из ENV VOXEL_CONFIG; если и он
// не задан, возвращает конфигурацию по умолчанию.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения конфигурации %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.World = cfg.World.WithDefaults()
	return cfg, nil
}
