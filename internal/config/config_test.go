package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithoutPathReturnsDefaults(t *testing.T) {
	t.Setenv("VOXEL_CONFIG", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("TRACING_ENDPOINT", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultWorldConfig(), cfg.World)
	assert.False(t, cfg.Cache.Enabled)
	assert.False(t, cfg.Server.TracingEnabled)
}

func TestLoadOverridesFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voxel.yaml")
	data := []byte(`
world:
  size_in_chunks_x: 2
  size_in_chunks_z: 3
  type: winter
  load_distance: 64
storage:
  path: /tmp/w
  save_interval: 30s
cache:
  write_behind: true
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	t.Setenv("REDIS_URL", "localhost:6380")
	t.Setenv("TRACING_ENDPOINT", "otel:4318")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.World.SizeInChunksX)
	assert.Equal(t, 3, cfg.World.SizeInChunksZ)
	assert.Equal(t, "winter", cfg.World.Type)
	assert.Equal(t, 64.0, cfg.World.LoadDistance)
	// выгрузка не задана в файле и остаётся по умолчанию
	assert.Equal(t, 200.0, cfg.World.UnloadDistance)
	assert.Equal(t, 30*time.Second, cfg.Storage.SaveInterval)
	assert.Equal(t, "localhost:6380", cfg.Cache.RedisURL)
	assert.True(t, cfg.Cache.Enabled)
	assert.True(t, cfg.Cache.WriteBehind)
	assert.True(t, cfg.Server.TracingEnabled)
	assert.Equal(t, "otel:4318", cfg.Server.TracingEndpoint)
}

func TestUnloadDistanceRaisedAboveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxel.yaml")
	data := []byte(`
world:
  load_distance: 64
  unload_distance: 50
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64.0, cfg.World.LoadDistance)
	assert.Equal(t, 104.0, cfg.World.UnloadDistance)

	w := WorldConfig{LoadDistance: 10, UnloadDistance: 300}.WithDefaults()
	assert.Equal(t, 300.0, w.UnloadDistance, "заданная выгрузка дальше загрузки не меняется")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestTicks(t *testing.T) {
	w := DefaultWorldConfig()
	assert.Equal(t, 90, w.Ticks(1.5))
	assert.Equal(t, 4500, w.Ticks(75))
	assert.Equal(t, 1, w.Ticks(0))
	assert.Equal(t, 120, w.Ticks(1.995), "округление, а не отбрасывание дробной части")
	assert.Equal(t, 1, w.Ticks(0.01))
}

func TestMetricsPortFallback(t *testing.T) {
	t.Setenv("METRICS_PORT", "9100")
	s := ServerConfig{}
	assert.Equal(t, 9100, s.GetMetricsPort())
	s.MetricsPort = 9000
	assert.Equal(t, 9000, s.GetMetricsPort())
}
