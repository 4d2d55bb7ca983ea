package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *MemoryCache {
	t.Helper()
	c, err := NewMemoryCache(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestMemoryCacheSetGet(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	value := []byte("chunk-data")
	require.NoError(t, c.Set(ctx, "chunk:1:2", value, 0))
	c.Wait()

	// значение копируется при записи
	value[0] = 'X'

	got, err := c.Get(ctx, "chunk:1:2")
	require.NoError(t, err)
	assert.Equal(t, []byte("chunk-data"), got)

	_, err = c.Get(ctx, "chunk:9:9")
	assert.True(t, IsCacheMiss(err))

	m := c.GetMetrics()
	assert.Equal(t, int64(2), m.TotalRequests)
	assert.Equal(t, int64(1), m.CacheHits)
	assert.InDelta(t, 0.5, m.HitRatio, 1e-9)
}

func TestMemoryCacheDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	c.Wait()
	require.NoError(t, c.Delete(ctx, "k"))

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheBatch(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	require.NoError(t, c.BatchSet(ctx, map[string][]byte{
		"a": []byte("1"),
		"b": []byte("2"),
	}, 0))
	c.Wait()

	got, err := c.BatchGet(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, got)
}

func TestMemoryCacheInvalidKey(t *testing.T) {
	c := newTestCache(t)
	assert.ErrorIs(t, c.Set(context.Background(), "", []byte("v"), 0), ErrInvalidKey)
	_, err := c.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
