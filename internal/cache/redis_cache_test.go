package cache

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis минимальный сервер RESP: PING, GET, SET, DEL
type fakeRedis struct {
	ln   net.Listener
	mu   sync.Mutex
	data map[string][]byte
}

func startFakeRedis(t *testing.T) *fakeRedis {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	f := &fakeRedis{ln: ln, data: make(map[string][]byte)}
	go f.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return f
}

func (f *fakeRedis) addr() string { return f.ln.Addr().String() }

func (f *fakeRedis) value(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

func (f *fakeRedis) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *fakeRedis) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		args, err := readCommand(r)
		if err != nil {
			return
		}
		if _, err := conn.Write(f.exec(args)); err != nil {
			return
		}
	}
}

func readCommand(r *bufio.Reader) ([]string, error) {
	n, err := readLength(r, '*')
	if err != nil {
		return nil, err
	}
	args := make([]string, n)
	for i := range args {
		size, err := readLength(r, '$')
		if err != nil {
			return nil, err
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		args[i] = string(buf[:size])
	}
	return args, nil
}

func readLength(r *bufio.Reader, prefix byte) (int, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return 0, err
	}
	line = strings.TrimSpace(line)
	if len(line) < 2 || line[0] != prefix {
		return 0, fmt.Errorf("неожиданная строка %q", line)
	}
	return strconv.Atoi(line[1:])
}

func (f *fakeRedis) exec(args []string) []byte {
	if len(args) == 0 {
		return []byte("-ERR empty command\r\n")
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	switch strings.ToUpper(args[0]) {
	case "PING":
		return []byte("+PONG\r\n")
	case "GET":
		v, ok := f.data[args[1]]
		if !ok {
			return []byte("$-1\r\n")
		}
		return []byte(fmt.Sprintf("$%d\r\n%s\r\n", len(v), v))
	case "SET":
		f.data[args[1]] = []byte(args[2])
		return []byte("+OK\r\n")
	case "DEL":
		deleted := 0
		for _, k := range args[1:] {
			if _, ok := f.data[k]; ok {
				delete(f.data, k)
				deleted++
			}
		}
		return []byte(fmt.Sprintf(":%d\r\n", deleted))
	}
	return []byte("-ERR unknown command\r\n")
}

// memColdStorage считает обращения к постоянному хранилищу
type memColdStorage struct {
	mu      sync.Mutex
	data    map[string][]byte
	loads   int
	batches int
}

func newMemColdStorage() *memColdStorage {
	return &memColdStorage{data: make(map[string][]byte)}
}

func (m *memColdStorage) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("нет на диске")
	}
	return v, nil
}

func (m *memColdStorage) Store(ctx context.Context, key string, value []byte) error {
	return m.BatchStore(ctx, map[string][]byte{key: value})
}

func (m *memColdStorage) BatchStore(_ context.Context, items map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches++
	for k, v := range items {
		m.data[k] = v
	}
	return nil
}

func (m *memColdStorage) snapshot() (map[string][]byte, int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]byte, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out, m.loads, m.batches
}

func TestRedisCacheReadThrough(t *testing.T) {
	ctx := context.Background()
	srv := startFakeRedis(t)
	cold := newMemColdStorage()
	cold.data["chunk:1:2"] = []byte("delta")

	rc, err := NewRedisCache(&CacheConfig{RedisURL: srv.addr()}, cold)
	require.NoError(t, err)
	defer rc.Close()

	got, err := rc.Get(ctx, "chunk:1:2")
	require.NoError(t, err)
	assert.Equal(t, []byte("delta"), got)

	warmed, ok := srv.value("voxel:chunk:1:2")
	require.True(t, ok, "промах прогревает Redis")
	assert.Equal(t, []byte("delta"), warmed)

	got, err = rc.Get(ctx, "chunk:1:2")
	require.NoError(t, err)
	assert.Equal(t, []byte("delta"), got)
	_, loads, _ := cold.snapshot()
	assert.Equal(t, 1, loads, "второе чтение из Redis")

	_, err = rc.Get(ctx, "chunk:9:9")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = rc.Get(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidKey)

	m := rc.GetMetrics()
	assert.Equal(t, int64(1), m.CacheHits)
	assert.Equal(t, int64(2), m.CacheMisses)
}

func TestRedisCacheWriteBehind(t *testing.T) {
	ctx := context.Background()
	srv := startFakeRedis(t)
	cold := newMemColdStorage()

	rc, err := NewRedisCache(&CacheConfig{
		RedisURL:            srv.addr(),
		WriteBehindEnabled:  true,
		WriteBehindInterval: time.Hour,
	}, cold)
	require.NoError(t, err)

	require.NoError(t, rc.Set(ctx, "world:settings", []byte("seed: 1"), time.Minute))
	require.NoError(t, rc.BatchSet(ctx, map[string][]byte{
		"chunk:0:0": []byte("a"),
		"chunk:0:1": []byte("b"),
	}, time.Minute))

	batch, err := rc.BatchGet(ctx, []string{"chunk:0:0", "chunk:0:1", "chunk:5:5"})
	require.NoError(t, err)
	assert.Len(t, batch, 2)

	data, _, batches := cold.snapshot()
	assert.Empty(t, data, "до сброса на диск ничего не пишется")
	assert.Zero(t, batches)

	require.NoError(t, rc.Close())

	data, _, batches = cold.snapshot()
	assert.Equal(t, 1, batches, "одна пачка при остановке")
	assert.Equal(t, map[string][]byte{
		"world:settings": []byte("seed: 1"),
		"chunk:0:0":      []byte("a"),
		"chunk:0:1":      []byte("b"),
	}, data)
}

func TestRedisCacheWithoutColdStorage(t *testing.T) {
	ctx := context.Background()
	srv := startFakeRedis(t)

	rc, err := NewRedisCache(&CacheConfig{RedisURL: srv.addr(), WriteBehindEnabled: true}, nil)
	require.NoError(t, err)
	defer rc.Close()

	require.NoError(t, rc.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, rc.Delete(ctx, "k"))
	_, err = rc.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
