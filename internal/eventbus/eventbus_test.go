package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	ev, err := NewEnvelope(EventBlockChanged, "test", PriorityNormal, BlockChanged{X: 1, Y: 2, Z: 3, OldID: 0, NewID: 6})
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, EventBlockChanged, ev.EventType)
	assert.Equal(t, 1, ev.Version)

	var payload BlockChanged
	require.NoError(t, ev.Decode(&payload))
	assert.Equal(t, BlockChanged{X: 1, Y: 2, Z: 3, NewID: 6}, payload)

	other, err := NewEnvelope(EventBlockChanged, "test", PriorityNormal, BlockChanged{})
	require.NoError(t, err)
	assert.NotEqual(t, ev.ID, other.ID)
}

func TestMemoryBusDeliversMatchingEvents(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	got := make(chan *Envelope, 4)
	_, err := bus.Subscribe(context.Background(), Filter{Types: []string{EventLightUpdated}}, func(ctx context.Context, ev *Envelope) {
		got <- ev
	})
	require.NoError(t, err)

	block, _ := NewEnvelope(EventBlockChanged, "test", PriorityNormal, BlockChanged{})
	light, _ := NewEnvelope(EventLightUpdated, "test", PriorityNormal, LightUpdated{ChangedChunks: 2})
	require.NoError(t, bus.Publish(context.Background(), block))
	require.NoError(t, bus.Publish(context.Background(), light))

	select {
	case ev := <-got:
		assert.Equal(t, light.ID, ev.ID)
	case <-time.After(time.Second):
		t.Fatal("событие не доставлено")
	}

	select {
	case ev := <-got:
		t.Fatalf("лишнее событие %s", ev.EventType)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBusUnsubscribe(t *testing.T) {
	bus := NewMemoryBus(4)
	defer bus.Close()

	got := make(chan struct{}, 1)
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		got <- struct{}{}
	})
	require.NoError(t, err)
	sub.Unsubscribe()

	ev, _ := NewEnvelope(EventChunkRebuilt, "test", PriorityNormal, ChunkRebuilt{})
	require.NoError(t, bus.Publish(context.Background(), ev))

	select {
	case <-got:
		t.Fatal("отписанный обработчик получил событие")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBusClosed(t *testing.T) {
	bus := NewMemoryBus(1)
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	ev, _ := NewEnvelope(EventChunkRebuilt, "test", PriorityLow, ChunkRebuilt{})
	assert.ErrorIs(t, bus.Publish(context.Background(), ev), ErrBusClosed)
}

func TestMatchFilter(t *testing.T) {
	ev := &Envelope{EventType: EventBlockChanged, Source: "a"}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"пустой фильтр", Filter{}, true},
		{"тип совпал", Filter{Types: []string{EventBlockChanged}}, true},
		{"тип не совпал", Filter{Types: []string{EventLightUpdated}}, false},
		{"источник не совпал", Filter{Sources: []string{"b"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchFilter(ev, tt.filter))
		})
	}
}

func TestSubjectFor(t *testing.T) {
	assert.Equal(t, "world.block_changed", subjectFor(EventBlockChanged))
	assert.Equal(t, "world.light_updated", subjectFor(EventLightUpdated))
}

type fixedStats struct {
	EventBus
	stats Stats
}

func (f fixedStats) Metrics() Stats { return f.stats }

func TestMetricsExporterCollect(t *testing.T) {
	reg := prometheus.NewRegistry()
	me := NewMetricsExporter(fixedStats{stats: Stats{Published: 5, Consumed: 3, Dropped: 1, InFlight: 2}}, reg)

	prev := me.collect(Stats{})
	assert.Equal(t, uint64(5), prev.Published)
	assert.Equal(t, 5.0, testutil.ToFloat64(me.published))
	assert.Equal(t, 3.0, testutil.ToFloat64(me.consumed))
	assert.Equal(t, 1.0, testutil.ToFloat64(me.dropped))
	assert.Equal(t, 2.0, testutil.ToFloat64(me.inflight))

	me.collect(prev)
	assert.Equal(t, 5.0, testutil.ToFloat64(me.published))
}
