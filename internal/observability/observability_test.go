package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpanRecordsError(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, saved := StartSpan(context.Background(), "world.save", attribute.Int("chunks", 4))
	EndSpan(saved, nil)
	_, failed := StartSpan(context.Background(), "world.load")
	EndSpan(failed, errors.New("нет данных"))

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "world.save", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.Int("chunks", 4))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "нет данных", spans[1].Status().Description)
}

func TestProcessCollectorSample(t *testing.T) {
	reg := prometheus.NewRegistry()
	pc, err := NewProcessCollector(reg)
	require.NoError(t, err)

	require.NoError(t, pc.Sample())
	assert.Greater(t, testutil.ToFloat64(pc.rssBytes), 0.0)
	assert.Greater(t, testutil.ToFloat64(pc.heapBytes), 0.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(pc.goroutines), 1.0)

	pc.Start(time.Hour)
	pc.Stop()
}
