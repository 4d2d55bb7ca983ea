package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/annel0/voxel-world/internal/eventbus"
)

const (
	defaultNatsURL = "nats://localhost:4222"
	defaultStream  = "WORLD_EVENTS"
	timeFormat     = "15:04:05"
)

func main() {
	var (
		natsURL    = flag.String("url", envOr("NATS_URL", defaultNatsURL), "NATS server URL")
		stream     = flag.String("stream", defaultStream, "JetStream stream name")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		sources    = flag.String("sources", "", "Source worlds filter (comma-separated)")
		limit      = flag.Int("limit", 100, "Maximum number of events")
		follow     = flag.Bool("follow", false, "Follow new events (like tail -f)")
	)
	flag.Parse()

	bus, err := eventbus.NewJetStreamBus(*natsURL, *stream, 0)
	if err != nil {
		log.Fatalf("❌ Failed to connect to NATS: %v", err)
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := &TailOptions{
		Filter: eventbus.Filter{
			Types:   parseStringList(*eventTypes),
			Sources: parseStringList(*sources),
		},
		Limit:  *limit,
		Follow: *follow,
	}
	if err := tailEvents(ctx, bus, opts); err != nil {
		log.Fatalf("❌ Tail failed: %v", err)
	}
}

type TailOptions struct {
	Filter eventbus.Filter
	Limit  int
	Follow bool
}

// tailEvents выводит события шины, пока не наберётся Limit или не придёт сигнал
func tailEvents(ctx context.Context, bus eventbus.EventBus, opts *TailOptions) error {
	fmt.Printf("🎬 Tailing events (limit: %d, follow: %v)\n", opts.Limit, opts.Follow)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var count atomic.Int64
	sub, err := bus.Subscribe(ctx, opts.Filter, func(_ context.Context, ev *eventbus.Envelope) {
		n := count.Add(1)
		if !opts.Follow && opts.Limit > 0 && n > int64(opts.Limit) {
			cancel()
			return
		}
		printEvent(ev)
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	if opts.Follow {
		<-ctx.Done()
	} else {
		// без -follow ждём, пока поток затихнет
		idle := time.NewTicker(time.Second)
		defer idle.Stop()
		last := int64(-1)
		for last != count.Load() {
			last = count.Load()
			select {
			case <-ctx.Done():
				last = count.Load()
			case <-idle.C:
			}
		}
	}

	fmt.Printf("📊 Received %d events\n", min(count.Load(), int64(opts.Limit)))
	return nil
}

// printEvent выводит событие в читаемом формате
func printEvent(ev *eventbus.Envelope) {
	fmt.Printf("[%s] %s [%s] %s\n",
		ev.Timestamp.Local().Format(timeFormat),
		ev.Source,
		ev.EventType,
		ev.ID)

	// Добавляем детали в зависимости от типа события
	switch ev.EventType {
	case eventbus.EventBlockChanged:
		var p eventbus.BlockChanged
		if err := ev.Decode(&p); err == nil {
			fmt.Printf("  Block: (%d,%d,%d) %d -> %d\n", p.X, p.Y, p.Z, p.OldID, p.NewID)
		}
	case eventbus.EventChunkRebuilt:
		var p eventbus.ChunkRebuilt
		if err := ev.Decode(&p); err == nil {
			fmt.Printf("  Chunk: (%d,%d) Faces: %d\n", p.ChunkX, p.ChunkZ, p.Faces)
		}
	case eventbus.EventLightUpdated:
		var p eventbus.LightUpdated
		if err := ev.Decode(&p); err == nil {
			fmt.Printf("  Light: (%d,%d,%d)-(%d,%d,%d) Chunks: %d\n",
				p.MinX, p.MinY, p.MinZ, p.MaxX, p.MaxY, p.MaxZ, p.ChangedChunks)
		}
	}
}

// parseStringList парсит строку с разделителями-запятыми
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
