package world

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	blocksPlaced = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voxel",
		Subsystem: "world",
		Name:      "blocks_placed_total",
		Help:      "Установленные блоки по типу.",
	}, []string{"block"})

	lightBoxDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "voxel",
		Subsystem: "lighting",
		Name:      "light_box_duration_seconds",
		Help:      "Длительность пересчёта области света.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	})

	lightBoxChunks = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "voxel",
		Subsystem: "lighting",
		Name:      "light_box_changed_chunks",
		Help:      "Число чанков, свет которых изменился после пересчёта области.",
		Buckets:   []float64{0, 1, 2, 3, 4, 6, 9},
	})

	queueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "voxel",
		Subsystem: "scheduler",
		Name:      "queue_depth",
		Help:      "Число чанков в очередях сборки.",
	}, []string{"queue"})

	chunksBuilt = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "voxel",
		Subsystem: "scheduler",
		Name:      "chunks_built_total",
		Help:      "Собранные чанки.",
	})
)

func init() {
	prometheus.MustRegister(blocksPlaced, lightBoxDuration, lightBoxChunks, queueDepth, chunksBuilt)
}
