package observability

import (
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/annel0/voxel-world/internal/logging"
)

// ProcessCollector периодически снимает загрузку CPU и память процесса
// сервера и публикует их в Prometheus.
type ProcessCollector struct {
	proc      *process.Process
	startTime time.Time
	quit      chan struct{}
	done      chan struct{}

	cpuPercent prometheus.Gauge
	rssBytes   prometheus.Gauge
	heapBytes  prometheus.Gauge
	goroutines prometheus.Gauge
	uptime     prometheus.Gauge
}

// NewProcessCollector создаёт сборщик для текущего процесса.
// Если reg == nil, используется глобальный регистр.
func NewProcessCollector(reg prometheus.Registerer) (*ProcessCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}

	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Subsystem: "server",
			Name:      name,
			Help:      help,
		})
	}
	pc := &ProcessCollector{
		proc:       proc,
		startTime:  time.Now(),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		cpuPercent: gauge("cpu_percent", "Загрузка CPU процессом в процентах."),
		rssBytes:   gauge("rss_bytes", "Резидентная память процесса."),
		heapBytes:  gauge("heap_alloc_bytes", "Занятая куча Go."),
		goroutines: gauge("goroutines", "Число горутин."),
		uptime:     gauge("uptime_seconds", "Время работы сервера."),
	}
	reg.MustRegister(pc.cpuPercent, pc.rssBytes, pc.heapBytes, pc.goroutines, pc.uptime)
	return pc, nil
}

// Sample один раз обновляет все метрики
func (pc *ProcessCollector) Sample() error {
	cpuPercent, err := pc.proc.CPUPercent()
	if err != nil {
		// Если не удалось получить метрику процесса, попробуем системную
		cpuPercents, sysErr := cpu.Percent(100*time.Millisecond, false)
		if sysErr != nil || len(cpuPercents) == 0 {
			return err
		}
		cpuPercent = cpuPercents[0]
	}
	pc.cpuPercent.Set(cpuPercent)

	mem, err := pc.proc.MemoryInfo()
	if err != nil {
		return err
	}
	pc.rssBytes.Set(float64(mem.RSS))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	pc.heapBytes.Set(float64(m.HeapAlloc))
	pc.goroutines.Set(float64(runtime.NumGoroutine()))
	pc.uptime.Set(time.Since(pc.startTime).Seconds())
	return nil
}

// Start запускает цикл обновления метрик с заданным интервалом
func (pc *ProcessCollector) Start(interval time.Duration) {
	go func() {
		defer close(pc.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		log := logging.GetServerLogger()
		for {
			if err := pc.Sample(); err != nil {
				log.Debug("Не удалось снять метрики процесса: %v", err)
			}
			select {
			case <-pc.quit:
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop останавливает цикл, запущенный Start
func (pc *ProcessCollector) Stop() {
	close(pc.quit)
	<-pc.done
}
