package world

import "fmt"

// BuildState состояние геометрии чанка
type BuildState uint8

const (
	BuildStateNotLoaded BuildState = iota
	BuildStateQueued
	BuildStateQueuedFar
	BuildStateQueuedDayNight
	BuildStateQueuedInitialFrustum
	BuildStateQueuedInitialFar
	BuildStateBuilding
	BuildStateBuilt
)

// String возвращает имя состояния
func (s BuildState) String() string {
	switch s {
	case BuildStateNotLoaded:
		return "NotLoaded"
	case BuildStateQueued:
		return "Queued"
	case BuildStateQueuedFar:
		return "QueuedFar"
	case BuildStateQueuedDayNight:
		return "QueuedDayNight"
	case BuildStateQueuedInitialFrustum:
		return "QueuedInitialFrustum"
	case BuildStateQueuedInitialFar:
		return "QueuedInitialFar"
	case BuildStateBuilding:
		return "Building"
	case BuildStateBuilt:
		return "Built"
	}
	return fmt.Sprintf("BuildState(%d)", uint8(s))
}

// IsQueued проверяет, ждёт ли чанк сборки
func (s BuildState) IsQueued() bool {
	return s >= BuildStateQueued && s <= BuildStateQueuedInitialFar
}

// BufferState состояние загрузки геометрии в видеопамять
type BufferState uint8

const (
	BufferStateVboNotBuffered BufferState = iota
	BufferStateVboDirty
	BufferStateVboBuffered
)

// String возвращает имя состояния
func (s BufferState) String() string {
	switch s {
	case BufferStateVboNotBuffered:
		return "VboNotBuffered"
	case BufferStateVboDirty:
		return "VboDirty"
	case BufferStateVboBuffered:
		return "VboBuffered"
	}
	return fmt.Sprintf("BufferState(%d)", uint8(s))
}

// BuildState возвращает текущее состояние сборки
func (c *Chunk) BuildState() BuildState {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.buildState
}

// BufferState возвращает текущее состояние буфера
func (c *Chunk) BufferState() BufferState {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.bufferState
}

// SetBuildState единственная точка смены состояния сборки.
// Вместе с состоянием выполняются его побочные эффекты: постановка в очередь
// планировщика, пометка буфера устаревшим, освобождение ресурсов отрисовки.
func (c *Chunk) SetBuildState(s BuildState) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.setBuildStateLocked(s)
}

func (c *Chunk) setBuildStateLocked(s BuildState) {
	c.buildState = s

	switch s {
	case BuildStateNotLoaded:
		c.bufferState = BufferStateVboNotBuffered
		c.unloadDataLocked()
	case BuildStateQueued:
		c.world.scheduler.Changed.Push(c)
	case BuildStateQueuedFar, BuildStateQueuedDayNight, BuildStateQueuedInitialFrustum, BuildStateQueuedInitialFar:
		c.world.scheduler.Far.Push(c)
	case BuildStateBuilt:
		if c.bufferState == BufferStateVboBuffered {
			c.bufferState = BufferStateVboDirty
		}
	}
	queueDepth.WithLabelValues("changed").Set(float64(c.world.scheduler.Changed.Len()))
	queueDepth.WithLabelValues("far").Set(float64(c.world.scheduler.Far.Len()))
}

// QueueImmediate ставит чанк в очередь изменённых, если он загружен и ещё не стоит в ней
func (c *Chunk) QueueImmediate() {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if c.buildState == BuildStateNotLoaded || c.buildState == BuildStateQueued {
		return
	}
	c.setBuildStateLocked(BuildStateQueued)
}

// compareAndSetBuildState меняет состояние, только если текущее равно expected
func (c *Chunk) compareAndSetBuildState(expected, s BuildState) bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if c.buildState != expected {
		return false
	}
	c.setBuildStateLocked(s)
	return true
}
