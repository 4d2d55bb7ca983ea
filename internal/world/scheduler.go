package world

import (
	"sync"
)

// ChunkQueue неограниченная FIFO-очередь чанков, безопасная для
// конкурентной записи. Повторная постановка одного чанка допустима.
type ChunkQueue struct {
	mu    sync.Mutex
	items []*Chunk
	head  int
}

// Push добавляет чанк в конец очереди
func (q *ChunkQueue) Push(c *Chunk) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, c)
}

// Pop извлекает чанк из начала очереди
func (q *ChunkQueue) Pop() (*Chunk, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.items) {
		return nil, false
	}
	c := q.items[q.head]
	q.items[q.head] = nil
	q.head++

	// сжимаем, когда прочитана большая часть буфера
	if q.head > 64 && q.head*2 >= len(q.items) {
		q.items = append(q.items[:0], q.items[q.head:]...)
		q.head = 0
	}
	return c, true
}

// Len возвращает число чанков в очереди
func (q *ChunkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Count возвращает, сколько раз чанк стоит в очереди
func (q *ChunkQueue) Count(c *Chunk) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, item := range q.items[q.head:] {
		if item == c {
			n++
		}
	}
	return n
}

// Scheduler очереди сборки: изменённые (приоритетная) и дальние
type Scheduler struct {
	Changed ChunkQueue
	Far     ChunkQueue
}

// NewScheduler создаёт пустой планировщик
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Next возвращает следующий чанк: сначала из очереди изменённых, затем из дальней
func (s *Scheduler) Next() (*Chunk, bool) {
	if c, ok := s.Changed.Pop(); ok {
		return c, true
	}
	return s.Far.Pop()
}

// Drain извлекает до budget чанков (budget <= 0 без ограничения) и передаёт
// каждый в build. Возвращает число извлечённых чанков.
func (s *Scheduler) Drain(budget int, build func(*Chunk)) int {
	n := 0
	for budget <= 0 || n < budget {
		c, ok := s.Next()
		if !ok {
			break
		}
		build(c)
		n++
	}
	queueDepth.WithLabelValues("changed").Set(float64(s.Changed.Len()))
	queueDepth.WithLabelValues("far").Set(float64(s.Far.Len()))
	return n
}

// BuildQueued потребитель по умолчанию для сервера без отрисовки:
// собирает геометрию и сразу помечает буфер загруженным
func BuildQueued(c *Chunk) {
	if !c.BuildData() {
		return
	}
	if err := c.BufferData(); err != nil {
		c.world.log.Warn("⚠️ %v", err)
	}
}
