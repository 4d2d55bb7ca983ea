package world

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/annel0/voxel-world/internal/observability"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/entity"
)

// LightTable переводит силу света 0..15 в яркость 0..255
var LightTable [MaxLightStrength + 1]byte

func init() {
	for i := range LightTable {
		LightTable[i] = byte(math.Round(255 * math.Pow(0.8, float64(MaxLightStrength-i))))
	}
}

// LightMaps карты неба и предметов на весь мир. Индекс ячейки
// (x*ChunkHeight + y)*sizeZ + z. Пишет только движок освещения.
type LightMaps struct {
	mu    sync.RWMutex
	sizeX int
	sizeZ int
	sky   []byte
	item  []byte
}

func newLightMaps(sizeX, sizeZ int) *LightMaps {
	n := sizeX * ChunkHeight * sizeZ
	return &LightMaps{
		sizeX: sizeX,
		sizeZ: sizeZ,
		sky:   make([]byte, n),
		item:  make([]byte, n),
	}
}

func (lm *LightMaps) index(x, y, z int) int {
	return (x*ChunkHeight+y)*lm.sizeZ + z
}

// SkyLight возвращает силу небесного света в ячейке
func (w *World) SkyLight(pos vec.Position) byte {
	w.light.mu.RLock()
	defer w.light.mu.RUnlock()
	return w.light.sky[w.light.index(pos.X, pos.Y, pos.Z)]
}

// ItemLight возвращает силу света от предметов в ячейке
func (w *World) ItemLight(pos vec.Position) byte {
	w.light.mu.RLock()
	defer w.light.mu.RUnlock()
	return w.light.item[w.light.index(pos.X, pos.Y, pos.Z)]
}

// GetBlockLightStrength возвращает итоговую силу света 0..15 с учётом
// времени суток. За пределами мира полный солнечный свет.
func (w *World) GetBlockLightStrength(pos vec.Position) byte {
	sun := int(w.SunStrength())
	if !w.IsValidBlockLocation(pos) {
		return byte(sun)
	}

	w.light.mu.RLock()
	i := w.light.index(pos.X, pos.Y, pos.Z)
	sky := int(w.light.sky[i]) - (BrightestSkylightStrength - sun)
	item := int(w.light.item[i])
	w.light.mu.RUnlock()

	return byte(max(sky, item, 0))
}

// GetBlockLightColor возвращает яркость 0..255 ячейки по таблице света
func (w *World) GetBlockLightColor(pos vec.Position) byte {
	return LightTable[w.GetBlockLightStrength(pos)]
}

// lightRegion прямоугольная область мира на всю высоту, в которой
// выполняется заливка света. Координаты внутри области локальные.
type lightRegion struct {
	x0, z0      int // мировое смещение
	sx, sz      int
	transparent []bool
	sky         []byte
	item        []byte
}

// lightQueue очередь заливки, разбитая по уровням силы света
type lightQueue [MaxLightStrength + 1][]int32

func newLightRegion(x0, z0, sx, sz int) *lightRegion {
	n := sx * ChunkHeight * sz
	return &lightRegion{
		x0:          x0,
		z0:          z0,
		sx:          sx,
		sz:          sz,
		transparent: make([]bool, n),
		sky:         make([]byte, n),
		item:        make([]byte, n),
	}
}

func (r *lightRegion) index(x, y, z int) int {
	return (x*ChunkHeight+y)*r.sz + z
}

// seed поднимает свет ячейки до v, если он ниже, и ставит её в очередь
func (r *lightRegion) seed(ch []byte, q *lightQueue, idx int, v byte) {
	if v == 0 || !r.transparent[idx] || ch[idx] >= v {
		return
	}
	ch[idx] = v
	q[v] = append(q[v], int32(idx))
}

// seedSkyColumns заливает полным небесным светом всё, что выше самого
// верхнего непрозрачного блока каждого столбца
func (r *lightRegion) seedSkyColumns(q *lightQueue, height func(x, z int) int) {
	for x := 0; x < r.sx; x++ {
		for z := 0; z < r.sz; z++ {
			for y := height(x, z) + 1; y < ChunkHeight; y++ {
				r.seed(r.sky, q, r.index(x, y, z), BrightestSkylightStrength)
			}
		}
	}
}

// seedLightSources ставит в очередь источники света, попадающие в область
func (r *lightRegion) seedLightSources(q *lightQueue, sources []*entity.LightSource) {
	for _, ls := range sources {
		p := ls.BlockPosition()
		x, z := p.X-r.x0, p.Z-r.z0
		if x < 0 || x >= r.sx || z < 0 || z >= r.sz || p.Y < 0 || p.Y >= ChunkHeight {
			continue
		}
		r.seed(r.item, q, r.index(x, p.Y, z), ls.Strength())
	}
}

// heightFromTransparency вычисляет высоту столбца по снимку прозрачности
func (r *lightRegion) heightFromTransparency(x, z int) int {
	for y := ChunkHeight - 1; y > 0; y-- {
		if !r.transparent[r.index(x, y, z)] {
			return y
		}
	}
	return 0
}

// propagate распространяет свет от ячеек в очереди: каждый шаг
// ослабляет свет на 1, непрозрачные ячейки свет не пропускают
func (r *lightRegion) propagate(ch []byte, q *lightQueue) {
	strideX := ChunkHeight * r.sz
	strideY := r.sz

	for level := MaxLightStrength; level > 1; level-- {
		next := byte(level - 1)
		for i := 0; i < len(q[level]); i++ {
			idx := int(q[level][i])
			if ch[idx] != byte(level) {
				continue
			}
			z := idx % r.sz
			y := (idx / r.sz) % ChunkHeight
			x := idx / strideX

			if x+1 < r.sx {
				r.seed(ch, q, idx+strideX, next)
			}
			if x > 0 {
				r.seed(ch, q, idx-strideX, next)
			}
			if y+1 < ChunkHeight {
				r.seed(ch, q, idx+strideY, next)
			}
			if y > 0 {
				r.seed(ch, q, idx-strideY, next)
			}
			if z+1 < r.sz {
				r.seed(ch, q, idx+1, next)
			}
			if z > 0 {
				r.seed(ch, q, idx-1, next)
			}
		}
		q[level] = q[level][:0]
	}
	q[1] = q[1][:0]
}

// fillTransparency заполняет снимок прозрачности из блоков мира
func (w *World) fillTransparency(r *lightRegion) {
	for x := 0; x < r.sx; x++ {
		wx := r.x0 + x
		for z := 0; z < r.sz; z++ {
			wz := r.z0 + z
			c := w.chunks.At(wx/ChunkSize, wz/ChunkSize)
			lx, lz := wx%ChunkSize, wz%ChunkSize
			c.mu.RLock()
			for y := 0; y < ChunkHeight; y++ {
				r.transparent[r.index(x, y, z)] = c.blocks.Get(lx, y, lz).IsTransparent()
			}
			c.mu.RUnlock()
		}
	}
}

// chunkRegion создаёт область света, совпадающую с чанком
func (w *World) chunkRegion(c *Chunk) *lightRegion {
	origin := c.WorldOrigin()
	r := newLightRegion(origin.X, origin.Z, ChunkSize, ChunkSize)
	w.fillTransparency(r)
	return r
}

// initializeChunkLight первая фаза: свет чанка без учёта соседей
func (w *World) initializeChunkLight(c *Chunk) {
	r := w.chunkRegion(c)
	var q lightQueue

	c.mu.RLock()
	heights := c.heightMap
	c.mu.RUnlock()

	r.seedSkyColumns(&q, func(x, z int) int { return heights[x][z] })
	r.propagate(r.sky, &q)
	r.seedLightSources(&q, c.LightSources())
	r.propagate(r.item, &q)

	c.skyLightMapInitial = r.sky
	c.itemLightMapInitial = r.item
}

// pullCrossChunkLight вторая фаза: затягивает свет через границы
// из начальных карт соседей и пишет результат в карты мира.
// Вызывается под w.light.mu; чанки пишут в непересекающиеся области.
func (w *World) pullCrossChunkLight(c *Chunk) {
	r := w.chunkRegion(c)
	copy(r.sky, c.skyLightMapInitial)
	copy(r.item, c.itemLightMapInitial)

	var skyQ, itemQ lightQueue
	pull := func(n *Chunk, x, z, nx, nz int) {
		for y := 0; y < ChunkHeight; y++ {
			i := r.index(x, y, z)
			ni := gridIndex(nx, y, nz)
			if v := n.skyLightMapInitial[ni]; v > 1 {
				r.seed(r.sky, &skyQ, i, v-1)
			}
			if v := n.itemLightMapInitial[ni]; v > 1 {
				r.seed(r.item, &itemQ, i, v-1)
			}
		}
	}

	if n, ok := w.chunks.Get(vec.Vec2{X: c.Coords.X - 1, Z: c.Coords.Z}); ok {
		for z := 0; z < ChunkSize; z++ {
			pull(n, 0, z, ChunkSize-1, z)
		}
	}
	if n, ok := w.chunks.Get(vec.Vec2{X: c.Coords.X + 1, Z: c.Coords.Z}); ok {
		for z := 0; z < ChunkSize; z++ {
			pull(n, ChunkSize-1, z, 0, z)
		}
	}
	if n, ok := w.chunks.Get(vec.Vec2{X: c.Coords.X, Z: c.Coords.Z - 1}); ok {
		for x := 0; x < ChunkSize; x++ {
			pull(n, x, 0, x, ChunkSize-1)
		}
	}
	if n, ok := w.chunks.Get(vec.Vec2{X: c.Coords.X, Z: c.Coords.Z + 1}); ok {
		for x := 0; x < ChunkSize; x++ {
			pull(n, x, ChunkSize-1, x, 0)
		}
	}
	r.propagate(r.sky, &skyQ)
	r.propagate(r.item, &itemQ)

	w.writeRegion(r, nil)
}

// writeRegion копирует область в карты мира. Вызывается под w.light.mu.
// Если changed не nil, в него добавляются чанки с изменившимся светом.
func (w *World) writeRegion(r *lightRegion, changed map[vec.Vec2]struct{}) {
	lm := w.light
	for x := 0; x < r.sx; x++ {
		for z := 0; z < r.sz; z++ {
			var columnChanged bool
			for y := 0; y < ChunkHeight; y++ {
				i := r.index(x, y, z)
				wi := lm.index(r.x0+x, y, r.z0+z)
				if lm.sky[wi] != r.sky[i] || lm.item[wi] != r.item[i] {
					lm.sky[wi] = r.sky[i]
					lm.item[wi] = r.item[i]
					columnChanged = true
				}
			}
			if columnChanged && changed != nil {
				changed[vec.Vec2{X: (r.x0 + x) / ChunkSize, Z: (r.z0 + z) / ChunkSize}] = struct{}{}
			}
		}
	}
}

// InitializeAllLightMaps строит карты света при загрузке мира в две
// параллельные фазы с барьером между ними, затем освобождает временные карты чанков
func (w *World) InitializeAllLightMaps(ctx context.Context) (err error) {
	ctx, span := observability.StartSpan(ctx, "world.InitializeAllLightMaps",
		attribute.Int("chunks", w.sizeInChunksX*w.sizeInChunksZ))
	defer func() { observability.EndSpan(span, err) }()

	start := time.Now()
	chunks := w.chunks.All()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.LightWorkers)
	for _, c := range chunks {
		c := c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			w.initializeChunkLight(c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("ошибка построения начального света: %w", err)
	}

	w.light.mu.Lock()
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.LightWorkers)
	for _, c := range chunks {
		c := c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			w.pullCrossChunkLight(c)
			return nil
		})
	}
	err = g.Wait()
	w.light.mu.Unlock()
	if err != nil {
		return fmt.Errorf("ошибка переноса света между чанками: %w", err)
	}

	w.chunks.ClearInitialLightMaps()
	w.lightLog.Info("💡 Начальный свет построен для %d чанков за %v", len(chunks), time.Since(start))
	return nil
}

// RebuildAllLightMaps точно пересчитывает свет всего мира одной заливкой
func (w *World) RebuildAllLightMaps() {
	w.lightTaskMu.Lock()
	defer w.lightTaskMu.Unlock()

	r := newLightRegion(0, 0, w.sizeX, w.sizeZ)
	w.fillTransparency(r)

	var q lightQueue
	r.seedSkyColumns(&q, w.GetHeightMapLevel)
	r.propagate(r.sky, &q)

	var sources []*entity.LightSource
	for _, c := range w.chunks.All() {
		sources = append(sources, c.LightSources()...)
	}
	r.seedLightSources(&q, sources)
	r.propagate(r.item, &q)

	w.light.mu.Lock()
	w.writeRegion(r, nil)
	w.light.mu.Unlock()
}

// UpdateLightBox пересчитывает свет в области вокруг изменённых ячеек
// p1..p2, расширенной на радиус света по X и Z и занимающей всю высоту.
// Свет ячеек выводится заново (и осветление, и затемнение) из столбцов
// неба, источников внутри области и значений сразу за её границей.
// Возвращает чанки, свет которых изменился.
func (w *World) UpdateLightBox(p1, p2 vec.Position) []*Chunk {
	start := time.Now()
	w.lightTaskMu.Lock()
	defer w.lightTaskMu.Unlock()

	lo, hi := vec.Min(p1, p2), vec.Max(p1, p2)
	x0 := max(0, lo.X-LightBoxPadding)
	x1 := min(w.sizeX-1, hi.X+LightBoxPadding)
	z0 := max(0, lo.Z-LightBoxPadding)
	z1 := min(w.sizeZ-1, hi.Z+LightBoxPadding)

	r := newLightRegion(x0, z0, x1-x0+1, z1-z0+1)
	w.fillTransparency(r)

	var skyQ, itemQ lightQueue
	r.seedSkyColumns(&skyQ, r.heightFromTransparency)

	var sources []*entity.LightSource
	for cx := x0 / ChunkSize; cx <= x1/ChunkSize; cx++ {
		for cz := z0 / ChunkSize; cz <= z1/ChunkSize; cz++ {
			sources = append(sources, w.chunks.At(cx, cz).LightSources()...)
		}
	}
	r.seedLightSources(&itemQ, sources)

	w.light.mu.RLock()
	w.seedFromBoundary(r, &skyQ, &itemQ)
	w.light.mu.RUnlock()

	r.propagate(r.sky, &skyQ)
	r.propagate(r.item, &itemQ)

	changed := make(map[vec.Vec2]struct{})
	w.light.mu.Lock()
	w.writeRegion(r, changed)
	w.light.mu.Unlock()

	out := make([]*Chunk, 0, len(changed))
	for cx := x0 / ChunkSize; cx <= x1/ChunkSize; cx++ {
		for cz := z0 / ChunkSize; cz <= z1/ChunkSize; cz++ {
			if _, ok := changed[vec.Vec2{X: cx, Z: cz}]; ok {
				out = append(out, w.chunks.At(cx, cz))
			}
		}
	}

	lightBoxDuration.Observe(time.Since(start).Seconds())
	lightBoxChunks.Observe(float64(len(out)))
	return out
}

// seedFromBoundary ставит в очередь свет, входящий в область от соседних
// ячеек за её границей по X и Z. Вызывается под w.light.mu.RLock.
func (w *World) seedFromBoundary(r *lightRegion, skyQ, itemQ *lightQueue) {
	lm := w.light
	pull := func(x, z, wx, wz int) {
		for y := 0; y < ChunkHeight; y++ {
			i := r.index(x, y, z)
			wi := lm.index(wx, y, wz)
			if v := lm.sky[wi]; v > 1 {
				r.seed(r.sky, skyQ, i, v-1)
			}
			if v := lm.item[wi]; v > 1 {
				r.seed(r.item, itemQ, i, v-1)
			}
		}
	}

	if r.x0 > 0 {
		for z := 0; z < r.sz; z++ {
			pull(0, z, r.x0-1, r.z0+z)
		}
	}
	if r.x0+r.sx < w.sizeX {
		for z := 0; z < r.sz; z++ {
			pull(r.sx-1, z, r.x0+r.sx, r.z0+z)
		}
	}
	if r.z0 > 0 {
		for x := 0; x < r.sx; x++ {
			pull(x, 0, r.x0+x, r.z0-1)
		}
	}
	if r.z0+r.sz < w.sizeZ {
		for x := 0; x < r.sx; x++ {
			pull(x, r.sz-1, r.x0+x, r.z0+r.sz)
		}
	}
}

// updateLightBoxAsync запускает пересчёт области света в фоне; по
// завершении ставит в очередь обязательные чанки и чанки с изменившимся светом
func (w *World) updateLightBoxAsync(p1, p2 vec.Position, mustQueue []*Chunk) {
	w.lightTasks.Add(1)
	go func() {
		defer w.lightTasks.Done()
		changed := w.UpdateLightBox(p1, p2)
		w.QueueAffectedChunks(mergeChunks(mustQueue, changed))
		w.publishLightUpdated(p1, p2, len(changed))
	}()
}

// WaitLighting ждёт завершения всех фоновых пересчётов света
func (w *World) WaitLighting() {
	w.lightTasks.Wait()
}

// mergeChunks объединяет списки чанков без повторов, сохраняя порядок
func mergeChunks(lists ...[]*Chunk) []*Chunk {
	seen := make(map[*Chunk]struct{})
	var out []*Chunk
	for _, list := range lists {
		for _, c := range list {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
