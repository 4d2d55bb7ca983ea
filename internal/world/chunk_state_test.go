package world

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

type fakeRenderer struct {
	mu       sync.Mutex
	uploads  map[vec.Vec2]int
	releases map[vec.Vec2]int
	err      error
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{uploads: make(map[vec.Vec2]int), releases: make(map[vec.Vec2]int)}
}

func (r *fakeRenderer) Upload(c *Chunk, _ []Face) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.uploads[c.Coords]++
	return nil
}

func (r *fakeRenderer) Release(c *Chunk) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releases[c.Coords]++
}

func TestBuildStateString(t *testing.T) {
	assert.Equal(t, "QueuedDayNight", BuildStateQueuedDayNight.String())
	assert.Equal(t, "VboDirty", BufferStateVboDirty.String())
	assert.True(t, BuildStateQueuedInitialFar.IsQueued())
	assert.False(t, BuildStateBuilding.IsQueued())
	assert.False(t, BuildStateNotLoaded.IsQueued())
}

func TestQueueImmediateDoesNotDuplicate(t *testing.T) {
	w := newTestWorld(t, testConfig(1, 1))
	c := w.Chunks().At(0, 0)
	q := &w.Scheduler().Changed

	c.QueueImmediate()
	assert.Equal(t, BuildStateNotLoaded, c.BuildState(), "выгруженный чанк в очередь не ставится")
	assert.Zero(t, q.Len())

	c.SetBuildState(BuildStateBuilt)
	c.QueueImmediate()
	c.QueueImmediate()
	assert.Equal(t, BuildStateQueued, c.BuildState())
	assert.Equal(t, 1, q.Count(c))

	c.SetBuildState(BuildStateQueued)
	assert.Equal(t, 2, q.Count(c), "явная смена состояния ставит в очередь повторно")
}

func TestSchedulerDrainPrefersChangedQueue(t *testing.T) {
	w := newTestWorld(t, testConfig(3, 1))
	cs := w.Chunks()
	cs.At(0, 0).SetBuildState(BuildStateQueuedFar)
	cs.At(1, 0).SetBuildState(BuildStateQueuedInitialFrustum)
	cs.At(2, 0).SetBuildState(BuildStateQueued)

	var order []vec.Vec2
	record := func(c *Chunk) { order = append(order, c.Coords) }

	assert.Equal(t, 2, w.Scheduler().Drain(2, record))
	assert.Equal(t, []vec.Vec2{{X: 2}, {X: 0}}, order)

	assert.Equal(t, 1, w.Scheduler().Drain(0, record))
	assert.Equal(t, 0, w.Scheduler().Drain(0, record))
	assert.Equal(t, []vec.Vec2{{X: 2}, {X: 0}, {X: 1}}, order)
}

func TestChunkQueueCompacts(t *testing.T) {
	w := newTestWorld(t, testConfig(1, 1))
	c := w.Chunks().At(0, 0)
	var q ChunkQueue

	for i := 0; i < 200; i++ {
		q.Push(c)
	}
	for i := 0; i < 150; i++ {
		_, ok := q.Pop()
		require.True(t, ok)
	}
	assert.Equal(t, 50, q.Len())
	assert.Equal(t, 50, q.Count(c))

	for q.Len() > 0 {
		q.Pop()
	}
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestChunkLifecycle(t *testing.T) {
	r := newFakeRenderer()
	w := newTestWorld(t, testConfig(1, 1), WithRenderer(r))
	fillFlat(w, 10, block.StoneBlockID)
	w.RebuildAllLightMaps()
	c := w.Chunks().At(0, 0)

	w.SetViewer(vec.NewCoords(16, 40, 16))
	w.Update(1.0 / 60)
	require.Equal(t, BuildStateQueuedFar, c.BuildState())
	assert.Equal(t, 1, w.Scheduler().Far.Len())

	assert.Equal(t, 1, w.Scheduler().Drain(w.Config().BuildBudget, BuildQueued))
	assert.Equal(t, BuildStateBuilt, c.BuildState())
	assert.Equal(t, BufferStateVboBuffered, c.BufferState())
	assert.NotEmpty(t, c.Faces())

	c.QueueImmediate()
	require.Equal(t, BuildStateQueued, c.BuildState())
	require.True(t, c.BuildData())
	assert.Equal(t, BuildStateBuilt, c.BuildState())
	assert.Equal(t, BufferStateVboDirty, c.BufferState(), "старый буфер устарел")

	w.Update(1.0 / 60)
	assert.Equal(t, BufferStateVboBuffered, c.BufferState())

	w.SetViewer(vec.NewCoords(1000, 40, 1000))
	w.Update(1.0 / 60)
	assert.Equal(t, BuildStateNotLoaded, c.BuildState())
	assert.Equal(t, BufferStateVboNotBuffered, c.BufferState())
	assert.Nil(t, c.Faces())
	assert.False(t, c.BuildData(), "выгруженный чанк не собирается")

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Equal(t, 2, r.uploads[c.Coords])
	assert.Equal(t, 1, r.releases[c.Coords])
}

func TestBufferDataReportsRendererError(t *testing.T) {
	r := newFakeRenderer()
	r.err = errors.New("нет видеопамяти")
	w := newTestWorld(t, testConfig(1, 1), WithRenderer(r))
	c := w.Chunks().At(0, 0)

	c.SetBuildState(BuildStateQueued)
	require.True(t, c.BuildData())
	assert.ErrorIs(t, c.BufferData(), r.err)
	assert.Equal(t, BufferStateVboNotBuffered, c.BufferState())
}

func TestBuildDataFacesOfLoneBlock(t *testing.T) {
	w := newTestWorld(t, testConfig(1, 1))
	c := w.Chunks().At(0, 0)
	w.PlaceBlock(pos(10, 50, 10), block.StoneBlockID, true)

	c.SetBuildState(BuildStateQueued)
	require.True(t, c.BuildData())

	faces := c.Faces()
	require.Len(t, faces, 6)
	sides := make(map[vec.Face]bool)
	for _, f := range faces {
		assert.Equal(t, pos(10, 50, 10), f.Position)
		assert.Equal(t, block.StoneBlockID, f.BlockID)
		sides[f.Side] = true
	}
	assert.Len(t, sides, 6)

	// общая грань двух одинаковых блоков не видна
	w.PlaceBlock(pos(11, 50, 10), block.StoneBlockID, true)
	c.SetBuildState(BuildStateQueued)
	require.True(t, c.BuildData())
	assert.Len(t, c.Faces(), 10)
}

func TestSetSunStrengthQueuesLoadedChunks(t *testing.T) {
	w := newTestWorld(t, testConfig(2, 1))
	loaded, unloaded := w.Chunks().At(0, 0), w.Chunks().At(1, 0)
	loaded.SetBuildState(BuildStateBuilt)

	w.SetSunStrength(BrightestSkylightStrength)
	assert.Equal(t, BuildStateBuilt, loaded.BuildState(), "сила солнца не изменилась")

	w.SetSunStrength(8)
	assert.EqualValues(t, 8, w.SunStrength())
	assert.Equal(t, BuildStateQueuedDayNight, loaded.BuildState())
	assert.Equal(t, BuildStateNotLoaded, unloaded.BuildState())
	assert.Equal(t, 1, w.Scheduler().Far.Len())

	w.SetSunStrength(40)
	assert.EqualValues(t, BrightestSkylightStrength, w.SunStrength())
}

func TestQueueInitialChunks(t *testing.T) {
	cfg := testConfig(8, 1)
	cfg.LoadDistance = 64
	cfg.UnloadDistance = 128
	w := newTestWorld(t, cfg)

	w.QueueInitialChunks(vec.NewCoords(16, 40, 16))

	cs := w.Chunks()
	assert.Equal(t, BuildStateQueuedInitialFrustum, cs.At(0, 0).BuildState())
	assert.Equal(t, BuildStateQueuedInitialFrustum, cs.At(2, 0).BuildState())
	assert.Equal(t, BuildStateQueuedInitialFar, cs.At(3, 0).BuildState())
	assert.Equal(t, BuildStateNotLoaded, cs.At(5, 0).BuildState())

	viewer, ok := w.Viewer()
	require.True(t, ok)
	assert.Equal(t, vec.NewCoords(16, 40, 16), viewer)
}
