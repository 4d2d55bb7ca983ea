package world

import (
	"github.com/annel0/voxel-world/internal/vec"
)

// Chunks двумерная сетка чанков мира
type Chunks struct {
	world  *World
	sizeX  int
	sizeZ  int
	chunks [][]*Chunk // [x][z]
}

func newChunks(w *World) *Chunks {
	cs := &Chunks{
		world:  w,
		sizeX:  w.sizeInChunksX,
		sizeZ:  w.sizeInChunksZ,
		chunks: make([][]*Chunk, w.sizeInChunksX),
	}
	for x := 0; x < cs.sizeX; x++ {
		cs.chunks[x] = make([]*Chunk, cs.sizeZ)
		for z := 0; z < cs.sizeZ; z++ {
			cs.chunks[x][z] = newChunk(w, vec.Vec2{X: x, Z: z}, w.randIntn(w.grassTicks))
		}
	}
	return cs
}

// At возвращает чанк по координатам в сетке
func (cs *Chunks) At(x, z int) *Chunk {
	return cs.chunks[x][z]
}

// Get возвращает чанк по координатам в сетке, если он существует
func (cs *Chunks) Get(coords vec.Vec2) (*Chunk, bool) {
	if coords.X < 0 || coords.X >= cs.sizeX || coords.Z < 0 || coords.Z >= cs.sizeZ {
		return nil, false
	}
	return cs.chunks[coords.X][coords.Z], true
}

// ByPosition возвращает чанк, содержащий позицию блока.
// Позиция должна быть внутри мира.
func (cs *Chunks) ByPosition(pos vec.Position) *Chunk {
	return cs.chunks[pos.X/ChunkSize][pos.Z/ChunkSize]
}

// ByCoords возвращает чанк, содержащий точку, если она внутри мира
func (cs *Chunks) ByCoords(c vec.Coords) (*Chunk, bool) {
	pos := c.ToPosition()
	if pos.X < 0 || pos.Z < 0 {
		return nil, false
	}
	return cs.Get(pos.ChunkCoords())
}

// All возвращает все чанки в порядке x внешний, z внутренний
func (cs *Chunks) All() []*Chunk {
	out := make([]*Chunk, 0, cs.sizeX*cs.sizeZ)
	for x := 0; x < cs.sizeX; x++ {
		out = append(out, cs.chunks[x]...)
	}
	return out
}

// BorderChunks возвращает соседние чанки, с которыми столбец позиции
// делит границу (ноль, один или два чанка по X и Z)
func (cs *Chunks) BorderChunks(pos vec.Position) []*Chunk {
	var out []*Chunk
	cx, cz := pos.X/ChunkSize, pos.Z/ChunkSize
	lx, lz := pos.X%ChunkSize, pos.Z%ChunkSize

	if lx == 0 {
		if c, ok := cs.Get(vec.Vec2{X: cx - 1, Z: cz}); ok {
			out = append(out, c)
		}
	} else if lx == ChunkSize-1 {
		if c, ok := cs.Get(vec.Vec2{X: cx + 1, Z: cz}); ok {
			out = append(out, c)
		}
	}
	if lz == 0 {
		if c, ok := cs.Get(vec.Vec2{X: cx, Z: cz - 1}); ok {
			out = append(out, c)
		}
	} else if lz == ChunkSize-1 {
		if c, ok := cs.Get(vec.Vec2{X: cx, Z: cz + 1}); ok {
			out = append(out, c)
		}
	}
	return out
}

// Neighbors возвращает до четырёх соседей чанка по сторонам
func (cs *Chunks) Neighbors(c *Chunk) []*Chunk {
	var out []*Chunk
	for _, d := range [4]vec.Vec2{{X: 1}, {X: -1}, {Z: 1}, {Z: -1}} {
		if n, ok := cs.Get(vec.Vec2{X: c.Coords.X + d.X, Z: c.Coords.Z + d.Z}); ok {
			out = append(out, n)
		}
	}
	return out
}

// ClearInitialLightMaps освобождает временные карты света всех чанков
func (cs *Chunks) ClearInitialLightMaps() {
	for _, c := range cs.All() {
		c.skyLightMapInitial = nil
		c.itemLightMapInitial = nil
	}
}

// Update продвигает счётчик тиков и обновляет каждый чанк
func (cs *Chunks) Update(frameTime float64) {
	cs.world.updateCounter++
	for _, c := range cs.All() {
		c.Update(frameTime)
	}
	cs.world.applyItemMoves()
}
