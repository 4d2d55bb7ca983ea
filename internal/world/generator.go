package world

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/annel0/voxel-world/internal/config"
	"github.com/annel0/voxel-world/internal/observability"
	"github.com/annel0/voxel-world/internal/util"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/annel0/voxel-world/internal/world/entity"
)

// Константы высот для генерации
const (
	SeaLevel      = ChunkHeight / 3
	minTerrain    = 20
	terrainRange  = 40
	dirtDepth     = 3
	treeHeight    = 4
	treeThreshold = 0.82 // порог шума для дерева
	tuftThreshold = 0.70 // порог шума для пучка травы
)

// Generator генерирует ландшафт мира по сиду. Одинаковый сид даёт
// одинаковый мир, поэтому сохраняются только отличия от генерации.
type Generator struct {
	noise      *util.Noise
	worldType  block.WorldType
	NoiseScale float64 // Масштаб шума высоты
	TreeScale  float64 // Масштаб шума разброса деревьев
}

// NewGenerator создаёт генератор для сида и типа мира
func NewGenerator(seed int64, worldType block.WorldType) *Generator {
	return &Generator{
		noise:      util.NewNoise(seed),
		worldType:  worldType,
		NoiseScale: 0.02,
		TreeScale:  0.9,
	}
}

// ColumnHeight возвращает высоту поверхности столбца
func (g *Generator) ColumnHeight(x, z int) int {
	h := g.noise.Perlin2D(float64(x)*g.NoiseScale, float64(z)*g.NoiseScale)
	return minTerrain + int(h*terrainRange)
}

// surfaceBlocks возвращает верхний блок и блок под ним для высоты h
func (g *Generator) surfaceBlocks(h int) (top, under block.BlockID) {
	if h <= SeaLevel+1 || g.worldType == block.WorldTypeDesert {
		return block.SandBlockID, block.SandBlockID
	}
	if g.worldType == block.WorldTypeWinter {
		return block.SnowBlockID, block.DirtBlockID
	}
	return block.GrassBlockID, block.DirtBlockID
}

// FillChunk заполняет блоки чанка и строит его карту высот
func (g *Generator) FillChunk(c *Chunk) {
	origin := c.WorldOrigin()

	c.mu.Lock()
	defer c.mu.Unlock()

	for x := 0; x < ChunkSize; x++ {
		for z := 0; z < ChunkSize; z++ {
			wx, wz := origin.X+x, origin.Z+z
			h := g.ColumnHeight(wx, wz)
			top, under := g.surfaceBlocks(h)

			for y := 0; y <= h; y++ {
				id := block.StoneBlockID
				switch {
				case y == h:
					id = top
				case y >= h-dirtDepth:
					id = under
				}
				c.blocks.Set(x, y, z, block.NewBlock(id))
			}
			for y := h + 1; y <= SeaLevel; y++ {
				c.blocks.Set(x, y, z, block.NewBlock(block.WaterBlockID))
			}

			if top != block.SandBlockID && x >= 2 && x < ChunkSize-2 && z >= 2 && z < ChunkSize-2 &&
				g.noise.Simplex2D(float64(wx)*g.TreeScale, float64(wz)*g.TreeScale) > treeThreshold {
				g.plantTreeLocked(c, x, h+1, z)
			}
		}
	}
	c.buildHeightMapLocked()
}

// plantTreeLocked сажает дерево в локальную позицию; вызывается под c.mu.
// Дерево целиком помещается в чанк.
func (g *Generator) plantTreeLocked(c *Chunk, x, y, z int) {
	if y+treeHeight+1 >= ChunkHeight {
		return
	}
	leaves := block.LeavesBlockID
	if g.worldType == block.WorldTypeWinter {
		leaves = block.SnowLeavesBlockID
	}

	for dy := treeHeight - 2; dy <= treeHeight; dy++ {
		for dx := -1; dx <= 1; dx++ {
			for dz := -1; dz <= 1; dz++ {
				if c.blocks.Get(x+dx, y+dy, z+dz).ID == block.AirBlockID {
					c.blocks.Set(x+dx, y+dy, z+dz, block.NewBlock(leaves))
				}
			}
		}
	}
	c.blocks.Set(x, y+treeHeight, z, block.NewBlock(leaves))
	for dy := 0; dy < treeHeight; dy++ {
		c.blocks.Set(x, y+dy, z, block.NewBlock(block.TreeBlockID))
	}
}

// ScatterClutter раскладывает пучки травы по травяным вершинам
func (g *Generator) ScatterClutter(w *World) int {
	if g.worldType != block.WorldTypeGrass {
		return 0
	}
	placed := 0
	for x := 0; x < w.sizeX; x++ {
		for z := 0; z < w.sizeZ; z++ {
			h := w.GetHeightMapLevel(x, z)
			if h+1 >= ChunkHeight || w.GetBlock(x, h, z).ID != block.GrassBlockID {
				continue
			}
			if g.noise.Simplex2D(float64(x)*1.7+1000, float64(z)*1.7) < tuftThreshold {
				continue
			}
			pos := vec.Position{X: x, Y: h + 1, Z: z}
			if ok, _ := w.IsValidStaticItemPosition(pos); !ok {
				continue
			}
			cl := entity.NewClutter(w.NextGameObjectID(), pos, entity.ClutterGrassTuft)
			w.chunks.ByPosition(pos).addClutter(cl)
			placed++
		}
	}
	return placed
}

// GenerateTerrain создаёт мир и заполняет блоки всех чанков без света и предметов
func GenerateTerrain(cfg config.WorldConfig, opts ...Option) (*World, *Generator, error) {
	w, err := New(cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	g := NewGenerator(w.seed, w.worldType)
	for _, c := range w.chunks.All() {
		g.FillChunk(c)
	}
	return w, g, nil
}

// Generate создаёт новый мир: ландшафт, декор и начальный свет
func Generate(ctx context.Context, cfg config.WorldConfig, opts ...Option) (_ *World, err error) {
	ctx, span := observability.StartSpan(ctx, "world.Generate",
		attribute.String("type", cfg.Type), attribute.Int64("seed", cfg.Seed))
	defer func() { observability.EndSpan(span, err) }()

	start := time.Now()
	w, g, err := GenerateTerrain(cfg, opts...)
	if err != nil {
		return nil, err
	}
	clutter := g.ScatterClutter(w)
	if err := w.InitializeAllLightMaps(ctx); err != nil {
		return nil, fmt.Errorf("ошибка генерации мира: %w", err)
	}
	w.log.Info("🌍 Мир %s %dx%d чанков (сид %d) сгенерирован за %v, декора: %d",
		w.worldType, w.sizeInChunksX, w.sizeInChunksZ, w.seed, time.Since(start), clutter)
	return w, nil
}
