package world

import (
	"fmt"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

// Face видимая грань блока в снимке геометрии чанка
type Face struct {
	Position vec.Position // мировая позиция блока
	Side     vec.Face
	BlockID  block.BlockID
	Light    byte // итоговая сила света у грани, 0..15
}

// Renderer внешний потребитель геометрии (загрузка в видеопамять)
type Renderer interface {
	// Upload загружает снимок граней чанка
	Upload(c *Chunk, faces []Face) error
	// Release освобождает ресурсы чанка
	Release(c *Chunk)
}

// Faces возвращает снимок граней, собранный последним BuildData
func (c *Chunk) Faces() []Face {
	c.facesMu.RLock()
	defer c.facesMu.RUnlock()
	return c.faces
}

// BuildData собирает снимок видимых граней чанка. Сборка одного чанка
// исключительна; выгруженный чанк не собирается. Возвращает true, если
// сборка выполнена.
func (c *Chunk) BuildData() bool {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	c.stateMu.Lock()
	if c.buildState == BuildStateNotLoaded {
		c.stateMu.Unlock()
		return false
	}
	c.setBuildStateLocked(BuildStateBuilding)
	c.stateMu.Unlock()

	faces := c.collectFaces()

	c.facesMu.Lock()
	c.faces = faces
	c.facesMu.Unlock()

	// если чанк за время сборки снова поставили в очередь или выгрузили, состояние не трогаем
	c.compareAndSetBuildState(BuildStateBuilding, BuildStateBuilt)
	chunksBuilt.Inc()
	c.world.publishChunkRebuilt(c, len(faces))
	return true
}

func (c *Chunk) collectFaces() []Face {
	c.mu.RLock()
	low := max(c.deepestTransparentLevel-1, 0)
	high := c.highestNonAirLevel
	c.mu.RUnlock()

	origin := c.WorldOrigin()
	var faces []Face
	for x := 0; x < ChunkSize; x++ {
		for z := 0; z < ChunkSize; z++ {
			for y := low; y <= high; y++ {
				b := c.GetBlock(x, y, z)
				if b.ID == block.AirBlockID {
					continue
				}
				pos := vec.Position{X: origin.X + x, Y: y, Z: origin.Z + z}
				for _, side := range vec.AllFaces {
					adj := pos.Adjacent(side)
					if adj.Y < 0 {
						continue
					}
					if c.world.IsValidBlockLocation(adj) {
						adjID := c.world.GetBlockID(adj)
						if !block.IsTransparent(adjID) || adjID == b.ID {
							continue
						}
					}
					faces = append(faces, Face{
						Position: pos,
						Side:     side,
						BlockID:  b.ID,
						Light:    c.world.GetBlockLightStrength(adj),
					})
				}
			}
		}
	}
	return faces
}

// BufferData передаёт собранную геометрию внешнему рендереру и помечает буфер
// актуальным. Без рендерера (сервер) буфер считается загруженным сразу.
func (c *Chunk) BufferData() error {
	if c.BuildState() != BuildStateBuilt {
		return nil
	}
	if r := c.world.renderer; r != nil {
		if err := r.Upload(c, c.Faces()); err != nil {
			return fmt.Errorf("ошибка загрузки чанка %v: %w", c.Coords, err)
		}
	}

	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if c.buildState == BuildStateBuilt {
		c.bufferState = BufferStateVboBuffered
	}
	return nil
}

// unloadDataLocked освобождает геометрию; вызывается под stateMu
func (c *Chunk) unloadDataLocked() {
	c.facesMu.Lock()
	c.faces = nil
	c.facesMu.Unlock()

	if r := c.world.renderer; r != nil {
		r.Release(c)
	}
}
