package world

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/annel0/voxel-world/internal/config"
	"github.com/annel0/voxel-world/internal/protocol"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/annel0/voxel-world/internal/world/entity"
)

// Settings собирает заголовок мира: параметры, последовательность
// идентификаторов, статические предметы и флаги симуляции чанков
func (w *World) Settings() protocol.Settings {
	s := protocol.Settings{
		WorldType:       w.worldType.String(),
		Seed:            w.seed,
		SizeInChunksX:   w.sizeInChunksX,
		SizeInChunksZ:   w.sizeInChunksZ,
		GameObjectIDSeq: w.GameObjectIDSeq(),
		SunStrength:     w.SunStrength(),
	}
	for _, c := range w.chunks.All() {
		for _, ls := range c.LightSources() {
			s.StaticItems = append(s.StaticItems, protocol.StaticItem{
				ID:      uint64(ls.ID),
				Type:    protocol.ItemTypeLightSource,
				SubType: uint8(ls.Type),
				X:       ls.Position.X,
				Y:       ls.Position.Y,
				Z:       ls.Position.Z,
				Face:    uint8(ls.AttachedToFace),
			})
		}
		for _, cl := range c.Clutter() {
			s.StaticItems = append(s.StaticItems, protocol.StaticItem{
				ID:      uint64(cl.ID),
				Type:    protocol.ItemTypeClutter,
				SubType: uint8(cl.Type),
				X:       cl.Position.X,
				Y:       cl.Position.Y,
				Z:       cl.Position.Z,
			})
		}
		if c.WaterExpanding() || c.GrassGrowing() {
			s.ChunkFlags = append(s.ChunkFlags, protocol.ChunkFlags{
				X:              c.Coords.X,
				Z:              c.Coords.Z,
				WaterExpanding: c.WaterExpanding(),
				GrassGrowing:   c.GrassGrowing(),
			})
		}
	}
	return s
}

// ApplySettings восстанавливает состояние из заголовка мира.
// Размер и сид задаются при создании мира и здесь не меняются.
func (w *World) ApplySettings(s protocol.Settings) error {
	if s.SizeInChunksX != w.sizeInChunksX || s.SizeInChunksZ != w.sizeInChunksZ {
		return fmt.Errorf("размер мира %dx%d не совпадает с %dx%d",
			s.SizeInChunksX, s.SizeInChunksZ, w.sizeInChunksX, w.sizeInChunksZ)
	}
	w.SetGameObjectIDSeq(s.GameObjectIDSeq)
	w.sunStrength.Store(int32(min(s.SunStrength, BrightestSkylightStrength)))

	// предметы заменяют сгенерированные
	for _, c := range w.chunks.All() {
		c.lightSources.Range(func(k, _ any) bool {
			c.lightSources.Delete(k)
			return true
		})
		c.clutterMu.Lock()
		clear(c.clutter)
		c.clutterMu.Unlock()
	}

	for _, item := range s.StaticItems {
		coords := vec.Coords{X: item.X, Y: item.Y, Z: item.Z}
		var err error
		switch item.Type {
		case protocol.ItemTypeLightSource:
			err = w.restoreLightSource(&entity.LightSource{
				ID:             entity.ID(item.ID),
				Position:       coords,
				Type:           entity.LightSourceType(item.SubType),
				AttachedToFace: vec.Face(item.Face),
			})
		case protocol.ItemTypeClutter:
			err = w.restoreClutter(&entity.Clutter{
				ID:       entity.ID(item.ID),
				Position: coords,
				Type:     entity.ClutterType(item.SubType),
			})
		default:
			err = fmt.Errorf("предмет %d вида %d: %w", item.ID, item.Type, protocol.ErrUnknownItemType)
		}
		if err != nil {
			return err
		}
	}

	for _, f := range s.ChunkFlags {
		c, ok := w.chunks.Get(vec.Vec2{X: f.X, Z: f.Z})
		if !ok {
			return fmt.Errorf("флаги для несуществующего чанка %d,%d", f.X, f.Z)
		}
		c.SetWaterExpanding(f.WaterExpanding)
		c.SetGrassGrowing(f.GrassGrowing)
	}
	return nil
}

// EncodePayload пишет мир целиком в сетевом формате
func (w *World) EncodePayload(out io.Writer) error {
	p := &protocol.WorldPayload{Settings: w.Settings()}
	for _, c := range w.chunks.All() {
		p.Chunks = append(p.Chunks, c.Words())
	}
	if err := protocol.EncodeWorld(out, p); err != nil {
		return fmt.Errorf("ошибка кодирования мира: %w", err)
	}
	return nil
}

// LoadPayload читает мир из сетевого формата и строит карты света.
// Параметры размера, сида и типа берутся из заголовка, остальные из cfg.
func LoadPayload(ctx context.Context, r io.Reader, cfg config.WorldConfig, opts ...Option) (*World, error) {
	start := time.Now()
	p, err := protocol.DecodeWorld(r)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки мира: %w", err)
	}

	cfg.SizeInChunksX = p.Settings.SizeInChunksX
	cfg.SizeInChunksZ = p.Settings.SizeInChunksZ
	cfg.Seed = p.Settings.Seed
	cfg.Type = p.Settings.WorldType

	w, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	for i, c := range w.chunks.All() {
		c.mu.Lock()
		c.blocks.SetWords(p.Chunks[i])
		c.buildHeightMapLocked()
		c.mu.Unlock()
	}
	if err := w.ApplySettings(p.Settings); err != nil {
		return nil, fmt.Errorf("ошибка загрузки мира: %w", err)
	}
	if err := w.InitializeAllLightMaps(ctx); err != nil {
		return nil, err
	}

	w.log.Info("📦 Мир %dx%d чанков загружен за %v", w.sizeInChunksX, w.sizeInChunksZ, time.Since(start))
	return w, nil
}

// ApplyDirtyBlocks записывает сохранённые изменения чанка поверх
// сгенерированных блоков. Позиции локальные.
func (c *Chunk) ApplyDirtyBlocks(blocks map[vec.Position]uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for p, word := range blocks {
		if !InBounds(p.X, p.Y, p.Z) {
			continue
		}
		c.blocks.Set(p.X, p.Y, p.Z, block.FromWord(word))
	}
	c.buildHeightMapLocked()
}
