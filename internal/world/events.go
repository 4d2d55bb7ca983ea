package world

import (
	"context"

	"github.com/annel0/voxel-world/internal/eventbus"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

// eventSource имя источника событий мира
const eventSource = "world"

func (w *World) publish(eventType string, priority int, payload any) {
	if w.bus == nil {
		return
	}
	ev, err := eventbus.NewEnvelope(eventType, eventSource, priority, payload)
	if err != nil {
		w.log.Warn("⚠️ %v", err)
		return
	}
	if err := w.bus.Publish(context.Background(), ev); err != nil {
		w.log.Debug("событие %s не отправлено: %v", eventType, err)
	}
}

func (w *World) publishBlockChanged(pos vec.Position, oldID, newID block.BlockID) {
	w.publish(eventbus.EventBlockChanged, eventbus.PriorityNormal, eventbus.BlockChanged{
		X: pos.X, Y: pos.Y, Z: pos.Z,
		OldID: uint8(oldID),
		NewID: uint8(newID),
	})
}

func (w *World) publishChunkRebuilt(c *Chunk, faces int) {
	w.publish(eventbus.EventChunkRebuilt, eventbus.PriorityLow, eventbus.ChunkRebuilt{
		ChunkX: c.Coords.X,
		ChunkZ: c.Coords.Z,
		Faces:  faces,
	})
}

func (w *World) publishLightUpdated(p1, p2 vec.Position, changedChunks int) {
	lo, hi := vec.Min(p1, p2), vec.Max(p1, p2)
	w.publish(eventbus.EventLightUpdated, eventbus.PriorityLow, eventbus.LightUpdated{
		MinX: lo.X, MinY: lo.Y, MinZ: lo.Z,
		MaxX: hi.X, MaxY: hi.Y, MaxZ: hi.Z,
		ChangedChunks: changedChunks,
	})
}
