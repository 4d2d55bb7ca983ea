package world

import "github.com/annel0/voxel-world/internal/vec"

// Sound звук, сопровождающий изменение мира
type Sound uint8

const (
	SoundRemoveBlock Sound = iota
	SoundAddBlock
	SoundJumpOutOfWater
)

// String возвращает имя звука
func (s Sound) String() string {
	switch s {
	case SoundRemoveBlock:
		return "remove_block"
	case SoundAddBlock:
		return "add_block"
	case SoundJumpOutOfWater:
		return "jump_out_of_water"
	}
	return "unknown"
}

// SoundPlayer проигрывает звуки в точке мира
type SoundPlayer interface {
	Play(s Sound, at vec.Coords)
}

func (w *World) playSound(s Sound, pos vec.Position) {
	if w.sound == nil {
		return
	}
	w.sound.Play(s, pos.ToCoords())
}
