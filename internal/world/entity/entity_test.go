package entity

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

// flatWorld камень до уровня floor включительно, выше воздух
type flatWorld struct {
	floor int
}

func (w flatWorld) GetBlockID(pos vec.Position) block.BlockID {
	if pos.Y <= w.floor {
		return block.StoneBlockID
	}
	return block.AirBlockID
}

func (w flatWorld) IsValidBlockLocation(pos vec.Position) bool {
	return pos.Y >= 0 && pos.Y < 96
}

func TestBlockItemFallsAndDecays(t *testing.T) {
	env := flatWorld{floor: 9}
	item := NewBlockItem(1, vec.NewCoords(3.5, 14, 3.5), block.DirtBlockID)

	for i := 0; i < 100 && item.IsMoving(); i++ {
		require.True(t, item.Update(0.05, env))
	}
	require.False(t, item.IsMoving())
	assert.Equal(t, float32(10), item.Coords().Y)

	// лежит до истечения срока жизни
	assert.True(t, item.Update(BlockItemDecaySeconds-1, env))
	assert.False(t, item.Update(2, env))
}

func TestDynamicItemStartFalling(t *testing.T) {
	env := flatWorld{floor: 9}
	item := NewBlockItem(1, vec.NewCoords(3.5, 10, 3.5), block.SandBlockID)
	item.Update(0.05, env)
	require.False(t, item.IsMoving())

	item.StartFalling()
	assert.True(t, item.IsMoving())

	// опору убрали, предмет падает на новый пол
	lower := flatWorld{floor: 4}
	for i := 0; i < 100 && item.IsMoving(); i++ {
		item.Update(0.05, lower)
	}
	assert.Equal(t, float32(5), item.Coords().Y)
}

func TestLightSourceStrengthAndPosition(t *testing.T) {
	ls := NewLightSource(7, vec.NewPosition(4, 20, 6), LightSourceTorch, vec.FaceTop)
	assert.Equal(t, byte(14), ls.Strength())
	assert.Equal(t, vec.NewPosition(4, 20, 6), ls.BlockPosition())
	assert.True(t, LightSourceLantern.IsValid())
	assert.False(t, LightSourceType(200).IsValid())
}

func TestMobWalksAndFalls(t *testing.T) {
	env := flatWorld{floor: 9}
	mob := NewMob(3, MobTypeCow, vec.NewCoords(2.5, 12, 2.5), 10)
	mob.SetVelocity(mgl32.Vec3{1, 0, 0})

	for i := 0; i < 100; i++ {
		require.True(t, mob.Update(0.05, env))
	}
	c := mob.Coords()
	assert.Equal(t, float32(10), c.Y)
	assert.Greater(t, c.X, float32(2.5))

	assert.False(t, mob.Damage(4))
	assert.True(t, mob.Damage(6))
	assert.False(t, mob.Update(0.05, env))
}
