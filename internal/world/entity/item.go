package entity

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/voxel-world/internal/physics"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

// ItemKind вид динамического предмета
type ItemKind uint8

const (
	ItemKindBlock      ItemKind = iota // выпавший блок
	ItemKindProjectile                 // брошенный снаряд
)

// Время жизни предмета после остановки, секунды
const (
	BlockItemDecaySeconds      = 300
	ProjectileItemDecaySeconds = 10
)

var itemCollider = physics.NewBoxCollider(0.25, 0.25)

// DynamicItem предмет, который может двигаться и переходить между чанками
type DynamicItem struct {
	ID      ID
	Kind    ItemKind
	BlockID block.BlockID

	mu        sync.Mutex
	position  vec.Coords
	velocity  mgl32.Vec3
	isMoving  bool
	stoppedAt float64 // сколько секунд предмет лежит неподвижно
}

// NewBlockItem создаёт выпавший блок
func NewBlockItem(id ID, coords vec.Coords, blockID block.BlockID) *DynamicItem {
	return &DynamicItem{ID: id, Kind: ItemKindBlock, BlockID: blockID, position: coords, isMoving: true}
}

// NewProjectile создаёт снаряд с начальной скоростью
func NewProjectile(id ID, coords vec.Coords, velocity mgl32.Vec3) *DynamicItem {
	return &DynamicItem{ID: id, Kind: ItemKindProjectile, position: coords, velocity: velocity, isMoving: true}
}

func (d *DynamicItem) EntityID() ID { return d.ID }

// Coords возвращает текущие координаты
func (d *DynamicItem) Coords() vec.Coords {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.position
}

// Velocity возвращает текущую скорость
func (d *DynamicItem) Velocity() mgl32.Vec3 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.velocity
}

// IsMoving сообщает, движется ли предмет
func (d *DynamicItem) IsMoving() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.isMoving
}

// StartFalling снимает предмет с опоры (под ним убрали блок)
func (d *DynamicItem) StartFalling() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.isMoving = true
	d.stoppedAt = 0
}

func (d *DynamicItem) decaySeconds() float64 {
	if d.Kind == ItemKindProjectile {
		return ProjectileItemDecaySeconds
	}
	return BlockItemDecaySeconds
}

// Update двигает предмет под действием гравитации и считает время жизни
func (d *DynamicItem) Update(frameTime float64, env BlockSource) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.isMoving {
		d.stoppedAt += frameTime
		return d.stoppedAt < d.decaySeconds()
	}

	pos, vel, landed := physics.Fall(d.position.Vec3(), d.velocity, float32(frameTime), itemCollider, isSolidIn(env))
	d.position = d.position.WithVec3(pos)
	d.velocity = vel
	if landed {
		d.isMoving = false
		d.stoppedAt = 0
	}
	// Предмет, упавший ниже мира, удаляется
	return d.position.Y >= 0
}

func (d *DynamicItem) Appearance() Appearance {
	if d.Kind == ItemKindProjectile {
		return Appearance{Model: "projectile"}
	}
	return Appearance{Model: "block:" + d.BlockID.String(), Variant: uint8(d.BlockID)}
}
