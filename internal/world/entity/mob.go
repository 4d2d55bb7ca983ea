package entity

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/voxel-world/internal/physics"
	"github.com/annel0/voxel-world/internal/vec"
)

// MobType вид моба
type MobType uint8

const (
	MobTypeCow MobType = iota
	MobTypeSheep
	MobTypeDragon
)

// String возвращает имя вида
func (t MobType) String() string {
	switch t {
	case MobTypeCow:
		return "cow"
	case MobTypeSheep:
		return "sheep"
	case MobTypeDragon:
		return "dragon"
	}
	return fmt.Sprintf("MobType(%d)", uint8(t))
}

var mobCollider = physics.NewBoxCollider(0.9, 1.4)

// Mob живое существо, принадлежащее чанку. Решения о движении принимает
// внешний ИИ через SetVelocity; здесь только падение.
type Mob struct {
	ID   ID
	Type MobType

	mu       sync.Mutex
	position vec.Coords
	velocity mgl32.Vec3
	health   int
}

// NewMob создаёт моба
func NewMob(id ID, mobType MobType, coords vec.Coords, health int) *Mob {
	return &Mob{ID: id, Type: mobType, position: coords, health: health}
}

func (m *Mob) EntityID() ID { return m.ID }

// Coords возвращает текущие координаты
func (m *Mob) Coords() vec.Coords {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

// SetVelocity задаёт горизонтальную скорость движения
func (m *Mob) SetVelocity(v mgl32.Vec3) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.velocity = mgl32.Vec3{v.X(), m.velocity.Y(), v.Z()}
}

// Damage уменьшает здоровье; возвращает true, если моб погиб
func (m *Mob) Damage(amount int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.health -= amount
	return m.health <= 0
}

// Update применяет движение и гравитацию
func (m *Mob) Update(frameTime float64, env BlockSource) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.health <= 0 {
		return false
	}

	isSolid := isSolidIn(env)
	pos := m.position.Vec3()
	horizontal := mgl32.Vec3{m.velocity.X(), 0, m.velocity.Z()}.Mul(float32(frameTime))
	if target := pos.Add(horizontal); !isSolid(vec.Coords{X: target.X(), Y: target.Y(), Z: target.Z()}.ToPosition()) {
		pos = target
	}

	if physics.IsSupported(pos, mobCollider, isSolid) {
		m.velocity = mgl32.Vec3{m.velocity.X(), 0, m.velocity.Z()}
	} else {
		var landed bool
		fallVel := mgl32.Vec3{0, m.velocity.Y(), 0}
		pos, fallVel, landed = physics.Fall(pos, fallVel, float32(frameTime), mobCollider, isSolid)
		if landed {
			fallVel = mgl32.Vec3{}
		}
		m.velocity = mgl32.Vec3{m.velocity.X(), fallVel.Y(), m.velocity.Z()}
	}
	m.position = m.position.WithVec3(pos)
	return m.position.Y >= 0
}

func (m *Mob) Appearance() Appearance {
	return Appearance{Model: "mob:" + m.Type.String()}
}
