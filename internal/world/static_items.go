package world

import (
	"errors"
	"fmt"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/annel0/voxel-world/internal/world/entity"
)

// Сообщения проверки позиции статического предмета
const (
	msgInvalidItemPosition = "invalid item position"
	msgItemAlreadyExists   = "item already exists on selected block"
)

// ErrInvalidItemPosition возвращается при попытке поставить предмет в недопустимую ячейку
var ErrInvalidItemPosition = errors.New("недопустимая позиция предмета")

// StaticItemKind вид статического предмета
type StaticItemKind uint8

const (
	StaticItemLightSource StaticItemKind = iota
	StaticItemClutter
)

// IsValidStaticItemPosition проверяет, можно ли поставить статический
// предмет в ячейку: она должна быть внутри мира, пустой и без других предметов
func (w *World) IsValidStaticItemPosition(pos vec.Position) (bool, string) {
	if !w.IsValidBlockLocation(pos) || w.GetBlockID(pos) != block.AirBlockID {
		return false, msgInvalidItemPosition
	}
	c := w.chunks.ByPosition(pos)
	if _, ok := c.LightSourceAt(pos); ok {
		return false, msgItemAlreadyExists
	}
	if _, ok := c.ClutterAt(pos); ok {
		return false, msgItemAlreadyExists
	}
	return true, ""
}

// AddStaticItem ставит статический предмет вида kind с подтипом subType.
// Неизвестный вид считается ошибкой программиста.
func (w *World) AddStaticItem(kind StaticItemKind, subType uint8, pos vec.Position, face vec.Face) (entity.ID, error) {
	switch kind {
	case StaticItemLightSource:
		ls, err := w.AddLightSource(pos, entity.LightSourceType(subType), face)
		if err != nil {
			return 0, err
		}
		return ls.ID, nil
	case StaticItemClutter:
		cl, err := w.AddClutter(pos, entity.ClutterType(subType))
		if err != nil {
			return 0, err
		}
		return cl.ID, nil
	default:
		panic(fmt.Sprintf("неизвестный вид статического предмета: %d", kind))
	}
}

// AddLightSource ставит источник света и пересчитывает свет вокруг него
func (w *World) AddLightSource(pos vec.Position, lightType entity.LightSourceType, face vec.Face) (*entity.LightSource, error) {
	if !lightType.IsValid() {
		return nil, fmt.Errorf("неизвестный источник света %d: %w", lightType, ErrInvalidItemPosition)
	}
	if ok, msg := w.IsValidStaticItemPosition(pos); !ok {
		return nil, fmt.Errorf("%s %v: %w", msg, pos, ErrInvalidItemPosition)
	}

	ls := entity.NewLightSource(w.NextGameObjectID(), pos, lightType, face)
	w.chunks.ByPosition(pos).addLightSource(ls)
	w.ModifyLightAndQueue(pos, pos)
	return ls, nil
}

// AddClutter ставит декоративный объект
func (w *World) AddClutter(pos vec.Position, clutterType entity.ClutterType) (*entity.Clutter, error) {
	if !clutterType.IsValid() {
		return nil, fmt.Errorf("неизвестный декоративный объект %d: %w", clutterType, ErrInvalidItemPosition)
	}
	if ok, msg := w.IsValidStaticItemPosition(pos); !ok {
		return nil, fmt.Errorf("%s %v: %w", msg, pos, ErrInvalidItemPosition)
	}

	cl := entity.NewClutter(w.NextGameObjectID(), pos, clutterType)
	c := w.chunks.ByPosition(pos)
	c.addClutter(cl)
	c.QueueImmediate()
	return cl, nil
}

// RemoveStaticItem удаляет статический предмет по идентификатору.
// Удаление источника света пересчитывает свет.
func (w *World) RemoveStaticItem(id entity.ID) bool {
	for _, c := range w.chunks.All() {
		var lightPos *vec.Position
		if v, ok := c.lightSources.Load(id); ok {
			p := v.(*entity.LightSource).BlockPosition()
			lightPos = &p
		}
		if !c.removeStaticItem(id) {
			continue
		}
		if lightPos != nil {
			w.ModifyLightAndQueue(*lightPos, *lightPos)
		} else {
			c.QueueImmediate()
		}
		return true
	}
	return false
}

// AddDynamicItem помещает предмет в чанк по его координатам
func (w *World) AddDynamicItem(item *entity.DynamicItem) bool {
	c, ok := w.chunks.ByCoords(item.Coords())
	if !ok {
		return false
	}
	c.addDynamicItem(item)
	return true
}

// AddMob помещает моба в чанк по его координатам
func (w *World) AddMob(m *entity.Mob) bool {
	c, ok := w.chunks.ByCoords(m.Coords())
	if !ok {
		return false
	}
	c.addMob(m)
	return true
}

// restoreLightSource и restoreClutter возвращают предметы при загрузке мира
// без пересчёта света; свет строится после загрузки целиком
func (w *World) restoreLightSource(ls *entity.LightSource) error {
	if !ls.Type.IsValid() || !w.IsValidBlockLocation(ls.BlockPosition()) {
		return fmt.Errorf("источник света %d в %v: %w", ls.ID, ls.BlockPosition(), ErrInvalidItemPosition)
	}
	w.chunks.ByPosition(ls.BlockPosition()).addLightSource(ls)
	return nil
}

func (w *World) restoreClutter(cl *entity.Clutter) error {
	if !cl.Type.IsValid() || !w.IsValidBlockLocation(cl.BlockPosition()) {
		return fmt.Errorf("декоративный объект %d в %v: %w", cl.ID, cl.BlockPosition(), ErrInvalidItemPosition)
	}
	w.chunks.ByPosition(cl.BlockPosition()).addClutter(cl)
	return nil
}
