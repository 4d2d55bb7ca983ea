package block

// Маска признака "изменён" в слове блока
const dirtyMask uint16 = 0x8000

// Block значение одной ячейки мира: тип и признак изменения
// относительно сгенерированного ландшафта (используется для сохранения диффов).
type Block struct {
	ID    BlockID
	Dirty bool
}

// NewBlock создаёт неизменённый блок указанного типа
func NewBlock(id BlockID) Block {
	return Block{ID: id}
}

// IsTransparent проверяет прозрачность блока
func (b Block) IsTransparent() bool {
	return IsTransparent(b.ID)
}

// IsSolid проверяет, твёрдый ли блок
func (b Block) IsSolid() bool {
	return IsSolid(b.ID)
}

// Word упаковывает блок в 16-битное слово: тип в младших битах, бит 15 хранит Dirty
func (b Block) Word() uint16 {
	w := uint16(b.ID)
	if b.Dirty {
		w |= dirtyMask
	}
	return w
}

// FromWord распаковывает 16-битное слово блока.
// Биты 8–14 зарезервированы и игнорируются.
func FromWord(w uint16) Block {
	return Block{
		ID:    BlockID(w & 0xFF),
		Dirty: w&dirtyMask != 0,
	}
}
