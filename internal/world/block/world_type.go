package block

import "fmt"

// WorldType климат мира, влияющий на правила роста
type WorldType uint8

const (
	WorldTypeGrass WorldType = iota
	WorldTypeWinter
	WorldTypeDesert
)

// String возвращает имя типа мира
func (t WorldType) String() string {
	switch t {
	case WorldTypeGrass:
		return "grass"
	case WorldTypeWinter:
		return "winter"
	case WorldTypeDesert:
		return "desert"
	}
	return fmt.Sprintf("WorldType(%d)", uint8(t))
}

// ParseWorldType разбирает имя типа мира
func ParseWorldType(s string) (WorldType, error) {
	switch s {
	case "grass", "":
		return WorldTypeGrass, nil
	case "winter":
		return WorldTypeWinter, nil
	case "desert":
		return WorldTypeDesert, nil
	}
	return WorldTypeGrass, fmt.Errorf("неизвестный тип мира %q", s)
}

// MarshalText кодирует тип мира для YAML
func (t WorldType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText разбирает тип мира из YAML
func (t *WorldType) UnmarshalText(text []byte) error {
	parsed, err := ParseWorldType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
