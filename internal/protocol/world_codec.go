package protocol

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"gopkg.in/yaml.v3"
)

// Геометрия чанка в сетевом формате
const (
	ChunkSizeX    = 32
	ChunkHeight   = 96
	ChunkSizeZ    = 32
	WordsPerChunk = ChunkSizeX * ChunkHeight * ChunkSizeZ

	// maxSettingsSize ограничивает заголовок, чтобы битые данные не вызвали огромную аллокацию
	maxSettingsSize = 64 << 20

	// MaxSizeInChunks предельный размер мира по каждой оси
	MaxSizeInChunks = 256
)

var (
	// ErrIncompleteWorld поток закончился раньше, чем все данные мира
	ErrIncompleteWorld = errors.New("received incomplete world")
	// ErrUnknownItemType в настройках встретился неизвестный вид статического предмета
	ErrUnknownItemType = errors.New("unknown static item type")
	// ErrInvalidWorldSize размер мира в чанках вне допустимого диапазона
	ErrInvalidWorldSize = errors.New("invalid world size")
)

// ItemType вид статического предмета в настройках
type ItemType uint8

const (
	ItemTypeLightSource ItemType = iota
	ItemTypeClutter
)

// StaticItem статический предмет в настройках мира
type StaticItem struct {
	ID      uint64   `yaml:"id"`
	Type    ItemType `yaml:"type"`
	SubType uint8    `yaml:"sub_type"`
	X       float32  `yaml:"x"`
	Y       float32  `yaml:"y"`
	Z       float32  `yaml:"z"`
	Face    uint8    `yaml:"face,omitempty"`
}

// ChunkFlags флаги симуляции чанка
type ChunkFlags struct {
	X              int  `yaml:"x"`
	Z              int  `yaml:"z"`
	WaterExpanding bool `yaml:"water_expanding,omitempty"`
	GrassGrowing   bool `yaml:"grass_growing,omitempty"`
}

// Settings заголовок мира: всё, что нужно знать до чтения чанков
type Settings struct {
	WorldType       string       `yaml:"world_type"`
	Seed            int64        `yaml:"seed"`
	SizeInChunksX   int          `yaml:"size_in_chunks_x"`
	SizeInChunksZ   int          `yaml:"size_in_chunks_z"`
	GameObjectIDSeq uint64       `yaml:"game_object_id_seq"`
	SunStrength     uint8        `yaml:"sun_strength"`
	StaticItems     []StaticItem `yaml:"static_items,omitempty"`
	ChunkFlags      []ChunkFlags `yaml:"chunk_flags,omitempty"`
}

// Validate проверяет размеры мира и виды предметов
func (s *Settings) Validate() error {
	if err := ValidateSize(s.SizeInChunksX, s.SizeInChunksZ); err != nil {
		return err
	}
	for _, item := range s.StaticItems {
		if item.Type > ItemTypeClutter {
			return fmt.Errorf("предмет %d вида %d: %w", item.ID, item.Type, ErrUnknownItemType)
		}
	}
	return nil
}

// ValidateSize проверяет, что размер мира по обеим осям лежит в 1..MaxSizeInChunks.
// При таких пределах произведение осей не переполняет int.
func ValidateSize(sizeX, sizeZ int) error {
	if sizeX <= 0 || sizeZ <= 0 || sizeX > MaxSizeInChunks || sizeZ > MaxSizeInChunks {
		return fmt.Errorf("размер %dx%d, допустимо 1..%d: %w", sizeX, sizeZ, MaxSizeInChunks, ErrInvalidWorldSize)
	}
	return nil
}

// ChunkCount возвращает число чанков мира
func (s *Settings) ChunkCount() int {
	return s.SizeInChunksX * s.SizeInChunksZ
}

// WorldPayload мир целиком: настройки и блоки всех чанков в порядке
// x внешний, z внутренний. Каждый чанк занимает WordsPerChunk слов в порядке
// (x*ChunkHeight + y)*ChunkSizeZ + z.
type WorldPayload struct {
	Settings Settings
	Chunks   [][]uint16
}

// EncodeWorld пишет мир в сжатый deflate поток: uint32 длина настроек
// (little endian), настройки в YAML, затем слова блоков всех чанков
func EncodeWorld(w io.Writer, p *WorldPayload) error {
	if err := p.Settings.Validate(); err != nil {
		return err
	}
	if len(p.Chunks) != p.Settings.ChunkCount() {
		return fmt.Errorf("ожидалось %d чанков, передано %d", p.Settings.ChunkCount(), len(p.Chunks))
	}

	settings, err := yaml.Marshal(&p.Settings)
	if err != nil {
		return fmt.Errorf("ошибка сериализации настроек мира: %w", err)
	}

	fw, err := flate.NewWriter(w, flate.BestSpeed)
	if err != nil {
		return fmt.Errorf("ошибка создания deflate потока: %w", err)
	}
	bw := bufio.NewWriter(fw)

	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(settings)))
	if _, err := bw.Write(header[:]); err != nil {
		return err
	}
	if _, err := bw.Write(settings); err != nil {
		return err
	}

	buf := make([]byte, WordsPerChunk*2)
	for i, words := range p.Chunks {
		if len(words) != WordsPerChunk {
			return fmt.Errorf("чанк %d: %d слов вместо %d", i, len(words), WordsPerChunk)
		}
		for j, word := range words {
			binary.LittleEndian.PutUint16(buf[j*2:], word)
		}
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}

	if err := bw.Flush(); err != nil {
		return err
	}
	return fw.Close()
}

// DecodeWorld читает мир из сжатого потока. Если данных не хватает,
// возвращается ошибка, оборачивающая ErrIncompleteWorld.
func DecodeWorld(r io.Reader) (*WorldPayload, error) {
	fr := flate.NewReader(r)
	defer fr.Close()

	var header [4]byte
	if _, err := io.ReadFull(fr, header[:]); err != nil {
		return nil, incomplete("заголовок", err)
	}
	n := binary.LittleEndian.Uint32(header[:])
	if n > maxSettingsSize {
		return nil, fmt.Errorf("размер настроек %d превышает допустимый", n)
	}

	raw := make([]byte, n)
	if _, err := io.ReadFull(fr, raw); err != nil {
		return nil, incomplete("настройки", err)
	}

	p := &WorldPayload{}
	if err := yaml.Unmarshal(raw, &p.Settings); err != nil {
		return nil, fmt.Errorf("ошибка разбора настроек мира: %w", err)
	}
	if err := p.Settings.Validate(); err != nil {
		return nil, err
	}

	// Память под чанки растёт по мере чтения, а не по заявленному размеру
	count := p.Settings.ChunkCount()
	p.Chunks = make([][]uint16, 0, min(count, 64))
	buf := make([]byte, WordsPerChunk*2)
	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(fr, buf); err != nil {
			return nil, incomplete(fmt.Sprintf("чанк %d из %d", i+1, count), err)
		}
		words := make([]uint16, WordsPerChunk)
		for j := range words {
			words[j] = binary.LittleEndian.Uint16(buf[j*2:])
		}
		p.Chunks = append(p.Chunks, words)
	}
	return p, nil
}

// MarshalWorld кодирует мир в байты
func MarshalWorld(p *WorldPayload) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeWorld(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalWorld декодирует мир из байтов
func UnmarshalWorld(data []byte) (*WorldPayload, error) {
	return DecodeWorld(bytes.NewReader(data))
}

func incomplete(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%s: %w", what, ErrIncompleteWorld)
	}
	return fmt.Errorf("ошибка чтения (%s): %w", what, err)
}
