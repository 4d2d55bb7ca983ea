package util

import (
	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Параметры шума Перлина
const (
	perlinAlpha   = 2.0 // Сглаживание шума
	perlinBeta    = 2.0 // Частота шума
	perlinOctaves = 3   // Количество октав
)

// Noise объединяет шум Перлина (рельеф) и OpenSimplex (разброс объектов)
// для одного сида. Значения приведены к диапазону 0..1.
type Noise struct {
	seed    int64
	perlin  *perlin.Perlin
	simplex opensimplex.Noise
}

// NewNoise создаёт генераторы шума с указанным сидом
func NewNoise(seed int64) *Noise {
	return &Noise{
		seed:    seed,
		perlin:  perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, seed),
		simplex: opensimplex.NewNormalized(seed),
	}
}

// Seed возвращает сид генераторов
func (n *Noise) Seed() int64 { return n.seed }

// Perlin2D возвращает значение шума Перлина для указанных координат (от 0 до 1)
func (n *Noise) Perlin2D(x, y float64) float64 {
	v := (n.perlin.Noise2D(x, y) + 1.0) / 2.0
	return Clamp01(v)
}

// Simplex2D возвращает значение шума OpenSimplex (от 0 до 1)
func (n *Noise) Simplex2D(x, y float64) float64 {
	return Clamp01(n.simplex.Eval2(x, y))
}

// Clamp01 ограничивает значение диапазоном 0..1
func Clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
