package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoiseDeterministic(t *testing.T) {
	a, b := NewNoise(42), NewNoise(42)
	for i := 0; i < 20; i++ {
		x, y := float64(i)*0.37, float64(i)*0.11
		assert.Equal(t, a.Perlin2D(x, y), b.Perlin2D(x, y))
		assert.Equal(t, a.Simplex2D(x, y), b.Simplex2D(x, y))
	}
	assert.Equal(t, int64(42), a.Seed())
}

func TestNoiseRange(t *testing.T) {
	n := NewNoise(7)
	for i := 0; i < 200; i++ {
		x, y := float64(i)*0.13, float64(i)*0.29
		p := n.Perlin2D(x, y)
		s := n.Simplex2D(x, y)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.5))
	assert.Equal(t, 1.0, Clamp01(1.5))
	assert.Equal(t, 0.25, Clamp01(0.25))
}
