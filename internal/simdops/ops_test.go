package simdops

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForReturnsMatchingOps(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{0.5, 0.5, 0.5, 0.5, 0.5}

	ops := For[float64]()
	assert.InDelta(t, 7.5, ops.DotProductUnsafe(a, b), 1e-12)
	assert.InDelta(t, 15.0, ops.Sum(a), 1e-12)

	ops32 := For[float32]()
	a32 := Widen[float32](nil, a)
	assert.InDelta(t, 15.0, float64(ops32.Sum(a32)), 1e-5)
}

func TestConvolveValidIsCorrelation(t *testing.T) {
	signal := []float64{1, 2, 3, 4}
	kernel := []float64{1, 10}
	dst := make([]float64, len(signal)-len(kernel)+1)

	For[float64]().ConvolveValid(dst, signal, kernel)
	assert.Equal(t, []float64{21, 32, 43}, dst)
}

func TestWidenReusesBuffer(t *testing.T) {
	buf := make([]float32, 0, 8)
	out := Widen(buf, []float64{0.25, -1})
	assert.Equal(t, []float32{0.25, -1}, out)
	assert.Equal(t, 8, cap(out))
}
