// Package reference implements floating-point Direct Form I filters.
//
// They compute the same difference equation as the fixed-point simulators
// without any quantization and serve as the ideal signal when measuring
// quantization noise.
package reference

import (
	"errors"
	"slices"

	"github.com/tphakala/go-fixpoint/internal/simdops"
)

// ErrNoTaps is returned when a filter has no feedforward coefficients.
var ErrNoTaps = errors.New("reference: no feedforward coefficients")

// Filter is a DF1 filter y[n] = sum b[i]x[n-i] - sum a[j]y[n-1-j].
// The a taps exclude the leading 1. A filter without a taps is an FIR.
// Filter is not safe for concurrent use.
type Filter[F simdops.Float] struct {
	ops *simdops.Ops[F]

	// Coefficients reversed so a dot product with an oldest-first window
	// lines up with the difference equation.
	bRev []F
	aRev []F

	// Signal histories, oldest first, followed by the current block.
	xs []F
	ys []F
}

// Filter64 is the double precision reference.
type Filter64 = Filter[float64]

// New creates a reference filter. b must not be empty.
func New[F simdops.Float](b, a []float64) (*Filter[F], error) {
	if len(b) == 0 {
		return nil, ErrNoTaps
	}
	f := &Filter[F]{
		ops:  simdops.For[F](),
		bRev: simdops.Widen[F](nil, b),
		aRev: simdops.Widen[F](nil, a),
	}
	slices.Reverse(f.bRev)
	slices.Reverse(f.aRev)
	f.Reset()
	return f, nil
}

// Reset zeroes the filter history.
func (f *Filter[F]) Reset() {
	f.xs = make([]F, len(f.bRev)-1)
	f.ys = make([]F, len(f.aRev))
}

// Process filters a block, carrying state across calls.
func (f *Filter[F]) Process(x []float64) []float64 {
	nb := len(f.bRev)
	na := len(f.aRev)
	n := len(x)
	if n == 0 {
		return []float64{}
	}

	for _, v := range x {
		f.xs = append(f.xs, F(v))
	}

	y := make([]F, n)
	if na == 0 {
		f.ops.ConvolveValid(y, f.xs, f.bRev)
	} else {
		f.ys = append(f.ys[:na], y...)
		for i := range n {
			acc := f.ops.DotProductUnsafe(f.bRev, f.xs[i:i+nb])
			acc -= f.ops.DotProductUnsafe(f.aRev, f.ys[i:i+na])
			f.ys[na+i] = acc
		}
		copy(y, f.ys[na:])
		f.ys = slices.Clone(f.ys[n:])
	}
	f.xs = slices.Clone(f.xs[n:])

	out := make([]float64, n)
	for i, v := range y {
		out[i] = float64(v)
	}
	return out
}

// DCGain returns sum(b) / (1 + sum(a)), the response at zero frequency.
// A pole at DC gives ±Inf, or NaN when a zero cancels it.
func (f *Filter[F]) DCGain() float64 {
	num := float64(f.ops.Sum(f.bRev))
	den := 1 + float64(f.ops.Sum(f.aRev))
	return num / den
}

// Run filters x through a fresh double precision reference filter.
func Run(b, a, x []float64) ([]float64, error) {
	f, err := New[float64](b, a)
	if err != nil {
		return nil, err
	}
	return f.Process(x), nil
}
