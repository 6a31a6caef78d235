package fixpoint

import (
	"fmt"
	"math"
	"slices"

	"github.com/tphakala/go-fixpoint/internal/mathutil"
)

// CoefficientSet is a coefficient sequence quantized under one shared spec.
type CoefficientSet struct {
	Spec QSpec
	// Ints holds each coefficient scaled by 2^Spec.WF.
	Ints []int64
	// Overflows counts coefficients that did not fit the format.
	Overflows int
}

// QuantizeCoefficients quantizes each coefficient independently.
func QuantizeCoefficients(c []float64, spec QSpec) (CoefficientSet, error) {
	samples, n, err := QuantizeSlice(c, spec)
	if err != nil {
		return CoefficientSet{}, fmt.Errorf("coefficients: %w", err)
	}

	ints := make([]int64, len(samples))
	for i, s := range samples {
		ints[i] = s.Int
	}
	return CoefficientSet{Spec: spec, Ints: ints, Overflows: n}, nil
}

// Len returns the number of coefficients.
func (c CoefficientSet) Len() int {
	return len(c.Ints)
}

// Values reconstructs the quantized coefficients as reals.
func (c CoefficientSet) Values() []float64 {
	out := make([]float64, len(c.Ints))
	for i, v := range c.Ints {
		out[i] = math.Ldexp(float64(v), -c.Spec.WF)
	}
	return out
}

// NormalizeTransferFunction divides b and a by a[0] and returns the
// normalized numerator together with the feedback taps a[1:].
func NormalizeTransferFunction(b, a []float64) (num, fb []float64, err error) {
	if len(a) == 0 || a[0] == 0 {
		return nil, nil, fmt.Errorf("%w: a[0] must be non-zero", ErrDegenerateCoefficients)
	}
	if !mathutil.AllFinite(b) || !mathutil.AllFinite(a) {
		return nil, nil, fmt.Errorf("%w: transfer function", ErrNonFiniteInput)
	}

	a0 := a[0]
	num = slices.Clone(b)
	for i := range num {
		num[i] /= a0
	}
	fb = slices.Clone(a[1:])
	for i := range fb {
		fb[i] /= a0
	}
	return num, fb, nil
}
