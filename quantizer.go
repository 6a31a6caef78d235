package fixpoint

import (
	"fmt"
	"math"

	"github.com/tphakala/go-fixpoint/internal/wide"
)

// Sample is one quantized value.
type Sample struct {
	// Int is the integer representation, scaled by 2^WF.
	Int int64
	// Value is Int / 2^WF, the reconstructed real value.
	Value float64
	// Overflow is set when the value was wrapped or saturated.
	Overflow bool
}

// Quantize maps x onto the fixed-point grid of spec.
//
// The scaled value x*2^WF is rounded per spec.Rounding, then brought into
// [-2^(W-1), 2^(W-1)-1] per spec.Overflow. Leaving the range is reported in
// Sample.Overflow and is not an error.
func Quantize(x float64, spec QSpec) (Sample, error) {
	if err := spec.Validate(); err != nil {
		return Sample{}, err
	}
	return quantize(x, spec)
}

// QuantizeSlice quantizes each element of xs and returns the parallel
// samples plus the number of elements that overflowed.
func QuantizeSlice(xs []float64, spec QSpec) ([]Sample, int, error) {
	if err := spec.Validate(); err != nil {
		return nil, 0, err
	}

	out := make([]Sample, len(xs))
	var overflows int
	for i, x := range xs {
		s, err := quantize(x, spec)
		if err != nil {
			return nil, 0, fmt.Errorf("element %d: %w", i, err)
		}
		if s.Overflow {
			overflows++
		}
		out[i] = s
	}
	return out, overflows, nil
}

// Requantize converts v, an integer scaled by 2^fromWF, into spec using
// exact integer arithmetic.
func Requantize(v int64, fromWF int, spec QSpec) (Sample, error) {
	if err := spec.Validate(); err != nil {
		return Sample{}, err
	}
	r, ovf := requantize(wide.FromInt64(v), fromWF, spec)
	return Sample{Int: r, Value: math.Ldexp(float64(r), -spec.WF), Overflow: ovf}, nil
}

// HardwareOutputShift returns the number of accumulator LSBs a hardware
// output stage drops when it takes the top out.W bits of an acc.W-bit
// accumulator. An output at least as wide as the accumulator needs no shift,
// so the result is never negative.
func HardwareOutputShift(acc, out WordFormat) int {
	return max(0, acc.W-out.W)
}

// Quantizer applies one QSpec repeatedly and counts overflows across calls.
// It is not safe for concurrent use.
type Quantizer struct {
	spec      QSpec
	overflows int
}

// NewQuantizer validates spec and returns a Quantizer for it.
func NewQuantizer(spec QSpec) (*Quantizer, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &Quantizer{spec: spec}, nil
}

// Spec returns the quantization point.
func (q *Quantizer) Spec() QSpec {
	return q.spec
}

// Quantize quantizes x and counts an overflow if one occurred.
func (q *Quantizer) Quantize(x float64) (Sample, error) {
	s, err := quantize(x, q.spec)
	if err != nil {
		return Sample{}, err
	}
	if s.Overflow {
		q.overflows++
	}
	return s, nil
}

// QuantizeSlice quantizes every element of xs. On error nothing is counted.
func (q *Quantizer) QuantizeSlice(xs []float64) ([]Sample, error) {
	out, n, err := QuantizeSlice(xs, q.spec)
	if err != nil {
		return nil, err
	}
	q.overflows += n
	return out, nil
}

// Requantize converts v, scaled by 2^fromWF, into the quantizer's format.
func (q *Quantizer) Requantize(v int64, fromWF int) Sample {
	return q.requantize(wide.FromInt64(v), fromWF)
}

// Overflows returns the number of overflows since construction or the last
// ResetOverflows.
func (q *Quantizer) Overflows() int {
	return q.overflows
}

// ResetOverflows clears the overflow counter.
func (q *Quantizer) ResetOverflows() {
	q.overflows = 0
}

func (q *Quantizer) requantize(v wide.Int128, fromWF int) Sample {
	r, ovf := requantize(v, fromWF, q.spec)
	if ovf {
		q.overflows++
	}
	return Sample{Int: r, Value: math.Ldexp(float64(r), -q.spec.WF), Overflow: ovf}
}

func quantize(x float64, spec QSpec) (Sample, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Sample{}, fmt.Errorf("%w: %v", ErrNonFiniteInput, x)
	}

	r := roundFloat(math.Ldexp(x, spec.WF), spec.Rounding)

	var (
		out      int64
		overflow bool
		limit    = math.Ldexp(1, spec.W-1)
	)
	switch {
	case r >= limit || r < -limit:
		overflow = true
		if spec.Overflow == Saturate {
			if r > 0 {
				out = spec.Max()
			} else {
				out = spec.Min()
			}
			break
		}
		if math.IsInf(r, 0) {
			// x*2^WF is finite but beyond float64: a multiple of 2^971,
			// and so of 2^W, which wraps to zero.
			out = 0
			break
		}
		// Both operands are integers, so Mod and the range fold are exact.
		span := 2 * limit
		m := math.Mod(r, span)
		if m >= limit {
			m -= span
		} else if m < -limit {
			m += span
		}
		out = int64(m)
	default:
		out = int64(r)
	}

	return Sample{Int: out, Value: math.Ldexp(float64(out), -spec.WF), Overflow: overflow}, nil
}

func roundFloat(x float64, mode RoundingMode) float64 {
	switch mode {
	case Round:
		return math.Floor(x + 0.5)
	case Fix:
		return math.Trunc(x)
	case RoundEven:
		return math.RoundToEven(x)
	default:
		return math.Floor(x)
	}
}

// requantize moves v from fromWF fractional bits into spec. Dropped
// fractional bits are rounded per spec.Rounding; when spec has at least as
// many fractional bits no right shift happens and v is scaled up exactly.
// |v| must be below 2^(maxSumBits-1).
func requantize(v wide.Int128, fromWF int, spec QSpec) (int64, bool) {
	shift := fromWF - spec.WF

	var r wide.Int128
	if shift > 0 {
		r = shiftRightRounded(v, uint(shift), spec.Rounding)
	} else {
		up := -shift
		if v.Sign() != 0 && v.BitLen()+up >= maxSumBits {
			// Beyond any supported word length: overflows in every format.
			return overflowResult(v, up, spec), true
		}
		r = v.Lsh(uint(up))
	}

	if r.Cmp(wide.FromInt64(spec.Max())) > 0 || r.Cmp(wide.FromInt64(spec.Min())) < 0 {
		if spec.Overflow == Saturate {
			if r.Sign() > 0 {
				return spec.Max(), true
			}
			return spec.Min(), true
		}
		return r.WrapBits(spec.W), true
	}
	return r.Int64(), false
}

func overflowResult(v wide.Int128, up int, spec QSpec) int64 {
	if spec.Overflow == Saturate {
		if v.Sign() > 0 {
			return spec.Max()
		}
		return spec.Min()
	}
	// The low word of the shifted value is exact even when high bits are lost.
	return v.Lsh(uint(up)).WrapBits(spec.W)
}

// shiftRightRounded divides v by 2^n with the given rounding.
func shiftRightRounded(v wide.Int128, n uint, mode RoundingMode) wide.Int128 {
	if n >= maxSumBits {
		// |v| < 2^126, so only floor of a negative value is non-zero.
		if mode == Floor && v.Sign() < 0 {
			return wide.FromInt64(-1)
		}
		return wide.Int128{}
	}

	switch mode {
	case Round:
		return v.Add(wide.One.Lsh(n - 1)).Rsh(n)
	case Fix:
		if v.Sign() < 0 {
			return v.Neg().Rsh(n).Neg()
		}
		return v.Rsh(n)
	case RoundEven:
		q := v.Rsh(n)
		rem := v.Sub(q.Lsh(n))
		half := wide.One.Lsh(n - 1)
		if c := rem.Cmp(half); c > 0 || (c == 0 && q.Lo&1 == 1) {
			q = q.Add(wide.One)
		}
		return q
	default:
		return v.Rsh(n)
	}
}
