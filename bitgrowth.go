package fixpoint

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tphakala/go-fixpoint/internal/mathutil"
)

// AccuMode selects how the accumulator word length is chosen.
type AccuMode int

// Accumulator sizing modes.
const (
	// AccuManual keeps the configured accumulator format.
	AccuManual AccuMode = iota + 1
	// AccuAuto adds ceil(log2(sum|c|)) guard bits, bounded by the
	// coefficient area.
	AccuAuto
	// AccuFull adds ceil(log2(N)) guard bits for N taps, the worst case
	// without any magnitude cancellation.
	AccuFull
)

func (m AccuMode) String() string {
	switch m {
	case AccuManual:
		return "man"
	case AccuAuto:
		return "auto"
	case AccuFull:
		return "full"
	default:
		return fmt.Sprintf("AccuMode(%d)", int(m))
	}
}

// ParseAccuMode parses "man", "manual", "auto" or "full".
func ParseAccuMode(s string) (AccuMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "man", "manual":
		return AccuManual, nil
	case "auto":
		return AccuAuto, nil
	case "full":
		return AccuFull, nil
	default:
		return 0, fmt.Errorf("%w: accumulator mode %q", ErrUnsupportedPolicy, s)
	}
}

// DefaultAccumulatorFormat returns Q0.31, the 32-bit accumulator used when
// nothing better is known.
func DefaultAccumulatorFormat() WordFormat {
	return NewWordFormat(defaultAccuWI, defaultAccuWF)
}

// EstimateOption configures EstimateAccumulatorFormat.
type EstimateOption func(*estimateOptions)

type estimateOptions struct {
	fallback *WordFormat
}

// WithFallback makes degenerate (empty or all-zero) coefficients yield f
// instead of ErrDegenerateCoefficients.
func WithFallback(f WordFormat) EstimateOption {
	return func(o *estimateOptions) {
		o.fallback = &f
	}
}

// EstimateAccumulatorFormat sizes an accumulator for a sum of products of
// coeffs (quantized to coeff) with samples in the input format:
//
//	WI = input.WI + coeff.WI + guard
//	WF = input.WF + coeff.WF
//
// with guard bits chosen by mode. The result is a pure function of its
// arguments.
func EstimateAccumulatorFormat(coeffs []float64, input, coeff WordFormat, mode AccuMode, opts ...EstimateOption) (WordFormat, error) {
	if err := input.Validate(); err != nil {
		return WordFormat{}, fmt.Errorf("input format: %w", err)
	}
	if err := coeff.Validate(); err != nil {
		return WordFormat{}, fmt.Errorf("coefficient format: %w", err)
	}

	guard, fallback, err := guardBits(coeffs, mode, opts)
	if err != nil {
		return WordFormat{}, err
	}
	if fallback != nil {
		return *fallback, nil
	}

	return checkedFormat(input.WI+coeff.WI+guard, input.WF+coeff.WF)
}

// EstimateIIRAccumulatorFormat sizes the single DF1 accumulator that holds
// both the feedforward sum (input x b) and the feedback sum (output x a).
// Guard bits come from the combined coefficient set b ++ a; integer and
// fractional parts cover the wider of the two paths.
func EstimateIIRAccumulatorFormat(b, a []float64, input, output, coeffB, coeffA WordFormat, mode AccuMode, opts ...EstimateOption) (WordFormat, error) {
	formats := []struct {
		name string
		f    WordFormat
	}{
		{"input", input}, {"output", output}, {"b coefficient", coeffB}, {"a coefficient", coeffA},
	}
	for _, nf := range formats {
		if err := nf.f.Validate(); err != nil {
			return WordFormat{}, fmt.Errorf("%s format: %w", nf.name, err)
		}
	}

	guard, fallback, err := guardBits(slices.Concat(b, a), mode, opts)
	if err != nil {
		return WordFormat{}, err
	}
	if fallback != nil {
		return *fallback, nil
	}

	wi := max(input.WI+coeffB.WI, output.WI+coeffA.WI) + guard
	wf := max(input.WF+coeffB.WF, output.WF+coeffA.WF)
	return checkedFormat(wi, wf)
}

// EstimateFeedbackIntBits returns ceil(log2(max|a_j|)), the integer bits
// the largest feedback coefficient needs.
func EstimateFeedbackIntBits(a []float64) (int, error) {
	if !mathutil.AllFinite(a) {
		return 0, fmt.Errorf("%w: feedback coefficients", ErrNonFiniteInput)
	}
	peak := mathutil.MaxAbs(a)
	if peak == 0 {
		return 0, fmt.Errorf("%w: feedback coefficients are all zero", ErrDegenerateCoefficients)
	}
	return mathutil.CeilLog2(peak), nil
}

// guardBits returns the extra integer bits for mode, or the fallback format
// when the coefficients are degenerate and a fallback was requested.
func guardBits(coeffs []float64, mode AccuMode, opts []EstimateOption) (int, *WordFormat, error) {
	var o estimateOptions
	for _, opt := range opts {
		opt(&o)
	}

	if mode != AccuAuto && mode != AccuFull {
		return 0, nil, fmt.Errorf("%w: cannot estimate in %v mode", ErrUnsupportedPolicy, mode)
	}
	if !mathutil.AllFinite(coeffs) {
		return 0, nil, fmt.Errorf("%w: coefficients", ErrNonFiniteInput)
	}

	area := mathutil.L1Norm(coeffs)
	if area == 0 {
		if o.fallback != nil {
			return 0, o.fallback, nil
		}
		return 0, nil, fmt.Errorf("%w: %d coefficients, sum|c| = 0", ErrDegenerateCoefficients, len(coeffs))
	}

	if mode == AccuFull {
		return mathutil.CeilLog2Int(len(coeffs)), nil, nil
	}
	return mathutil.CeilLog2(area), nil, nil
}

func checkedFormat(wi, wf int) (WordFormat, error) {
	f := NewWordFormat(wi, wf)
	if err := f.Validate(); err != nil {
		return WordFormat{}, fmt.Errorf("accumulator %v: %w", f, err)
	}
	return f, nil
}
