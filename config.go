package fixpoint

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tphakala/go-fixpoint/internal/mathutil"
)

// Kind selects the filter structure a Config describes.
type Kind int

// Filter kinds.
const (
	KindFIR Kind = iota + 1
	KindIIR
)

func (k Kind) String() string {
	switch k {
	case KindFIR:
		return "fir"
	case KindIIR:
		return "iir"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses "fir" or "iir".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fir":
		return KindFIR, nil
	case "iir":
		return KindIIR, nil
	default:
		return 0, fmt.Errorf("%w: filter kind %q", ErrInvalidConfig, s)
	}
}

// Config holds every quantization point of a DF1 filter together with its
// real-valued coefficients.
//
// A is the normalized feedback sequence a[1:], without a[0]; use
// NormalizeTransferFunction to obtain it from a full denominator. FIR
// filters leave A empty and ignore QCA.
type Config struct {
	QI   QSpec // input
	QO   QSpec // output, also the fed-back value of IIR filters
	QCB  QSpec // feedforward coefficients
	QCA  QSpec // feedback coefficients
	QACC QSpec // accumulator

	// QMul optionally quantizes each partial product before it enters the
	// accumulator. Nil keeps products at full precision.
	QMul *QSpec

	B []float64
	A []float64
}

// DefaultConfig returns a Q0.15 datapath with a Q0.31 accumulator, all
// wrap/floor, for a single unity tap.
func DefaultConfig() Config {
	coeff := QSpec{WordFormat: NewWordFormat(DefaultCoeffWI, DefaultCoeffWF), Policy: DefaultPolicy()}
	return Config{
		QI:   coeff,
		QO:   coeff,
		QCB:  coeff,
		QCA:  coeff,
		QACC: QSpec{WordFormat: DefaultAccumulatorFormat(), Policy: DefaultPolicy()},
		B:    []float64{1},
	}
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	out := c
	out.B = slices.Clone(c.B)
	out.A = slices.Clone(c.A)
	if c.QMul != nil {
		m := *c.QMul
		out.QMul = &m
	}
	return out
}

// Validate checks that c describes a simulatable filter of the given kind.
func (c Config) Validate(kind Kind) error {
	if kind != KindFIR && kind != KindIIR {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, kind)
	}

	for _, p := range c.points(kind) {
		if err := p.spec.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, p.name, err)
		}
		if p.datapath && p.spec.W > MaxDatapathWordLength {
			return fmt.Errorf("%w: %s: %s is wider than %d bits",
				ErrInvalidConfig, p.name, p.spec.WordFormat, MaxDatapathWordLength)
		}
	}

	if len(c.B) == 0 {
		return fmt.Errorf("%w: at least one b coefficient is required", ErrInvalidConfig)
	}
	switch kind {
	case KindFIR:
		if len(c.A) != 0 {
			return fmt.Errorf("%w: FIR filter with %d feedback taps", ErrInvalidConfig, len(c.A))
		}
	case KindIIR:
		if len(c.A) == 0 {
			return fmt.Errorf("%w: IIR filter needs at least one feedback tap", ErrInvalidConfig)
		}
	}
	if !mathutil.AllFinite(c.B) || !mathutil.AllFinite(c.A) {
		return fmt.Errorf("%w: %w: coefficients", ErrInvalidConfig, ErrNonFiniteInput)
	}

	if bits := c.sumBits(kind); bits >= maxSumBits {
		return fmt.Errorf("%w: sum of products needs %d bits, limit is %d", ErrInvalidConfig, bits, maxSumBits-1)
	}
	return nil
}

// AutoSizeAccumulator returns a copy of c whose QACC format is estimated
// from the coefficients with the given mode. AccuManual returns an
// unchanged copy. The accumulator policy is kept.
func (c Config) AutoSizeAccumulator(kind Kind, mode AccuMode, opts ...EstimateOption) (Config, error) {
	out := c.Clone()
	if mode == AccuManual {
		return out, nil
	}

	var (
		f   WordFormat
		err error
	)
	switch kind {
	case KindFIR:
		f, err = EstimateAccumulatorFormat(c.B, c.QI.WordFormat, c.QCB.WordFormat, mode, opts...)
	case KindIIR:
		f, err = EstimateIIRAccumulatorFormat(c.B, c.A, c.QI.WordFormat, c.QO.WordFormat,
			c.QCB.WordFormat, c.QCA.WordFormat, mode, opts...)
	default:
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, kind)
	}
	if err != nil {
		return Config{}, err
	}

	out.QACC.WordFormat = f
	return out, nil
}

// AutoSizeFeedbackCoefficients returns a copy of c whose QCA integer bits
// are set to ceil(log2(max|a_j|)). The fractional bits are kept and W is
// recomputed.
func (c Config) AutoSizeFeedbackCoefficients() (Config, error) {
	wi, err := EstimateFeedbackIntBits(c.A)
	if err != nil {
		return Config{}, err
	}

	out := c.Clone()
	out.QCA.WordFormat = NewWordFormat(wi, c.QCA.WF)
	if err := out.QCA.WordFormat.Validate(); err != nil {
		return Config{}, fmt.Errorf("feedback coefficients: %w", err)
	}
	return out, nil
}

type quantPoint struct {
	name     string
	spec     QSpec
	datapath bool
}

func (c Config) points(kind Kind) []quantPoint {
	pts := []quantPoint{
		{"input", c.QI, true},
		{"output", c.QO, true},
		{"b coefficients", c.QCB, true},
		{"accumulator", c.QACC, false},
	}
	if kind == KindIIR {
		pts = append(pts, quantPoint{"a coefficients", c.QCA, true})
	}
	if c.QMul != nil {
		pts = append(pts, quantPoint{"product", *c.QMul, true})
	}
	return pts
}

// sumBits bounds the signed width of the exact sum of products, including
// the left shift that aligns feedforward and feedback terms.
func (c Config) sumBits(kind Kind) int {
	termB := c.QI.W + c.QCB.W
	if c.QMul != nil {
		termB = c.QMul.W
	}
	if kind == KindFIR {
		return termB + mathutil.CeilLog2Int(len(c.B))
	}

	termA := c.QO.W + c.QCA.W
	if c.QMul != nil {
		termA = c.QMul.W
	}
	wfB, wfA := c.termWF(kind)
	wf := max(wfB, wfA)
	width := max(termB+wf-wfB, termA+wf-wfA)
	return width + mathutil.CeilLog2Int(len(c.B)+len(c.A))
}

// termWF returns the fractional bits of feedforward and feedback products
// as they enter the accumulator.
func (c Config) termWF(kind Kind) (wfB, wfA int) {
	if c.QMul != nil {
		return c.QMul.WF, c.QMul.WF
	}
	wfB = c.QI.WF + c.QCB.WF
	if kind == KindIIR {
		wfA = c.QO.WF + c.QCA.WF
	}
	return wfB, wfA
}
