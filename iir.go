package fixpoint

import (
	"fmt"

	"github.com/tphakala/go-fixpoint/internal/wide"
)

// IIR simulates a direct-form I IIR filter in exact fixed-point arithmetic:
//
//	acc = sum b[i]*x[n-i] - sum a[j]*y[n-1-j]
//
// where a holds the normalized feedback taps without a[0]. The accumulator
// is requantized to QACC and then to QO; the QO value is what enters the
// output delay line. Feedforward and feedback products are aligned to a
// common binary point before they are summed, so a single accumulator
// covers both paths.
//
// An IIR is not safe for concurrent use.
type IIR struct {
	cfg      Config
	dp       *datapath
	b        CoefficientSet
	a        CoefficientSet
	prodWFB  int
	prodWFA  int
	alignB   uint
	alignA   uint
	sumWF    int
	xregs    []int64 // past quantized inputs, newest first
	yregs    []int64 // past outputs, newest first
	n        int
	observer Observer
}

// NewIIR validates cfg and returns a simulator with cleared delay lines.
// cfg is copied; later changes to the caller's value have no effect.
func NewIIR(cfg Config) (*IIR, error) {
	cfg = cfg.Clone()
	if err := cfg.Validate(KindIIR); err != nil {
		return nil, err
	}

	dp, err := newDatapath(cfg)
	if err != nil {
		return nil, err
	}
	b, err := QuantizeCoefficients(cfg.B, cfg.QCB)
	if err != nil {
		return nil, fmt.Errorf("b %w", err)
	}
	a, err := QuantizeCoefficients(cfg.A, cfg.QCA)
	if err != nil {
		return nil, fmt.Errorf("a %w", err)
	}

	wfB, wfA := cfg.termWF(KindIIR)
	sumWF := max(wfB, wfA)
	return &IIR{
		cfg:     cfg,
		dp:      dp,
		b:       b,
		a:       a,
		prodWFB: cfg.QI.WF + cfg.QCB.WF,
		prodWFA: cfg.QO.WF + cfg.QCA.WF,
		alignB:  uint(sumWF - wfB),
		alignA:  uint(sumWF - wfA),
		sumWF:   sumWF,
		xregs:   make([]int64, len(cfg.B)-1),
		yregs:   make([]int64, len(cfg.A)),
	}, nil
}

// SimulateIIR runs x through a fresh IIR built from cfg.
func SimulateIIR(x []float64, cfg Config) (Result, error) {
	f, err := NewIIR(cfg)
	if err != nil {
		return Result{}, err
	}
	return f.Run(x)
}

// Process filters x and returns the reconstructed output samples.
// Non-finite input is rejected before any state changes.
func (f *IIR) Process(x []float64) ([]float64, error) {
	res, err := f.Run(x)
	if err != nil {
		return nil, err
	}
	return res.Output, nil
}

// ProcessInt is like Process but returns the output integers, scaled by
// 2^QO.WF.
func (f *IIR) ProcessInt(x []float64) ([]int64, error) {
	res, err := f.Run(x)
	if err != nil {
		return nil, err
	}
	return res.Ints, nil
}

// Impulse resets the filter and returns the first n samples of its
// response to a single sample of the given amplitude.
func (f *IIR) Impulse(amplitude float64, n int) ([]float64, error) {
	f.Reset()
	return f.Process(impulse(amplitude, n))
}

// Reset clears both delay lines, the sample index and the datapath
// overflow counters. Coefficient overflows are kept.
func (f *IIR) Reset() {
	clear(f.xregs)
	clear(f.yregs)
	f.n = 0
	f.dp.reset()
}

// SetState loads the input delay line from zb (quantized to QI) and the
// output delay line from za (quantized to QO), newest sample first. Short
// slices are zero padded, long ones truncated.
func (f *IIR) SetState(zb, za []float64) error {
	if i := checkFinite(za[:min(len(za), len(f.yregs))]); i >= 0 {
		return fmt.Errorf("output state[%d]: %w: %v", i, ErrNonFiniteInput, za[i])
	}
	if err := loadState(f.xregs, zb, f.cfg.QI); err != nil {
		return fmt.Errorf("input %w", err)
	}
	if err := loadState(f.yregs, za, f.cfg.QO); err != nil {
		return fmt.Errorf("output %w", err)
	}
	return nil
}

// State returns the input and output delay lines, newest sample first.
func (f *IIR) State() (zb, za []float64) {
	return reconstruct(f.xregs, f.cfg.QI.WF), reconstruct(f.yregs, f.cfg.QO.WF)
}

// SetCoefficients replaces both tap sets without touching the delay lines.
// Neither length may change.
func (f *IIR) SetCoefficients(b, a []float64) error {
	if len(b) != len(f.cfg.B) || len(a) != len(f.cfg.A) {
		return fmt.Errorf("%w: have %d/%d taps, got %d/%d",
			ErrCoefficientLength, len(f.cfg.B), len(f.cfg.A), len(b), len(a))
	}
	bs, err := QuantizeCoefficients(b, f.cfg.QCB)
	if err != nil {
		return fmt.Errorf("b %w", err)
	}
	as, err := QuantizeCoefficients(a, f.cfg.QCA)
	if err != nil {
		return fmt.Errorf("a %w", err)
	}
	f.cfg.B = append(f.cfg.B[:0], b...)
	f.cfg.A = append(f.cfg.A[:0], a...)
	f.b, f.a = bs, as
	return nil
}

// Coefficients returns the quantized feedforward and feedback taps.
func (f *IIR) Coefficients() (b, a CoefficientSet) {
	return f.b, f.a
}

// Config returns a copy of the configuration in use.
func (f *IIR) Config() Config {
	return f.cfg.Clone()
}

// Overflows returns the counters accumulated since the last Reset.
// Coeff covers both tap sets.
func (f *IIR) Overflows() Overflows {
	o := f.dp.overflows()
	o.Coeff = f.b.Overflows + f.a.Overflows
	return o
}

// SetObserver installs fn to receive every subsequent step. Nil disables
// tracing.
func (f *IIR) SetObserver(fn Observer) {
	f.observer = fn
}

// Run filters x like Process and returns outputs, integers and the
// overflow counters accumulated since the last Reset.
func (f *IIR) Run(x []float64) (Result, error) {
	if i := checkFinite(x); i >= 0 {
		return Result{}, &SimulationError{Step: f.n + i, Err: fmt.Errorf("%w: %v", ErrNonFiniteInput, x[i])}
	}

	res := Result{
		Output: make([]float64, len(x)),
		Ints:   make([]int64, len(x)),
	}
	for i, v := range x {
		st, err := f.step(v)
		if err != nil {
			return Result{}, &SimulationError{Step: f.n, Err: err}
		}
		res.Output[i] = st.Y.Value
		res.Ints[i] = st.Y.Int
	}
	res.Overflows = f.Overflows()
	return res, nil
}

func (f *IIR) step(x float64) (Step, error) {
	xq, err := f.dp.qi.Quantize(x)
	if err != nil {
		return Step{}, err
	}

	var sumB wide.Int128
	for i, c := range f.b.Ints {
		d := xq.Int
		if i > 0 {
			d = f.xregs[i-1]
		}
		sumB = sumB.Add(f.dp.product(c, d, f.prodWFB))
	}

	var sumA wide.Int128
	for j, c := range f.a.Ints {
		sumA = sumA.Add(f.dp.product(c, f.yregs[j], f.prodWFA))
	}

	sum := sumB.Lsh(f.alignB).Sub(sumA.Lsh(f.alignA))
	acc, y := f.dp.finish(sum, f.sumWF)

	pushFront(f.xregs, xq.Int)
	pushFront(f.yregs, y.Int)

	st := Step{N: f.n, X: x, XQ: xq, Acc: acc, Y: y}
	f.n++
	if f.observer != nil {
		f.observer(st)
	}
	return st, nil
}
