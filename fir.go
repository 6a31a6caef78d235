package fixpoint

import (
	"fmt"

	"github.com/tphakala/go-fixpoint/internal/wide"
)

// FIR simulates a direct-form FIR filter in exact fixed-point arithmetic.
//
// Each input sample is quantized to QI, multiplied with the QCB taps,
// optionally requantized per product to QMul, summed at full precision,
// requantized to QACC and finally to QO. State is carried across Process
// calls, so a long signal may be fed in chunks.
//
// A FIR is not safe for concurrent use.
type FIR struct {
	cfg      Config
	dp       *datapath
	b        CoefficientSet
	prodWF   int
	sumWF    int
	regs     []int64 // past quantized inputs, newest first
	n        int
	observer Observer
}

// NewFIR validates cfg and returns a simulator with a cleared delay line.
// cfg is copied; later changes to the caller's value have no effect.
func NewFIR(cfg Config) (*FIR, error) {
	cfg = cfg.Clone()
	if err := cfg.Validate(KindFIR); err != nil {
		return nil, err
	}

	dp, err := newDatapath(cfg)
	if err != nil {
		return nil, err
	}
	b, err := QuantizeCoefficients(cfg.B, cfg.QCB)
	if err != nil {
		return nil, err
	}

	sumWF, _ := cfg.termWF(KindFIR)
	return &FIR{
		cfg:    cfg,
		dp:     dp,
		b:      b,
		prodWF: cfg.QI.WF + cfg.QCB.WF,
		sumWF:  sumWF,
		regs:   make([]int64, len(cfg.B)-1),
	}, nil
}

// SimulateFIR runs x through a fresh FIR built from cfg.
func SimulateFIR(x []float64, cfg Config) (Result, error) {
	f, err := NewFIR(cfg)
	if err != nil {
		return Result{}, err
	}
	return f.Run(x)
}

// Process filters x and returns the reconstructed output samples.
// Non-finite input is rejected before any state changes.
func (f *FIR) Process(x []float64) ([]float64, error) {
	res, err := f.Run(x)
	if err != nil {
		return nil, err
	}
	return res.Output, nil
}

// ProcessInt is like Process but returns the output integers, scaled by
// 2^QO.WF.
func (f *FIR) ProcessInt(x []float64) ([]int64, error) {
	res, err := f.Run(x)
	if err != nil {
		return nil, err
	}
	return res.Ints, nil
}

// Impulse resets the filter and returns its response to a single sample of
// the given amplitude followed by n-1 zeros.
func (f *FIR) Impulse(amplitude float64, n int) ([]float64, error) {
	f.Reset()
	return f.Process(impulse(amplitude, n))
}

// Reset clears the delay line, the sample index and the datapath overflow
// counters. Coefficient overflows are a property of the taps and are kept.
func (f *FIR) Reset() {
	clear(f.regs)
	f.n = 0
	f.dp.reset()
}

// SetState loads the delay line from zi, newest sample first, quantized to
// QI. A short zi is zero padded and a long one truncated.
func (f *FIR) SetState(zi []float64) error {
	return loadState(f.regs, zi, f.cfg.QI)
}

// State returns the delay line contents, newest sample first.
func (f *FIR) State() []float64 {
	return reconstruct(f.regs, f.cfg.QI.WF)
}

// SetCoefficients replaces the taps without touching the delay line.
// The number of taps must not change.
func (f *FIR) SetCoefficients(b []float64) error {
	if len(b) != len(f.cfg.B) {
		return fmt.Errorf("%w: have %d taps, got %d", ErrCoefficientLength, len(f.cfg.B), len(b))
	}
	set, err := QuantizeCoefficients(b, f.cfg.QCB)
	if err != nil {
		return err
	}
	f.cfg.B = append(f.cfg.B[:0], b...)
	f.b = set
	return nil
}

// Coefficients returns the quantized taps.
func (f *FIR) Coefficients() CoefficientSet {
	return f.b
}

// Config returns a copy of the configuration in use.
func (f *FIR) Config() Config {
	return f.cfg.Clone()
}

// Overflows returns the counters accumulated since the last Reset.
func (f *FIR) Overflows() Overflows {
	o := f.dp.overflows()
	o.Coeff = f.b.Overflows
	return o
}

// SetObserver installs fn to receive every subsequent step. Nil disables
// tracing.
func (f *FIR) SetObserver(fn Observer) {
	f.observer = fn
}

// Run filters x like Process and returns outputs, integers and the
// overflow counters accumulated since the last Reset.
func (f *FIR) Run(x []float64) (Result, error) {
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

func (f *FIR) step(x float64) (Step, error) {
	xq, err := f.dp.qi.Quantize(x)
	if err != nil {
		return Step{}, err
	}

	var sum wide.Int128
	for i, c := range f.b.Ints {
		d := xq.Int
		if i > 0 {
			d = f.regs[i-1]
		}
		sum = sum.Add(f.dp.product(c, d, f.prodWF))
	}

	acc, y := f.dp.finish(sum, f.sumWF)
	pushFront(f.regs, xq.Int)

	st := Step{N: f.n, X: x, XQ: xq, Acc: acc, Y: y}
	f.n++
	if f.observer != nil {
		f.observer(st)
	}
	return st, nil
}
