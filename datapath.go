package fixpoint

import (
	"fmt"
	"math"

	"github.com/tphakala/go-fixpoint/internal/wide"
)

// datapath holds the quantization points shared by the FIR and IIR
// simulators: input, optional product, accumulator and output.
type datapath struct {
	qi   *Quantizer
	qo   *Quantizer
	qacc *Quantizer
	qmul *Quantizer // nil: full-precision products
}

func newDatapath(cfg Config) (*datapath, error) {
	d := &datapath{}
	var err error
	if d.qi, err = NewQuantizer(cfg.QI); err != nil {
		return nil, err
	}
	if d.qo, err = NewQuantizer(cfg.QO); err != nil {
		return nil, err
	}
	if d.qacc, err = NewQuantizer(cfg.QACC); err != nil {
		return nil, err
	}
	if cfg.QMul != nil {
		if d.qmul, err = NewQuantizer(*cfg.QMul); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// product returns c*x as it enters the accumulator. prodWF is the
// fractional width of the raw product.
func (d *datapath) product(c, x int64, prodWF int) wide.Int128 {
	p := wide.Mul64(c, x)
	if d.qmul == nil {
		return p
	}
	return wide.FromInt64(d.qmul.requantize(p, prodWF).Int)
}

// finish requantizes the exact sum to the accumulator and then to the
// output format.
func (d *datapath) finish(sum wide.Int128, sumWF int) (acc, y Sample) {
	acc = d.qacc.requantize(sum, sumWF)
	y = d.qo.requantize(wide.FromInt64(acc.Int), d.qacc.spec.WF)
	return acc, y
}

func (d *datapath) overflows() Overflows {
	o := Overflows{
		Input:       d.qi.Overflows(),
		Accumulator: d.qacc.Overflows(),
		Output:      d.qo.Overflows(),
	}
	if d.qmul != nil {
		o.Product = d.qmul.Overflows()
	}
	return o
}

func (d *datapath) reset() {
	d.qi.ResetOverflows()
	d.qo.ResetOverflows()
	d.qacc.ResetOverflows()
	if d.qmul != nil {
		d.qmul.ResetOverflows()
	}
}

// loadState quantizes zi into regs without counting overflows. Missing
// entries are zero, extra entries are ignored.
func loadState(regs []int64, zi []float64, spec QSpec) error {
	zi = zi[:min(len(zi), len(regs))]
	if i := checkFinite(zi); i >= 0 {
		return fmt.Errorf("state[%d]: %w: %v", i, ErrNonFiniteInput, zi[i])
	}
	clear(regs)
	for i, v := range zi {
		s, err := quantize(v, spec)
		if err != nil {
			return fmt.Errorf("state[%d]: %w", i, err)
		}
		regs[i] = s.Int
	}
	return nil
}

func reconstruct(regs []int64, wf int) []float64 {
	out := make([]float64, len(regs))
	for i, v := range regs {
		out[i] = math.Ldexp(float64(v), -wf)
	}
	return out
}

// pushFront shifts the delay line by one and stores v as the newest entry.
func pushFront(regs []int64, v int64) {
	if len(regs) == 0 {
		return
	}
	copy(regs[1:], regs[:len(regs)-1])
	regs[0] = v
}

// checkFinite returns the index of the first NaN or Inf in x, or -1.
func checkFinite(x []float64) int {
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return i
		}
	}
	return -1
}

func impulse(amplitude float64, n int) []float64 {
	x := make([]float64, n)
	if n > 0 {
		x[0] = amplitude
	}
	return x
}
