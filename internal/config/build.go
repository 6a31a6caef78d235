package config

import (
	"fmt"
	"slices"
	"strconv"

	fixpoint "github.com/tphakala/go-fixpoint"
)

// Build turns the file into a validated simulator configuration. The
// transfer function is normalized by a[0], then automatic coefficient and
// accumulator sizing is applied.
func (f *File) Build() (fixpoint.Config, fixpoint.Kind, error) {
	kind, err := f.kind()
	if err != nil {
		return fixpoint.Config{}, 0, err
	}

	cfg := fixpoint.DefaultConfig()
	blocks := []struct {
		name string
		q    *Quant
		dst  *fixpoint.QSpec
	}{
		{"input", f.Input, &cfg.QI},
		{"output", f.Output, &cfg.QO},
		{"coeff_b", f.CoeffB, &cfg.QCB},
		{"coeff_a", f.CoeffA, &cfg.QCA},
		{"accu", f.Accu, &cfg.QACC},
	}
	for _, b := range blocks {
		spec, err := b.q.spec(*b.dst)
		if err != nil {
			return fixpoint.Config{}, 0, fmt.Errorf("config: %s: %w", b.name, err)
		}
		*b.dst = spec
	}
	if f.Product != nil {
		mul, err := f.Product.spec(cfg.QACC)
		if err != nil {
			return fixpoint.Config{}, 0, fmt.Errorf("config: product: %w", err)
		}
		cfg.QMul = &mul
	}

	cfg.B, cfg.A = slices.Clone(f.B), nil
	if len(f.A) > 0 {
		cfg.B, cfg.A, err = fixpoint.NormalizeTransferFunction(f.B, f.A)
		if err != nil {
			return fixpoint.Config{}, 0, fmt.Errorf("config: %w", err)
		}
	}

	coeffMode, err := f.CoeffA.mode()
	switch {
	case err != nil:
		return fixpoint.Config{}, 0, fmt.Errorf("config: coeff_a: %w", err)
	case coeffMode == fixpoint.AccuFull:
		return fixpoint.Config{}, 0, fmt.Errorf("config: coeff_a: %w: mode %v", fixpoint.ErrUnsupportedPolicy, coeffMode)
	case coeffMode == fixpoint.AccuAuto && kind == fixpoint.KindIIR:
		if cfg, err = cfg.AutoSizeFeedbackCoefficients(); err != nil {
			return fixpoint.Config{}, 0, fmt.Errorf("config: coeff_a: %w", err)
		}
	}

	accuMode, err := f.Accu.mode()
	if err != nil {
		return fixpoint.Config{}, 0, fmt.Errorf("config: accu: %w", err)
	}
	if cfg, err = cfg.AutoSizeAccumulator(kind, accuMode); err != nil {
		return fixpoint.Config{}, 0, fmt.Errorf("config: accu: %w", err)
	}

	if err := cfg.Validate(kind); err != nil {
		return fixpoint.Config{}, 0, fmt.Errorf("config: %w", err)
	}
	return cfg, kind, nil
}

// kind returns the declared kind, or infers IIR from feedback taps.
func (f *File) kind() (fixpoint.Kind, error) {
	if f.Kind != "" {
		k, err := fixpoint.ParseKind(f.Kind)
		if err != nil {
			return 0, fmt.Errorf("config: %w", err)
		}
		return k, nil
	}
	if len(f.A) > 1 {
		return fixpoint.KindIIR, nil
	}
	return fixpoint.KindFIR, nil
}

// spec overlays q on def. A nil block returns def.
func (q *Quant) spec(def fixpoint.QSpec) (fixpoint.QSpec, error) {
	if q == nil {
		return def, nil
	}
	out := def

	wi, wf := def.WI, def.WF
	if q.Q != "" {
		wfmt, err := fixpoint.ParseQ(q.Q)
		if err != nil {
			return fixpoint.QSpec{}, err
		}
		wi, wf = wfmt.WI, wfmt.WF
	}
	if q.WI != nil {
		wi = *q.WI
	}
	if q.WF != nil {
		wf = *q.WF
	}
	out.WordFormat = fixpoint.NewWordFormat(wi, wf)

	if q.Ovfl != "" {
		m, err := fixpoint.ParseOverflow(q.Ovfl)
		if err != nil {
			return fixpoint.QSpec{}, err
		}
		out.Overflow = m
	}
	if q.Quant != "" {
		m, err := fixpoint.ParseRounding(q.Quant)
		if err != nil {
			return fixpoint.QSpec{}, err
		}
		out.Rounding = m
	}
	return out, out.Validate()
}

// mode returns the sizing mode of the block, manual when unset.
func (q *Quant) mode() (fixpoint.AccuMode, error) {
	if q == nil || q.Mode == "" {
		return fixpoint.AccuManual, nil
	}
	return fixpoint.ParseAccuMode(q.Mode)
}

// FromConfig returns the file form of cfg. Feedback taps are written as the
// full denominator with a[0] = 1.
func FromConfig(cfg fixpoint.Config, kind fixpoint.Kind) *File {
	f := &File{
		Kind:   kind.String(),
		Input:  quantOf(cfg.QI),
		Output: quantOf(cfg.QO),
		CoeffB: quantOf(cfg.QCB),
		Accu:   quantOf(cfg.QACC),
		B:      cfg.B,
	}
	if kind == fixpoint.KindIIR {
		f.CoeffA = quantOf(cfg.QCA)
		f.A = append([]float64{1}, cfg.A...)
	}
	if cfg.QMul != nil {
		f.Product = quantOf(*cfg.QMul)
	}
	return f
}

func quantOf(s fixpoint.QSpec) *Quant {
	return &Quant{
		Q:     strconv.Itoa(s.WI) + "." + strconv.Itoa(s.WF),
		Ovfl:  s.Overflow.String(),
		Quant: s.Rounding.String(),
	}
}
