package fixpoint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func iirTestConfig() Config {
	cfg := DefaultConfig()
	cfg.B = []float64{0.2, 0.4, 0.2}
	cfg.A = []float64{-0.6, 0.25}
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate(KindFIR))
	assert.Equal(t, "Q0.15", cfg.QI.WordFormat.String())
	assert.Equal(t, "Q0.31", cfg.QACC.WordFormat.String())
	assert.Nil(t, cfg.QMul)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		mutate  func(*Config)
		wantErr error
	}{
		{"valid iir", KindIIR, func(*Config) {}, nil},
		{"unknown kind", Kind(7), func(*Config) {}, ErrInvalidConfig},
		{"fir with feedback", KindFIR, func(*Config) {}, ErrInvalidConfig},
		{"iir without feedback", KindIIR, func(c *Config) { c.A = nil }, ErrInvalidConfig},
		{"no b", KindIIR, func(c *Config) { c.B = nil }, ErrInvalidConfig},
		{"broken input format", KindIIR, func(c *Config) { c.QI.W = 3 }, ErrInvalidFormat},
		{"missing policy", KindIIR, func(c *Config) { c.QO.Policy = Policy{} }, ErrUnsupportedPolicy},
		{"input too wide", KindIIR, func(c *Config) { c.QI = NewQSpec(0, 32, Wrap, Floor) }, ErrInvalidConfig},
		{"wide accumulator ok", KindIIR, func(c *Config) { c.QACC = NewQSpec(10, 53, Wrap, Floor) }, nil},
		{"nan coefficient", KindIIR, func(c *Config) { c.B[1] = math.NaN() }, ErrNonFiniteInput},
		{"product too wide", KindIIR, func(c *Config) {
			q := NewQSpec(0, 40, Wrap, Floor)
			c.QMul = &q
		}, ErrInvalidConfig},
		{"valid product", KindIIR, func(c *Config) {
			q := NewQSpec(1, 30, Saturate, Round)
			c.QMul = &q
		}, nil},
		{"feedback alignment overflows sum", KindIIR, func(c *Config) {
			c.QI = NewQSpec(31, 0, Wrap, Floor)
			c.QCB = NewQSpec(31, 0, Wrap, Floor)
			c.QO = NewQSpec(-10, 31, Wrap, Floor)
			c.QCA = NewQSpec(-10, 31, Wrap, Floor)
		}, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := iirTestConfig()
			tt.mutate(&cfg)
			err := cfg.Validate(tt.kind)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := iirTestConfig()
	q := NewQSpec(0, 20, Wrap, Floor)
	cfg.QMul = &q

	c := cfg.Clone()
	c.B[0] = 99
	c.A[0] = 99
	c.QMul.WF = 3

	assert.InDelta(t, 0.2, cfg.B[0], 0)
	assert.InDelta(t, -0.6, cfg.A[0], 0)
	assert.Equal(t, 20, cfg.QMul.WF)
}

func TestAutoSizeAccumulator(t *testing.T) {
	cfg := DefaultConfig()
	cfg.B = []float64{0.5, 0.5, 0.5, 0.5}
	cfg.QACC.Overflow = Saturate

	full, err := cfg.AutoSizeAccumulator(KindFIR, AccuFull)
	require.NoError(t, err)
	assert.Equal(t, NewWordFormat(2, 30), full.QACC.WordFormat)
	assert.Equal(t, Saturate, full.QACC.Overflow, "policy is kept")

	auto, err := cfg.AutoSizeAccumulator(KindFIR, AccuAuto)
	require.NoError(t, err)
	assert.Equal(t, NewWordFormat(1, 30), auto.QACC.WordFormat)

	manual, err := cfg.AutoSizeAccumulator(KindFIR, AccuManual)
	require.NoError(t, err)
	assert.Equal(t, cfg.QACC, manual.QACC)

	// The receiver is unchanged.
	assert.Equal(t, DefaultAccumulatorFormat(), cfg.QACC.WordFormat)

	iir, err := iirTestConfig().AutoSizeAccumulator(KindIIR, AccuAuto)
	require.NoError(t, err)
	assert.Equal(t, NewWordFormat(1, 30), iir.QACC.WordFormat) // area 1.65

	zero := DefaultConfig()
	zero.B = []float64{0, 0}
	_, err = zero.AutoSizeAccumulator(KindFIR, AccuAuto)
	require.ErrorIs(t, err, ErrDegenerateCoefficients)
}

func TestAutoSizeFeedbackCoefficients(t *testing.T) {
	cfg := DefaultConfig()
	cfg.A = []float64{-1.8, 0.81}

	out, err := cfg.AutoSizeFeedbackCoefficients()
	require.NoError(t, err)
	assert.Equal(t, NewWordFormat(1, 15), out.QCA.WordFormat)
	assert.Equal(t, NewWordFormat(0, 15), cfg.QCA.WordFormat)

	// The taps now fit without overflow.
	set, err := QuantizeCoefficients(out.A, out.QCA)
	require.NoError(t, err)
	assert.Zero(t, set.Overflows)

	cfg.A = []float64{0}
	_, err = cfg.AutoSizeFeedbackCoefficients()
	require.ErrorIs(t, err, ErrDegenerateCoefficients)
}

func TestQuantizeCoefficients(t *testing.T) {
	set, err := QuantizeCoefficients([]float64{0.5, -0.25, 1.0}, NewQSpec(0, 3, Saturate, Round))
	require.NoError(t, err)
	assert.Equal(t, []int64{4, -2, 7}, set.Ints)
	assert.Equal(t, 1, set.Overflows)
	assert.Equal(t, 3, set.Len())
	assert.Equal(t, []float64{0.5, -0.25, 0.875}, set.Values())
}

func TestNormalizeTransferFunction(t *testing.T) {
	b, a, err := NormalizeTransferFunction([]float64{2, 4}, []float64{2, -1, 0.5})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, b)
	assert.Equal(t, []float64{-0.5, 0.25}, a)

	_, _, err = NormalizeTransferFunction([]float64{1}, []float64{0, 1})
	require.ErrorIs(t, err, ErrDegenerateCoefficients)

	_, _, err = NormalizeTransferFunction([]float64{1}, nil)
	require.ErrorIs(t, err, ErrDegenerateCoefficients)

	_, _, err = NormalizeTransferFunction([]float64{math.Inf(1)}, []float64{1})
	require.ErrorIs(t, err, ErrNonFiniteInput)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("IIR")
	require.NoError(t, err)
	assert.Equal(t, KindIIR, k)
	assert.Equal(t, "fir", KindFIR.String())

	_, err = ParseKind("lattice")
	require.ErrorIs(t, err, ErrInvalidConfig)
}
