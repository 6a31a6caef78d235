package fixpoint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-fixpoint/internal/testutil"
)

// onePoleConfig is y[n] = x[n] + 0.5*y[n-1] with wide formats.
func onePoleConfig() Config {
	return Config{
		QI:   NewQSpec(2, 8, Wrap, Floor),
		QO:   NewQSpec(2, 8, Wrap, Floor),
		QCB:  NewQSpec(1, 8, Wrap, Floor),
		QCA:  NewQSpec(1, 8, Wrap, Floor),
		QACC: NewQSpec(4, 16, Wrap, Floor),
		B:    []float64{1},
		A:    []float64{-0.5},
	}
}

func TestIIROnePole(t *testing.T) {
	res, err := SimulateIIR([]float64{1, 0, 0, 0}, onePoleConfig())
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 0.5, 0.25, 0.125}, res.Output)
	assert.Equal(t, []int64{256, 128, 64, 32}, res.Ints)
	assert.Zero(t, res.Overflows.Total())
}

func TestIIROnePoleDecaysToResolution(t *testing.T) {
	f, err := NewIIR(onePoleConfig())
	require.NoError(t, err)

	out, err := f.Impulse(1, 12)
	require.NoError(t, err)

	// 2^-n until the Q2.8 grid runs out, then floor keeps it at zero.
	for n, v := range out {
		want := math.Ldexp(1, -n)
		if n > 8 {
			want = 0
		}
		assert.InDelta(t, want, v, 0, "n=%d", n)
	}
	testutil.AssertOnGrid(t, out, 8)
}

func TestIIRMatchesFloatWhenWide(t *testing.T) {
	// Biquad with dyadic coefficients so the float recurrence is exact.
	cfg := Config{
		QI:   NewQSpec(0, 12, Wrap, Floor),
		QO:   NewQSpec(4, 27, Wrap, Floor),
		QCB:  NewQSpec(1, 8, Wrap, Floor),
		QCA:  NewQSpec(1, 8, Wrap, Floor),
		QACC: NewQSpec(8, 40, Wrap, Floor),
		B:    []float64{0.25, 0.5, 0.25},
		A:    []float64{-0.5, 0.125},
	}
	x := []float64{1, 0, 0, 0, 0, 0, 0, 0}

	res, err := SimulateIIR(x, cfg)
	require.NoError(t, err)

	y := make([]float64, len(x))
	for n := range x {
		acc := 0.0
		for i, c := range cfg.B {
			if n-i >= 0 {
				acc += c * x[n-i]
			}
		}
		for j, c := range cfg.A {
			if n-1-j >= 0 {
				acc -= c * y[n-1-j]
			}
		}
		// The output stage floors to 27 fractional bits.
		y[n] = math.Floor(math.Ldexp(acc, 27)) / math.Ldexp(1, 27)
	}
	assert.Equal(t, y, res.Output)
	assert.Zero(t, res.Overflows.Total())
}

func TestIIRFeedbackUsesOutputFormat(t *testing.T) {
	// A coarse output format truncates the fed-back value, so the response
	// differs from one computed with the accumulator value.
	cfg := onePoleConfig()
	cfg.QO = NewQSpec(2, 1, Wrap, Floor) // resolution 0.5

	res, err := SimulateIIR([]float64{0.75, 0, 0}, cfg)
	require.NoError(t, err)

	// y0 = floor(0.75) on the 0.5 grid = 0.5, y1 = 0.25 -> 0, y2 = 0.
	assert.Equal(t, []float64{0.5, 0, 0}, res.Output)
}

func TestIIRAlignsMixedBinaryPoints(t *testing.T) {
	// Feedforward products carry 12 fractional bits, feedback products 20.
	cfg := Config{
		QI:   NewQSpec(3, 4, Saturate, Floor),
		QO:   NewQSpec(3, 12, Saturate, Floor),
		QCB:  NewQSpec(1, 8, Saturate, Floor),
		QCA:  NewQSpec(1, 8, Saturate, Floor),
		QACC: NewQSpec(6, 20, Saturate, Floor),
		B:    []float64{0.5},
		A:    []float64{-0.25},
	}

	res, err := SimulateIIR([]float64{1, 1, 1}, cfg)
	require.NoError(t, err)
	// y = x/2 + y/4: 0.5, 0.625, 0.65625
	assert.Equal(t, []float64{0.5, 0.625, 0.65625}, res.Output)
}

func TestIIRSaturation(t *testing.T) {
	cfg := onePoleConfig()
	cfg.A = []float64{-0.99}
	cfg.QO = NewQSpec(1, 8, Saturate, Floor)
	cfg.QACC = NewQSpec(1, 16, Saturate, Floor)

	x := make([]float64, 50)
	for i := range x {
		x[i] = 1
	}
	res, err := SimulateIIR(x, cfg)
	require.NoError(t, err)

	assert.Positive(t, res.Overflows.Accumulator)
	lo, hi := cfg.QO.Range()
	testutil.AssertWithinRange(t, res.Output, lo, hi)
	assert.InDelta(t, hi, res.Output[len(res.Output)-1], 0)
}

func TestIIRStreamingMatchesOneShot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.B = []float64{0.0675, 0.135, 0.0675}
	cfg.A = []float64{-1.143, 0.4128}
	cfg, err := cfg.AutoSizeFeedbackCoefficients()
	require.NoError(t, err)
	cfg, err = cfg.AutoSizeAccumulator(KindIIR, AccuAuto)
	require.NoError(t, err)

	x := testutil.Sine(2000, 0.02, 0.8)
	oneShot, err := SimulateIIR(x, cfg)
	require.NoError(t, err)

	f, err := NewIIR(cfg)
	require.NoError(t, err)
	var streamed []float64
	for start := 0; start < len(x); start += 333 {
		out, err := f.Process(x[start:min(start+333, len(x))])
		require.NoError(t, err)
		streamed = append(streamed, out...)
	}
	assert.Equal(t, oneShot.Output, streamed)

	f.Reset()
	again, err := f.Process(x)
	require.NoError(t, err)
	assert.Equal(t, oneShot.Output, again)
}

func TestIIRSetState(t *testing.T) {
	f, err := NewIIR(onePoleConfig())
	require.NoError(t, err)

	// Continue a response that was at y = 1.
	require.NoError(t, f.SetState(nil, []float64{1}))
	zb, za := f.State()
	assert.Empty(t, zb)
	assert.Equal(t, []float64{1}, za)

	out, err := f.Process([]float64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.25}, out)

	require.ErrorIs(t, f.SetState(nil, []float64{math.NaN()}), ErrNonFiniteInput)
	_, za = f.State()
	assert.Equal(t, []float64{0.25}, za, "failed SetState leaves registers alone")
}

func TestIIRSetCoefficients(t *testing.T) {
	f, err := NewIIR(onePoleConfig())
	require.NoError(t, err)

	require.NoError(t, f.SetCoefficients([]float64{0.5}, []float64{0.5}))
	out, err := f.Process([]float64{1, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -0.25}, out)

	b, a := f.Coefficients()
	assert.Equal(t, []int64{128}, b.Ints)
	assert.Equal(t, []int64{128}, a.Ints)

	err = f.SetCoefficients([]float64{1}, []float64{0.5, 0.1})
	require.ErrorIs(t, err, ErrCoefficientLength)
}

func TestIIRCoefficientOverflowCounted(t *testing.T) {
	cfg := onePoleConfig()
	cfg.A = []float64{-1.8, 0.81}
	cfg.B = []float64{2.5} // outside Q1.8

	f, err := NewIIR(cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, f.Overflows().Coeff)

	f.Reset()
	assert.Equal(t, 1, f.Overflows().Coeff, "coefficient overflows survive Reset")
}

func TestNewIIRInvalid(t *testing.T) {
	cfg := onePoleConfig()
	cfg.A = nil
	_, err := NewIIR(cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)

	cfg = onePoleConfig()
	cfg.QCA.Policy = Policy{}
	_, err = SimulateIIR([]float64{1}, cfg)
	require.ErrorIs(t, err, ErrUnsupportedPolicy)
}

func BenchmarkIIR(b *testing.B) {
	const numSamples = 4096

	cfg := DefaultConfig()
	cfg.B = []float64{0.0675, 0.135, 0.0675}
	cfg.A = []float64{-1.143, 0.4128}
	cfg.QCA = NewQSpec(1, 14, Wrap, Floor)
	x := testutil.Sine(numSamples, 0.01, 0.5)

	f, err := NewIIR(cfg)
	if err != nil {
		b.Fatalf("NewIIR failed: %v", err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := f.Process(x); err != nil {
			b.Fatalf("Process failed: %v", err)
		}
	}
}
