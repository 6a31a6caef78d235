package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	fixpoint "github.com/tphakala/go-fixpoint"
)

const (
	testFFTSize  = 64
	magTolerance = 1e-12
)

func TestFrequencyResponseFIR(t *testing.T) {
	r, err := FrequencyResponse([]float64{0.5, 0.5}, nil, testFFTSize)
	require.NoError(t, err)
	require.Len(t, r.H, testFFTSize/2+1)
	assert.InDelta(t, 0.0, r.Freq[0], 0)
	assert.InDelta(t, 0.5, r.Freq[len(r.Freq)-1], 0)

	// |H(f)| = |cos(pi f)| for the two-tap average.
	mag := r.Magnitude()
	for k, f := range r.Freq {
		assert.InDelta(t, math.Abs(math.Cos(math.Pi*f)), mag[k], magTolerance, "f=%g", f)
	}
	assert.InDelta(t, MagnitudeDB(minMagnitude), r.MagnitudeDB()[len(mag)-1], 1e-9)

	// Linear phase: -pi f for the half-sample delay.
	phase := r.Phase()
	assert.InDelta(t, -math.Pi*r.Freq[8], phase[8], magTolerance)
}

func TestFrequencyResponseIIR(t *testing.T) {
	r, err := FrequencyResponse([]float64{1}, []float64{1, -0.5}, testFFTSize)
	require.NoError(t, err)

	mag := r.Magnitude()
	assert.InDelta(t, 2.0, mag[0], magTolerance)
	assert.InDelta(t, 1/1.5, mag[len(mag)-1], magTolerance)
}

func TestFrequencyResponseSizing(t *testing.T) {
	b := make([]float64, 100)
	b[0] = 1
	r, err := FrequencyResponse(b, nil, 10)
	require.NoError(t, err)
	assert.Len(t, r.H, 128/2+1, "rounded up to hold the coefficients")

	r, err = FrequencyResponse([]float64{1}, nil, 0)
	require.NoError(t, err)
	assert.Len(t, r.H, DefaultFFTSize/2+1)

	_, err = FrequencyResponse(nil, nil, testFFTSize)
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestCompare(t *testing.T) {
	want, err := FrequencyResponse([]float64{0.25, 0.5, 0.25}, nil, testFFTSize)
	require.NoError(t, err)

	c, err := Compare(want, want)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, c.MaxDeviationDB, 0)

	got, err := FrequencyResponse([]float64{0.5, 1, 0.5}, nil, testFFTSize)
	require.NoError(t, err)
	c, err = Compare(want, got)
	require.NoError(t, err)
	assert.InDelta(t, 20*math.Log10(2), c.MaxDeviationDB, 1e-9)
	assert.Less(t, c.Bins, len(want.H), "the Nyquist null is skipped")

	short, err := FrequencyResponse([]float64{1}, nil, 8)
	require.NoError(t, err)
	_, err = Compare(want, short)
	require.Error(t, err)
}

func TestCompareConfig(t *testing.T) {
	cfg := fixpoint.DefaultConfig()
	cfg.B = []float64{0.25, 0.5, 0.25}
	cfg.A = []float64{-0.5}

	c, err := CompareConfig(cfg, testFFTSize)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, c.MaxDeviationDB, 1e-9, "dyadic taps quantize exactly")

	cfg.QCB = fixpoint.NewQSpec(0, 3, fixpoint.Saturate, fixpoint.Round)
	cfg.B = []float64{0.3, 0.3}
	c, err = CompareConfig(cfg, testFFTSize)
	require.NoError(t, err)
	// 0.3 rounds to 0.25 on the 1/8 grid: a flat 20*log10(0.25/0.3) shift.
	assert.InDelta(t, -20*math.Log10(0.25/0.3), c.MaxDeviationDB, 1e-6)

	cfg.QCB = fixpoint.QSpec{}
	_, err = CompareConfig(cfg, testFFTSize)
	require.Error(t, err)
}
