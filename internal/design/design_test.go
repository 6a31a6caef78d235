package design

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-fixpoint/internal/testutil"
)

const (
	testTaps        = 63
	testCutoff      = 0.1
	testStopband    = 0.2
	coeffTolerance  = 1e-12
	stopbandFloorDB = -40.0
)

// magnitudeDB evaluates |B(e^jw)/A(e^jw)| in dB at normalized frequency f.
func magnitudeDB(b, a []float64, f float64) float64 {
	eval := func(c []float64) complex128 {
		var h complex128
		for n, v := range c {
			h += complex(v, 0) * cmplx.Exp(complex(0, -2*math.Pi*f*float64(n)))
		}
		return h
	}
	h := eval(b)
	if len(a) > 0 {
		h /= eval(a)
	}
	return 20 * math.Log10(cmplx.Abs(h))
}

func TestLowpassWindows(t *testing.T) {
	for _, w := range []Window{Kaiser, Hann, Hamming, Blackman} {
		t.Run(w.String(), func(t *testing.T) {
			taps, err := Lowpass(LowpassParams{
				NumTaps:     testTaps,
				Cutoff:      testCutoff,
				Window:      w,
				Attenuation: DefaultAttenuation,
			})
			require.NoError(t, err)
			require.Len(t, taps, testTaps)

			testutil.AssertNoNaNOrInf(t, taps)
			testutil.AssertSymmetric(t, taps, coeffTolerance)
			testutil.AssertDCGain(t, taps, 1, coeffTolerance)

			assert.Less(t, magnitudeDB(taps, nil, testStopband), stopbandFloorDB)
			assert.InDelta(t, 0, magnitudeDB(taps, nil, testCutoff/4), 0.5)
		})
	}
}

func TestLowpassRectangularHasCenterPeak(t *testing.T) {
	taps, err := Lowpass(LowpassParams{NumTaps: 5, Cutoff: 0.25, Window: Rectangular})
	require.NoError(t, err)

	center := taps[2]
	for i, v := range taps {
		if i != 2 {
			assert.Less(t, v, center)
		}
	}
	testutil.AssertDCGain(t, taps, 1, coeffTolerance)
}

func TestLowpassValidate(t *testing.T) {
	tests := []struct {
		name   string
		params LowpassParams
	}{
		{"too short", LowpassParams{NumTaps: 2, Cutoff: 0.1, Window: Hann}},
		{"too long", LowpassParams{NumTaps: maxTaps + 1, Cutoff: 0.1, Window: Hann}},
		{"zero cutoff", LowpassParams{NumTaps: 11, Cutoff: 0, Window: Hann}},
		{"nyquist cutoff", LowpassParams{NumTaps: 11, Cutoff: 0.5, Window: Hann}},
		{"nan cutoff", LowpassParams{NumTaps: 11, Cutoff: math.NaN(), Window: Hann}},
		{"no window", LowpassParams{NumTaps: 11, Cutoff: 0.1}},
		{"negative attenuation", LowpassParams{NumTaps: 11, Cutoff: 0.1, Window: Kaiser, Attenuation: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lowpass(tt.params)
			require.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestKaiserLowpassMeetsAttenuation(t *testing.T) {
	const (
		attenuation  = 70.0
		transitionBW = 0.05
	)
	taps, err := KaiserLowpass(testCutoff, transitionBW, attenuation)
	require.NoError(t, err)
	assert.Equal(t, 1, len(taps)%2, "odd length")

	for _, f := range []float64{0.14, 0.2, 0.3, 0.45} {
		assert.Less(t, magnitudeDB(taps, nil, f), -attenuation+6, "f=%g", f)
	}
}

func TestKaiserWindow(t *testing.T) {
	assert.Empty(t, KaiserWindow(0, 5))
	assert.Equal(t, []float64{1}, KaiserWindow(1, 5))

	w := KaiserWindow(21, 8)
	testutil.AssertSymmetric(t, w, coeffTolerance)
	assert.InDelta(t, 1.0, w[10], coeffTolerance)
	assert.Less(t, w[0], 0.01)

	// beta 0 is the rectangular window.
	for _, v := range KaiserWindow(9, 0) {
		assert.InDelta(t, 1.0, v, coeffTolerance)
	}
}

func TestBiquadLowpass(t *testing.T) {
	b, a, err := BiquadLowpass(testCutoff, DefaultQ)
	require.NoError(t, err)
	require.Len(t, b, 3)
	require.Len(t, a, 3)
	assert.InDelta(t, 1.0, a[0], 0)

	assert.InDelta(t, 0, magnitudeDB(b, a, 0), 1e-9, "unity DC gain")
	assert.InDelta(t, -3.01, magnitudeDB(b, a, testCutoff), 0.01, "Butterworth -3 dB point")
	assert.Less(t, magnitudeDB(b, a, 0.4), -20.0)

	// Poles inside the unit circle: |a2| < 1 and |a1| < 1 + a2.
	assert.Less(t, math.Abs(a[2]), 1.0)
	assert.Less(t, math.Abs(a[1]), 1+a[2])

	_, _, err = BiquadLowpass(0.6, DefaultQ)
	require.ErrorIs(t, err, ErrInvalidParams)
	_, _, err = BiquadLowpass(0.1, 0)
	require.ErrorIs(t, err, ErrInvalidParams)
}

func TestParseWindow(t *testing.T) {
	for _, w := range []Window{Kaiser, Hann, Hamming, Blackman, Rectangular} {
		got, err := ParseWindow(w.String())
		require.NoError(t, err)
		assert.Equal(t, w, got)
	}
	got, err := ParseWindow(" Boxcar ")
	require.NoError(t, err)
	assert.Equal(t, Rectangular, got)

	_, err = ParseWindow("tukey")
	require.ErrorIs(t, err, ErrInvalidParams)
}
