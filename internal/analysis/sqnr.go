package analysis

import (
	"fmt"
	"math"

	"github.com/tphakala/simd/f64"
)

// SQNR returns the signal to quantization noise ratio in dB of got against
// the ideal signal want. Identical signals give +Inf.
func SQNR(want, got []float64) (float64, error) {
	if len(want) != len(got) {
		return 0, fmt.Errorf("analysis: signal lengths differ: %d != %d", len(want), len(got))
	}
	if len(want) == 0 {
		return 0, fmt.Errorf("%w: no samples", ErrEmptyInput)
	}

	noise := make([]float64, len(want))
	for i := range want {
		noise[i] = got[i] - want[i]
	}
	signalPower := f64.DotProduct(want, want)
	noisePower := f64.DotProduct(noise, noise)

	if noisePower == 0 {
		return math.Inf(1), nil
	}
	return 10 * math.Log10(signalPower/noisePower), nil
}

// IdealSQNR is the SQNR of a full-scale sine quantized by rounding to a
// word of w bits: 6.02*w + 1.76 dB.
func IdealSQNR(w int) float64 {
	return 20*math.Log10(2)*float64(w) + 10*math.Log10(1.5)
}
