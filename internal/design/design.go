// Package design produces floating-point test coefficients for the
// fixed-point simulators: windowed-sinc lowpass FIRs and RBJ biquads.
//
// Frequencies are normalized to the sample rate, so Nyquist is 0.5.
package design

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tphakala/go-fixpoint/internal/mathutil"
	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	minTaps = 3
	maxTaps = 8191

	// DefaultAttenuation is the Kaiser stopband attenuation in dB.
	DefaultAttenuation = 60.0

	// DefaultQ is the Butterworth quality factor of a single biquad.
	DefaultQ = math.Sqrt2 / 2

	sincZeroThreshold = 1e-10
)

// ErrInvalidParams is returned for out of range design parameters.
var ErrInvalidParams = errors.New("design: invalid parameters")

// Window selects the taper applied to the ideal sinc.
type Window int

const (
	Kaiser Window = iota + 1
	Hann
	Hamming
	Blackman
	Rectangular
)

var windowNames = map[Window]string{
	Kaiser:      "kaiser",
	Hann:        "hann",
	Hamming:     "hamming",
	Blackman:    "blackman",
	Rectangular: "rect",
}

func (w Window) String() string {
	if s, ok := windowNames[w]; ok {
		return s
	}
	return fmt.Sprintf("Window(%d)", int(w))
}

// ParseWindow parses a window name.
func ParseWindow(s string) (Window, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for w, name := range windowNames {
		if s == name {
			return w, nil
		}
	}
	if s == "rectangular" || s == "boxcar" {
		return Rectangular, nil
	}
	return 0, fmt.Errorf("%w: unknown window %q", ErrInvalidParams, s)
}

// LowpassParams describes a windowed-sinc lowpass FIR.
type LowpassParams struct {
	// NumTaps is the filter length. Odd lengths give a centered peak.
	NumTaps int

	// Cutoff is the -6 dB frequency in (0, 0.5).
	Cutoff float64

	Window Window

	// Attenuation sets the Kaiser beta in dB; other windows ignore it.
	Attenuation float64
}

// Validate checks the parameters.
func (p *LowpassParams) Validate() error {
	if p.NumTaps < minTaps || p.NumTaps > maxTaps {
		return fmt.Errorf("%w: %d taps (must be %d to %d)", ErrInvalidParams, p.NumTaps, minTaps, maxTaps)
	}
	if !(p.Cutoff > 0 && p.Cutoff < 0.5) {
		return fmt.Errorf("%w: cutoff %g (must be in (0, 0.5))", ErrInvalidParams, p.Cutoff)
	}
	if _, ok := windowNames[p.Window]; !ok {
		return fmt.Errorf("%w: window %v", ErrInvalidParams, p.Window)
	}
	if p.Window == Kaiser && p.Attenuation < 0 {
		return fmt.Errorf("%w: attenuation %g dB", ErrInvalidParams, p.Attenuation)
	}
	return nil
}

// Lowpass designs a linear-phase lowpass FIR normalized to unity DC gain.
func Lowpass(p LowpassParams) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	taps := make([]float64, p.NumTaps)
	center := float64(p.NumTaps-1) / 2
	for n := range taps {
		x := float64(n) - center
		if math.Abs(x) < sincZeroThreshold {
			taps[n] = 2 * p.Cutoff
			continue
		}
		taps[n] = math.Sin(2*math.Pi*p.Cutoff*x) / (math.Pi * x)
	}

	switch p.Window {
	case Kaiser:
		w := KaiserWindow(p.NumTaps, mathutil.KaiserBeta(p.Attenuation))
		for i := range taps {
			taps[i] *= w[i]
		}
	case Hann:
		window.Hann(taps)
	case Hamming:
		window.Hamming(taps)
	case Blackman:
		window.Blackman(taps)
	case Rectangular:
	}

	if sum := f64.Sum(taps); math.Abs(sum) > sincZeroThreshold {
		f64.Scale(taps, taps, 1/sum)
	}
	return taps, nil
}

// KaiserLowpass designs a Kaiser lowpass sized for the given transition
// width and attenuation.
func KaiserLowpass(cutoff, transitionBW, attenuation float64) ([]float64, error) {
	return Lowpass(LowpassParams{
		NumTaps:     mathutil.KaiserLength(attenuation, transitionBW),
		Cutoff:      cutoff,
		Window:      Kaiser,
		Attenuation: attenuation,
	})
}

// KaiserWindow returns a symmetric Kaiser window of the given length.
func KaiserWindow(length int, beta float64) []float64 {
	if length < 1 {
		return []float64{}
	}
	w := make([]float64, length)
	if length == 1 {
		w[0] = 1
		return w
	}

	alpha := float64(length-1) / 2
	i0Beta := mathutil.BesselI0(beta)
	for n := range w {
		x := (float64(n) - alpha) / alpha
		w[n] = mathutil.BesselI0(beta*math.Sqrt(1-x*x)) / i0Beta
	}
	return w
}

// BiquadLowpass designs a second-order lowpass from the RBJ cookbook.
// It returns b and the full denominator a with a[0] == 1.
func BiquadLowpass(cutoff, q float64) (b, a []float64, err error) {
	if !(cutoff > 0 && cutoff < 0.5) {
		return nil, nil, fmt.Errorf("%w: cutoff %g (must be in (0, 0.5))", ErrInvalidParams, cutoff)
	}
	if !(q > 0) || math.IsInf(q, 0) {
		return nil, nil, fmt.Errorf("%w: q %g", ErrInvalidParams, q)
	}

	w0 := 2 * math.Pi * cutoff
	cosW0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	a0 := 1 + alpha
	b0 := (1 - cosW0) / 2 / a0
	b = []float64{b0, 2 * b0, b0}
	a = []float64{1, -2 * cosW0 / a0, (1 - alpha) / a0}
	return b, a, nil
}
