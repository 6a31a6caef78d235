// Package analysis measures how quantization changes a filter: frequency
// response deviation of quantized coefficients and the signal to
// quantization noise ratio of a fixed-point run.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	fixpoint "github.com/tphakala/go-fixpoint"
	"github.com/tphakala/go-fixpoint/internal/mathutil"
	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// DefaultFFTSize is the transform length used when none is given.
	DefaultFFTSize = 2048

	// Magnitudes below this are clamped before taking the log.
	minMagnitude = 1e-10

	// Bins where the float response is below this are ignored when comparing.
	compareFloorDB = -100.0
)

// ErrEmptyInput is returned for empty coefficient or signal slices.
var ErrEmptyInput = errors.New("analysis: empty input")

// Response is a frequency response sampled from DC to Nyquist.
type Response struct {
	// Freq is the normalized frequency of each bin, 0 to 0.5.
	Freq []float64
	H    []complex128
}

// FrequencyResponse evaluates B(z)/A(z) on nfft/2+1 points. a is the full
// denominator including a[0]; nil means an FIR. nfft is rounded up to a
// power of two that holds both polynomials.
func FrequencyResponse(b, a []float64, nfft int) (Response, error) {
	if len(b) == 0 {
		return Response{}, fmt.Errorf("%w: no numerator coefficients", ErrEmptyInput)
	}
	if nfft <= 0 {
		nfft = DefaultFFTSize
	}
	nfft = mathutil.NextPow2(max(nfft, len(b), len(a)))

	fft := fourier.NewFFT(nfft)
	num := fft.Coefficients(nil, padded(b, nfft))

	h := num
	if len(a) > 0 {
		den := fft.Coefficients(nil, padded(a, nfft))
		for k := range h {
			h[k] /= den[k]
		}
	}

	freq := make([]float64, len(h))
	for k := range freq {
		freq[k] = fft.Freq(k)
	}
	return Response{Freq: freq, H: h}, nil
}

func padded(c []float64, n int) []float64 {
	p := make([]float64, n)
	copy(p, c)
	return p
}

// Magnitude returns |H| per bin.
func (r Response) Magnitude() []float64 {
	m := make([]float64, len(r.H))
	for k, h := range r.H {
		m[k] = cmplx.Abs(h)
	}
	return m
}

// MagnitudeDB returns 20*log10|H| per bin.
func (r Response) MagnitudeDB() []float64 {
	m := r.Magnitude()
	for k, v := range m {
		m[k] = MagnitudeDB(v)
	}
	return m
}

// Phase returns the phase of H per bin in radians.
func (r Response) Phase() []float64 {
	p := make([]float64, len(r.H))
	for k, h := range r.H {
		p[k] = cmplx.Phase(h)
	}
	return p
}

// MagnitudeDB converts linear magnitude to decibels.
func MagnitudeDB(magnitude float64) float64 {
	return 20 * math.Log10(max(magnitude, minMagnitude))
}

// Comparison summarizes the difference between two responses.
type Comparison struct {
	// MaxDeviationDB is the largest |dB difference| over compared bins.
	MaxDeviationDB float64
	// Freq is where the largest deviation occurs.
	Freq float64
	// Bins is the number of bins compared.
	Bins int
}

// Compare measures how far got deviates from want. Bins where want is
// below -100 dB are skipped.
func Compare(want, got Response) (Comparison, error) {
	if len(want.H) != len(got.H) {
		return Comparison{}, fmt.Errorf("analysis: response lengths differ: %d != %d", len(want.H), len(got.H))
	}

	var c Comparison
	wantDB := want.MagnitudeDB()
	gotDB := got.MagnitudeDB()
	for k := range wantDB {
		if wantDB[k] < compareFloorDB {
			continue
		}
		c.Bins++
		if d := math.Abs(gotDB[k] - wantDB[k]); d > c.MaxDeviationDB {
			c.MaxDeviationDB = d
			c.Freq = want.Freq[k]
		}
	}
	return c, nil
}

// CompareConfig compares the float transfer function of cfg with the one
// its coefficient quantizers actually implement. cfg.A holds feedback taps
// without the leading 1, as in fixpoint.Config.
func CompareConfig(cfg fixpoint.Config, nfft int) (Comparison, error) {
	qb, err := fixpoint.QuantizeCoefficients(cfg.B, cfg.QCB)
	if err != nil {
		return Comparison{}, err
	}
	qa, err := fixpoint.QuantizeCoefficients(cfg.A, cfg.QCA)
	if err != nil {
		return Comparison{}, err
	}

	want, err := FrequencyResponse(cfg.B, denominator(cfg.A), nfft)
	if err != nil {
		return Comparison{}, err
	}
	got, err := FrequencyResponse(qb.Values(), denominator(qa.Values()), nfft)
	if err != nil {
		return Comparison{}, err
	}
	return Compare(want, got)
}

// denominator prepends the implicit a0 = 1 to feedback taps.
func denominator(feedback []float64) []float64 {
	if len(feedback) == 0 {
		return nil
	}
	return append([]float64{1}, feedback...)
}
