// Package testutil provides reusable assertions for the fixed-point
// simulator tests.
package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Default tolerances for various test scenarios.
const (
	DefaultTolerance = 1e-12
	DBTolerance      = 0.01
)

// AssertSymmetric verifies that a slice is symmetric (s[i] == s[n-1-i]),
// the linear-phase property of designed FIR taps.
func AssertSymmetric(t *testing.T, s []float64, tolerance float64) bool {
	t.Helper()
	n := len(s)
	for i := range n / 2 {
		j := n - 1 - i
		if !assert.InDelta(t, s[i], s[j], tolerance,
			"slice not symmetric: s[%d]=%g != s[%d]=%g", i, s[i], j, s[j]) {
			return false
		}
	}
	return true
}

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return assert.Fail(t, "non-finite value", "s[%d] = %v", i, v)
		}
	}
	return true
}

// AssertDCGain verifies that the sum of coefficients equals the expected DC gain.
func AssertDCGain(t *testing.T, coeffs []float64, expectedGain, tolerance float64) bool {
	t.Helper()
	var sum float64
	for _, c := range coeffs {
		sum += c
	}
	return assert.InDelta(t, expectedGain, sum, tolerance,
		"DC gain = %g, want %g", sum, expectedGain)
}

// AssertRelativeError verifies that the relative error between actual and expected is within tolerance.
func AssertRelativeError(t *testing.T, expected, actual, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	if expected == 0 {
		return assert.InDelta(t, expected, actual, tolerance, msgAndArgs...)
	}
	relError := math.Abs(actual-expected) / math.Abs(expected)
	return assert.LessOrEqual(t, relError, tolerance,
		"relative error %e exceeds tolerance %e (expected=%g, actual=%g)",
		relError, tolerance, expected, actual)
}

// AssertOnGrid verifies that every value is an integer multiple of 2^-wf,
// i.e. exactly representable with wf fractional bits.
func AssertOnGrid(t *testing.T, s []float64, wf int) bool {
	t.Helper()
	for i, v := range s {
		scaled := math.Ldexp(v, wf)
		if scaled != math.Trunc(scaled) {
			return assert.Fail(t, "value off the quantization grid",
				"s[%d]=%g is not a multiple of 2^-%d", i, v, wf)
		}
	}
	return true
}

// AssertWithinRange verifies that all elements are within [minVal, maxVal].
func AssertWithinRange(t *testing.T, s []float64, minVal, maxVal float64) bool {
	t.Helper()
	for i, v := range s {
		if v < minVal || v > maxVal {
			return assert.Fail(t, "value out of range",
				"s[%d]=%g is outside [%g, %g]", i, v, minVal, maxVal)
		}
	}
	return true
}

// Ramp returns n samples rising linearly from start in increments of step.
func Ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// Sine returns n samples of amp*sin(2*pi*freq*i) with freq normalized to
// the sample rate.
func Sine(n int, freq, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i))
	}
	return out
}
