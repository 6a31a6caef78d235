// Package mathutil provides the small numeric helpers shared by the
// bit-growth estimator, the coefficient design helpers and the analysis code.
package mathutil

import (
	"math"
	"math/bits"

	"github.com/tphakala/simd/f64"
)

// CeilLog2 returns ceil(log2(x)) for a finite x > 0.
//
// math.Log2 is exact for powers of two, so 8 yields 3 and 8.000001 yields 4.
// Callers must reject x <= 0 themselves; this function never evaluates
// log2 of a non-positive value and returns 0 in that case.
func CeilLog2(x float64) int {
	if x <= 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return int(math.Ceil(math.Log2(x)))
}

// CeilLog2Int returns ceil(log2(n)) for n >= 1 using integer arithmetic.
// It returns 0 for n <= 1.
func CeilLog2Int(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// L1Norm returns sum(|x|), the coefficient "area" used by the automatic
// accumulator sizing mode.
func L1Norm(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	abs := make([]float64, len(x))
	for i, v := range x {
		abs[i] = math.Abs(v)
	}
	return f64.Sum(abs)
}

// MaxAbs returns max(|x|), or 0 for an empty slice.
func MaxAbs(x []float64) float64 {
	var peak float64
	for _, v := range x {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}

// AllFinite reports whether no element of x is NaN or Inf.
func AllFinite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// NextPow2 returns the smallest power of two >= n (minimum 1).
func NextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
