// Package wide provides a signed 128-bit integer for exact sum-of-products
// accumulation in the fixed-point simulators.
//
// Products of two datapath words (at most 32 bits each) always fit in 64
// bits, but their sum, especially after aligning feedforward and feedback
// paths to a common binary point, can exceed 64 bits. Int128 keeps the
// full-precision sum exact so that only the explicit requantization steps
// introduce rounding or overflow.
package wide

import "math/bits"

const (
	wordBits  = 64
	totalBits = 128
	signShift = wordBits - 1
)

// Int128 is a two's-complement signed 128-bit integer.
// The zero value is 0.
type Int128 struct {
	Hi int64
	Lo uint64
}

// One is the Int128 value 1.
var One = Int128{Lo: 1}

// FromInt64 sign-extends v to 128 bits.
func FromInt64(v int64) Int128 {
	return Int128{Hi: v >> signShift, Lo: uint64(v)}
}

// Mul64 returns the exact 128-bit product a*b.
func Mul64(a, b int64) Int128 {
	ua, ub := uint64(a), uint64(b)
	if a < 0 {
		ua = -ua
	}
	if b < 0 {
		ub = -ub
	}

	hi, lo := bits.Mul64(ua, ub)
	r := Int128{Hi: int64(hi), Lo: lo}
	if (a < 0) != (b < 0) {
		return r.Neg()
	}
	return r
}

// Add returns a+b (wrapping modulo 2^128).
func (a Int128) Add(b Int128) Int128 {
	lo, carry := bits.Add64(a.Lo, b.Lo, 0)
	return Int128{Hi: a.Hi + b.Hi + int64(carry), Lo: lo}
}

// Sub returns a-b (wrapping modulo 2^128).
func (a Int128) Sub(b Int128) Int128 {
	lo, borrow := bits.Sub64(a.Lo, b.Lo, 0)
	return Int128{Hi: a.Hi - b.Hi - int64(borrow), Lo: lo}
}

// Neg returns -a.
func (a Int128) Neg() Int128 {
	return Int128{}.Sub(a)
}

// Sign returns -1, 0 or +1.
func (a Int128) Sign() int {
	switch {
	case a.Hi < 0:
		return -1
	case a.Hi == 0 && a.Lo == 0:
		return 0
	default:
		return 1
	}
}

// Cmp compares a and b and returns -1, 0 or +1.
func (a Int128) Cmp(b Int128) int {
	switch {
	case a.Hi < b.Hi:
		return -1
	case a.Hi > b.Hi:
		return 1
	case a.Lo < b.Lo:
		return -1
	case a.Lo > b.Lo:
		return 1
	default:
		return 0
	}
}

// Lsh returns a << n. Bits shifted out of the top are lost.
func (a Int128) Lsh(n uint) Int128 {
	switch {
	case n == 0:
		return a
	case n >= totalBits:
		return Int128{}
	case n >= wordBits:
		return Int128{Hi: int64(a.Lo << (n - wordBits))}
	default:
		return Int128{
			Hi: a.Hi<<n | int64(a.Lo>>(wordBits-n)),
			Lo: a.Lo << n,
		}
	}
}

// Rsh returns a >> n with sign extension (floor division by 2^n).
func (a Int128) Rsh(n uint) Int128 {
	switch {
	case n == 0:
		return a
	case n >= totalBits:
		s := a.Hi >> signShift
		return Int128{Hi: s, Lo: uint64(s)}
	case n >= wordBits:
		return Int128{Hi: a.Hi >> signShift, Lo: uint64(a.Hi >> (n - wordBits))}
	default:
		return Int128{
			Hi: a.Hi >> n,
			Lo: a.Lo>>n | uint64(a.Hi)<<(wordBits-n),
		}
	}
}

// IsInt64 reports whether a is representable as an int64.
func (a Int128) IsInt64() bool {
	return a.Hi == int64(a.Lo)>>signShift
}

// Int64 returns the low 64 bits of a as an int64.
// The result is only meaningful when IsInt64 reports true.
func (a Int128) Int64() int64 {
	return int64(a.Lo)
}

// Float64 returns the nearest float64 to a.
func (a Int128) Float64() float64 {
	const twoTo64 = 18446744073709551616.0
	return float64(a.Hi)*twoTo64 + float64(a.Lo)
}

// WrapBits reduces a modulo 2^w into the signed range of a w-bit word
// (two's-complement wraparound). w must be in [1, 64].
func (a Int128) WrapBits(w int) int64 {
	s := uint(wordBits - w)
	return int64(a.Lo<<s) >> s
}

// BitLen returns the number of bits needed to hold |a| (excluding sign).
func (a Int128) BitLen() int {
	if a.Hi < 0 {
		a = a.Neg()
	}
	if a.Hi != 0 {
		return wordBits + bits.Len64(uint64(a.Hi))
	}
	return bits.Len64(a.Lo)
}
