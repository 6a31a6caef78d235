package fixpoint

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// WordFormat describes a signed fixed-point word: WI integer bits, WF
// fractional bits and one sign bit, W = WI + WF + 1 in total.
//
// WI or WF may be negative (a coarse or a purely fractional format) as long
// as W stays in [1, MaxWordLength].
type WordFormat struct {
	WI int
	WF int
	W  int
}

// NewWordFormat returns the format with wi integer and wf fractional bits.
// W is derived, so the result only needs Validate for the range check.
func NewWordFormat(wi, wf int) WordFormat {
	return WordFormat{WI: wi, WF: wf, W: wi + wf + 1}
}

// ParseQ parses the "WI.WF" notation (optionally prefixed with "Q"),
// e.g. "0.15" or "Q3.6".
func ParseQ(s string) (WordFormat, error) {
	t := strings.TrimPrefix(strings.TrimSpace(s), "Q")
	wiStr, wfStr, ok := strings.Cut(t, ".")
	if !ok {
		return WordFormat{}, fmt.Errorf("%w: %q is not in WI.WF notation", ErrInvalidFormat, s)
	}

	wi, err := strconv.Atoi(wiStr)
	if err != nil {
		return WordFormat{}, fmt.Errorf("%w: integer bits in %q: %v", ErrInvalidFormat, s, err)
	}
	wf, err := strconv.Atoi(wfStr)
	if err != nil {
		return WordFormat{}, fmt.Errorf("%w: fractional bits in %q: %v", ErrInvalidFormat, s, err)
	}

	f := NewWordFormat(wi, wf)
	if err := f.Validate(); err != nil {
		return WordFormat{}, err
	}
	return f, nil
}

// Validate checks W == WI+WF+1 and 1 <= W <= MaxWordLength.
func (f WordFormat) Validate() error {
	if f.W != f.WI+f.WF+1 {
		return fmt.Errorf("%w: W=%d but WI+WF+1=%d", ErrInvalidFormat, f.W, f.WI+f.WF+1)
	}
	if f.W < 1 || f.W > MaxWordLength {
		return fmt.Errorf("%w: W=%d outside [1, %d]", ErrInvalidFormat, f.W, MaxWordLength)
	}
	return nil
}

// String returns the Q notation, e.g. "Q3.6".
func (f WordFormat) String() string {
	return fmt.Sprintf("Q%d.%d", f.WI, f.WF)
}

// Min returns the most negative representable integer, -2^(W-1).
func (f WordFormat) Min() int64 {
	return -1 << (f.W - 1)
}

// Max returns the most positive representable integer, 2^(W-1)-1.
func (f WordFormat) Max() int64 {
	return ^f.Min()
}

// Resolution returns the weight of the least significant bit, 2^-WF.
func (f WordFormat) Resolution() float64 {
	return math.Ldexp(1, -f.WF)
}

// Range returns the smallest and largest representable real values.
func (f WordFormat) Range() (lo, hi float64) {
	return math.Ldexp(float64(f.Min()), -f.WF), math.Ldexp(float64(f.Max()), -f.WF)
}

// OverflowMode selects what happens to values outside a format's range.
type OverflowMode int

// Overflow modes. The zero value is deliberately invalid.
const (
	// Wrap reduces the value modulo 2^W (two's-complement wraparound).
	Wrap OverflowMode = iota + 1
	// Saturate clamps the value to the nearest range boundary.
	Saturate
)

func (m OverflowMode) String() string {
	switch m {
	case Wrap:
		return "wrap"
	case Saturate:
		return "sat"
	default:
		return fmt.Sprintf("OverflowMode(%d)", int(m))
	}
}

// Valid reports whether m is a known overflow mode.
func (m OverflowMode) Valid() bool {
	return m == Wrap || m == Saturate
}

// ParseOverflow parses "wrap", "sat" or "saturate".
func ParseOverflow(s string) (OverflowMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wrap":
		return Wrap, nil
	case "sat", "saturate":
		return Saturate, nil
	default:
		return 0, fmt.Errorf("%w: overflow mode %q", ErrUnsupportedPolicy, s)
	}
}

// RoundingMode selects how the scaled value is brought onto the integer grid.
type RoundingMode int

// Rounding modes. The zero value is deliberately invalid.
const (
	// Floor rounds toward -inf (two's-complement truncation, the cheapest
	// hardware option).
	Floor RoundingMode = iota + 1
	// Round rounds to nearest with ties toward +inf, floor(x + 0.5).
	Round
	// Fix rounds toward zero (sign-magnitude truncation).
	Fix
	// RoundEven rounds to nearest with ties to even.
	RoundEven
)

func (m RoundingMode) String() string {
	switch m {
	case Floor:
		return "floor"
	case Round:
		return "round"
	case Fix:
		return "fix"
	case RoundEven:
		return "rint"
	default:
		return fmt.Sprintf("RoundingMode(%d)", int(m))
	}
}

// Valid reports whether m is a known rounding mode.
func (m RoundingMode) Valid() bool {
	return m >= Floor && m <= RoundEven
}

// ParseRounding parses "floor", "round", "fix" (or "trunc"/"truncate") and
// "rint" (or "even").
func ParseRounding(s string) (RoundingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "floor":
		return Floor, nil
	case "round":
		return Round, nil
	case "fix", "trunc", "truncate":
		return Fix, nil
	case "rint", "even":
		return RoundEven, nil
	default:
		return 0, fmt.Errorf("%w: rounding mode %q", ErrUnsupportedPolicy, s)
	}
}

// Policy pairs an overflow and a rounding mode.
type Policy struct {
	Overflow OverflowMode
	Rounding RoundingMode
}

// DefaultPolicy returns wrap/floor, the behaviour of plain two's-complement
// hardware without extra logic.
func DefaultPolicy() Policy {
	return Policy{Overflow: Wrap, Rounding: Floor}
}

// Validate rejects unknown or unset modes.
func (p Policy) Validate() error {
	if !p.Overflow.Valid() {
		return fmt.Errorf("%w: %v", ErrUnsupportedPolicy, p.Overflow)
	}
	if !p.Rounding.Valid() {
		return fmt.Errorf("%w: %v", ErrUnsupportedPolicy, p.Rounding)
	}
	return nil
}

// QSpec fully determines a quantization point: the word format plus the
// policy applied when values are brought into it.
type QSpec struct {
	WordFormat
	Policy
}

// NewQSpec is shorthand for a QSpec with wi integer and wf fractional bits.
func NewQSpec(wi, wf int, ovfl OverflowMode, quant RoundingMode) QSpec {
	return QSpec{
		WordFormat: NewWordFormat(wi, wf),
		Policy:     Policy{Overflow: ovfl, Rounding: quant},
	}
}

// Validate checks both the format and the policy.
func (q QSpec) Validate() error {
	if err := q.WordFormat.Validate(); err != nil {
		return err
	}
	return q.Policy.Validate()
}

// String returns e.g. "Q1.15 sat/round".
func (q QSpec) String() string {
	return fmt.Sprintf("%v %v/%v", q.WordFormat, q.Overflow, q.Rounding)
}
