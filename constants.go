package fixpoint

// Word length limits
const (
	MaxWordLength         = 64  // Longest format the quantizer accepts
	MaxDatapathWordLength = 32  // Input, output, coefficient and product formats
	maxSumBits            = 127 // Widest exact sum of products (signed 128-bit)
)

// Default accumulator format used when bit-growth estimation falls back.
const (
	defaultAccuWI = 0
	defaultAccuWF = 31
)

// Default coefficient format, Q0.15.
const (
	DefaultCoeffWI = 0
	DefaultCoeffWF = 15
)
