package fixpoint

import (
	"errors"
	"fmt"
)

// Error definitions.
var (
	// ErrInvalidFormat indicates a word format with W != WI+WF+1, W < 1, or a
	// word length the simulator cannot represent.
	ErrInvalidFormat = errors.New("invalid word format")

	// ErrNonFiniteInput indicates a NaN or Inf value presented to a quantizer.
	ErrNonFiniteInput = errors.New("non-finite input")

	// ErrDegenerateCoefficients indicates an empty or all-zero coefficient
	// set where a magnitude-based word length is required.
	ErrDegenerateCoefficients = errors.New("degenerate coefficients")

	// ErrUnsupportedPolicy indicates an unknown overflow, rounding or
	// accumulator sizing mode.
	ErrUnsupportedPolicy = errors.New("unsupported quantization policy")

	// ErrInvalidConfig indicates invalid simulator configuration.
	ErrInvalidConfig = errors.New("invalid fixpoint configuration")

	// ErrCoefficientLength indicates a coefficient update that would change
	// the filter order of a running simulator.
	ErrCoefficientLength = errors.New("coefficient length mismatch")
)

// SimulationError reports the sample index at which a simulation run
// aborted. It wraps the underlying cause.
type SimulationError struct {
	Step int
	Err  error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("fixpoint: sample %d: %v", e.Step, e.Err)
}

func (e *SimulationError) Unwrap() error {
	return e.Err
}
