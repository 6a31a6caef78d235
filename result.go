package fixpoint

// Overflows counts wrap or saturation events per quantization point.
type Overflows struct {
	Input       int `json:"input"`
	Coeff       int `json:"coeff"`
	Product     int `json:"product"`
	Accumulator int `json:"accumulator"`
	Output      int `json:"output"`
}

// Total returns the sum over all quantization points.
func (o Overflows) Total() int {
	return o.Input + o.Coeff + o.Product + o.Accumulator + o.Output
}

// Add returns the element-wise sum of o and p.
func (o Overflows) Add(p Overflows) Overflows {
	return Overflows{
		Input:       o.Input + p.Input,
		Coeff:       o.Coeff + p.Coeff,
		Product:     o.Product + p.Product,
		Accumulator: o.Accumulator + p.Accumulator,
		Output:      o.Output + p.Output,
	}
}

// Result is the outcome of a one-shot simulation run.
type Result struct {
	// Output holds the reconstructed real output samples.
	Output []float64
	// Ints holds the output integers, scaled by 2^QO.WF.
	Ints []int64
	// Overflows holds the counters accumulated during the run.
	Overflows Overflows
}

// Step describes one sample of a simulation run.
type Step struct {
	// N is the sample index since construction or the last Reset.
	N int
	// X is the raw input sample.
	X float64
	// XQ is X quantized to the input format.
	XQ Sample
	// Acc is the accumulator after requantization to QACC.
	Acc Sample
	// Y is the output after requantization to QO.
	Y Sample
}

// Observer receives every simulated step. It runs synchronously on the
// simulating goroutine.
type Observer func(Step)
