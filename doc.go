// Package fixpoint provides bit-exact fixed-point quantization and
// direct-form I filter simulation in pure Go.
//
// It models what a hardware filter datapath does to a signal: every value
// passes through explicit quantization points, each with a word format and
// a policy for rounding and overflow. Overflows are counted, never hidden.
//
// # Features
//
//   - Quantizer with floor, round, fix (toward zero) and round-half-even
//     rounding, and wrap or saturate overflow handling
//   - Bit-growth estimation for accumulators (full and auto modes) and
//     integer-bit sizing for IIR feedback coefficients
//   - FIR and IIR direct-form I simulators with exact 128-bit sums
//   - Streaming API with carried state, impulse responses and per-step
//     observers for tracing
//   - Parallel multi-channel simulation
//
// # Quick Start
//
// Quantize a single value:
//
//	spec := fixpoint.NewQSpec(0, 7, fixpoint.Saturate, fixpoint.Round)
//	s, err := fixpoint.Quantize(0.3, spec)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(s.Int, s.Value, s.Overflow) // 38 0.296875 false
//
// Simulate an FIR filter:
//
//	cfg := fixpoint.DefaultConfig()
//	cfg.B = []float64{0.25, 0.5, 0.25}
//	cfg, err = cfg.AutoSizeAccumulator(fixpoint.KindFIR, fixpoint.AccuAuto)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := fixpoint.SimulateFIR(input, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Overflows.Total())
//
// # Quantization Points
//
// A [Config] names five quantization points, each a [QSpec]:
//
//   - QI: input samples
//   - QCB, QCA: feedforward and feedback coefficients
//   - QACC: the accumulator holding the sum of products
//   - QO: output samples, which IIR filters also feed back
//
// An optional QMul quantizes every partial product before summation.
// Input, output, coefficient and product formats are limited to
// [MaxDatapathWordLength] bits; accumulators may use up to [MaxWordLength].
//
// # Thread Safety
//
// Simulators and Quantizers are not safe for concurrent use. Distinct
// instances share nothing, and constructors copy the Config they are
// given, so independent runs may proceed in parallel.
package fixpoint
