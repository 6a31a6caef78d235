package main

import (
	"fmt"

	"github.com/spf13/cobra"
	fixpoint "github.com/tphakala/go-fixpoint"
	"github.com/tphakala/go-fixpoint/internal/config"
	"github.com/tphakala/go-fixpoint/internal/design"
)

type designOptions struct {
	output      string
	biquad      bool
	taps        int
	cutoff      float64
	window      string
	attenuation float64
	transition  float64
	q           float64
	dataQ       string
	coeffQ      string
	ovfl        string
	quant       string
	accuMode    string
}

func (a *app) designCmd() *cobra.Command {
	var opts designOptions
	cmd := &cobra.Command{
		Use:   "design -o filter.yaml",
		Short: "Design a lowpass filter and write its configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := buildDesign(opts)
			if err != nil {
				return err
			}
			// Building checks the file before it is written.
			cfg, kind, err := file.Build()
			if err != nil {
				return err
			}
			if err := config.Save(opts.output, file); err != nil {
				return err
			}
			a.logf("Wrote %s", opts.output)

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Wrote %s\n", opts.output)
			printConfig(w, cfg, kind)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "Configuration file to write (.yaml or .json)")
	f.BoolVar(&opts.biquad, "biquad", false, "Design a second-order IIR lowpass instead of an FIR")
	f.IntVar(&opts.taps, "taps", 0, "FIR length (0: derive from --attenuation and --transition)")
	f.Float64Var(&opts.cutoff, "cutoff", 0.1, "Cutoff frequency as a fraction of the sample rate")
	f.StringVar(&opts.window, "window", "kaiser", "FIR window: kaiser, hann, hamming, blackman, rect")
	f.Float64Var(&opts.attenuation, "attenuation", design.DefaultAttenuation, "Kaiser stopband attenuation in dB")
	f.Float64Var(&opts.transition, "transition", 0.05, "Kaiser transition width as a fraction of the sample rate")
	f.Float64Var(&opts.q, "q", design.DefaultQ, "Biquad quality factor")
	f.StringVar(&opts.dataQ, "data-q", "0.15", "Input and output format in WI.WF notation")
	f.StringVar(&opts.coeffQ, "coeff-q", "0.15", "Coefficient format in WI.WF notation")
	f.StringVar(&opts.ovfl, "ovfl", "sat", "Datapath overflow mode: wrap, sat")
	f.StringVar(&opts.quant, "quant", "round", "Datapath rounding mode: floor, round, fix, rint")
	f.StringVar(&opts.accuMode, "accu", "auto", "Accumulator sizing: man, auto, full")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// buildDesign designs the coefficients and wraps them in a config file.
func buildDesign(opts designOptions) (*config.File, error) {
	data := &config.Quant{Q: opts.dataQ, Ovfl: opts.ovfl, Quant: opts.quant}
	coeff := &config.Quant{Q: opts.coeffQ}
	file := &config.File{
		Input:  data,
		Output: data,
		CoeffB: coeff,
		Accu:   &config.Quant{Mode: opts.accuMode},
	}

	if opts.biquad {
		b, a, err := design.BiquadLowpass(opts.cutoff, opts.q)
		if err != nil {
			return nil, err
		}
		file.Kind = fixpoint.KindIIR.String()
		file.B, file.A = b, a
		file.CoeffA = &config.Quant{Q: opts.coeffQ, Mode: fixpoint.AccuAuto.String()}
		return file, nil
	}

	w, err := design.ParseWindow(opts.window)
	if err != nil {
		return nil, err
	}
	var taps []float64
	switch {
	case opts.taps == 0 && w == design.Kaiser:
		taps, err = design.KaiserLowpass(opts.cutoff, opts.transition, opts.attenuation)
	case opts.taps == 0:
		return nil, fmt.Errorf("--taps is required for the %s window", w)
	default:
		taps, err = design.Lowpass(design.LowpassParams{
			NumTaps:     opts.taps,
			Cutoff:      opts.cutoff,
			Window:      w,
			Attenuation: opts.attenuation,
		})
	}
	if err != nil {
		return nil, err
	}
	file.Kind = fixpoint.KindFIR.String()
	file.B = taps
	return file, nil
}
