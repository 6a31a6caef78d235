package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	fixpoint "github.com/tphakala/go-fixpoint"
)

func (a *app) quantizeCmd() *cobra.Command {
	var q, ovfl, quant string
	cmd := &cobra.Command{
		Use:   "quantize [flags] value...",
		Short: "Quantize real values to a fixed-point format",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := parseSpec(q, ovfl, quant)
			if err != nil {
				return err
			}
			xs := make([]float64, len(args))
			for i, s := range args {
				if xs[i], err = strconv.ParseFloat(s, 64); err != nil {
					return fmt.Errorf("invalid value %q: %w", s, err)
				}
			}

			quantizer, err := fixpoint.NewQuantizer(spec)
			if err != nil {
				return err
			}
			samples, err := quantizer.QuantizeSlice(xs)
			if err != nil {
				return err
			}
			a.logf("Quantizer: %s, resolution %g", spec, spec.Resolution())

			w := cmd.OutOrStdout()
			t := newTable(w, "Input", "Integer", "Value", "Overflow")
			for i, s := range samples {
				t.Append([]string{args[i], strconv.FormatInt(s.Int, 10), formatFloat(s.Value), strconv.FormatBool(s.Overflow)})
			}
			t.Render()
			fmt.Fprintf(w, "%s: %d overflows\n", spec, quantizer.Overflows())
			return nil
		},
	}
	cmd.Flags().StringVar(&q, "q", "0.15", "Format in WI.WF notation")
	cmd.Flags().StringVar(&ovfl, "ovfl", "wrap", "Overflow mode: wrap, sat")
	cmd.Flags().StringVar(&quant, "quant", "floor", "Rounding mode: floor, round, fix, rint")
	return cmd
}

func parseSpec(q, ovfl, quant string) (fixpoint.QSpec, error) {
	f, err := fixpoint.ParseQ(q)
	if err != nil {
		return fixpoint.QSpec{}, err
	}
	o, err := fixpoint.ParseOverflow(ovfl)
	if err != nil {
		return fixpoint.QSpec{}, err
	}
	r, err := fixpoint.ParseRounding(quant)
	if err != nil {
		return fixpoint.QSpec{}, err
	}
	return fixpoint.NewQSpec(f.WI, f.WF, o, r), nil
}
