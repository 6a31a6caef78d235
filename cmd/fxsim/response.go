package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	fixpoint "github.com/tphakala/go-fixpoint"
	"github.com/tphakala/go-fixpoint/internal/analysis"
	"github.com/tphakala/go-fixpoint/internal/config"
)

func (a *app) responseCmd() *cobra.Command {
	var (
		configPath string
		nfft       int
	)
	cmd := &cobra.Command{
		Use:   "response -c filter.yaml",
		Short: "Compare float and quantized coefficient responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg, kind, err := file.Build()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if err := printCoefficients(cmd, "b", cfg.B, cfg.QCB); err != nil {
				return err
			}
			if kind == fixpoint.KindIIR {
				if err := printCoefficients(cmd, "a", cfg.A, cfg.QCA); err != nil {
					return err
				}
			}

			cmp, err := analysis.CompareConfig(cfg, nfft)
			if err != nil {
				return err
			}
			a.logf("Compared %d bins", cmp.Bins)
			fmt.Fprintf(w, "Max magnitude deviation: %.4f dB at f = %.4f fs\n", cmp.MaxDeviationDB, cmp.Freq)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Filter configuration file")
	cmd.Flags().IntVar(&nfft, "nfft", analysis.DefaultFFTSize, "FFT length")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

// printCoefficients shows each coefficient next to its quantized value.
func printCoefficients(cmd *cobra.Command, name string, c []float64, spec fixpoint.QSpec) error {
	set, err := fixpoint.QuantizeCoefficients(c, spec)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s coefficients (%s, %d overflows)\n", name, spec, set.Overflows)

	t := newTable(w, "Index", "Float", "Integer", "Quantized", "Error")
	for i, v := range set.Values() {
		t.Append([]string{
			strconv.Itoa(i),
			formatFloat(c[i]),
			strconv.FormatInt(set.Ints[i], 10),
			formatFloat(v),
			formatFloat(v - c[i]),
		})
	}
	t.Render()
	return nil
}
