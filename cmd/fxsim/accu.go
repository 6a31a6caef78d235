package main

import (
	"fmt"

	"github.com/spf13/cobra"
	fixpoint "github.com/tphakala/go-fixpoint"
	"github.com/tphakala/go-fixpoint/internal/config"
)

func (a *app) accuCmd() *cobra.Command {
	var configPath, mode, output string
	cmd := &cobra.Command{
		Use:   "accu -c filter.yaml",
		Short: "Estimate the accumulator format of a filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := fixpoint.ParseAccuMode(mode)
			if err != nil {
				return err
			}
			file, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg, kind, err := file.Build()
			if err != nil {
				return err
			}
			a.logf("Configured accumulator: %s", cfg.QACC)

			sized, err := cfg.AutoSizeAccumulator(kind, m)
			if err != nil {
				return err
			}
			acc := sized.QACC.WordFormat

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Accumulator (%s): %s, %d bits\n", m, acc, acc.W)
			fmt.Fprintf(w, "Output %s takes bits [%d:%d] of the accumulator (shift %d)\n",
				cfg.QO.WordFormat, acc.W-1, fixpoint.HardwareOutputShift(acc, cfg.QO.WordFormat),
				fixpoint.HardwareOutputShift(acc, cfg.QO.WordFormat))

			if output != "" {
				if err := config.Save(output, config.FromConfig(sized, kind)); err != nil {
					return err
				}
				fmt.Fprintf(w, "Wrote %s\n", output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Filter configuration file")
	cmd.Flags().StringVar(&mode, "mode", "auto", "Sizing mode: auto, full")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the configuration with the sized accumulator to this file")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
