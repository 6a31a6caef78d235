package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	fixpoint "github.com/tphakala/go-fixpoint"
	"github.com/tphakala/go-fixpoint/internal/analysis"
	"github.com/tphakala/go-fixpoint/internal/config"
	"github.com/tphakala/go-fixpoint/internal/reference"
	"github.com/tphakala/go-fixpoint/internal/trace"
)

type simulateOptions struct {
	configPath string
	tracePath  string
	bitDepth   int
	parallel   bool
	reference  bool
}

func (a *app) simulateCmd() *cobra.Command {
	var opts simulateOptions
	cmd := &cobra.Command{
		Use:   "simulate -c filter.yaml input.wav output.wav",
		Short: "Run a WAV file through the fixed-point filter",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.simulate(cmd, opts, args[0], args[1])
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "Filter configuration file (.yaml or .json)")
	f.StringVar(&opts.tracePath, "trace", "", "Write a per-sample Parquet trace to this file")
	f.IntVar(&opts.bitDepth, "bits", 0, "Output bit depth (default: same as input)")
	f.BoolVar(&opts.parallel, "parallel", true, "Simulate channels concurrently")
	f.BoolVar(&opts.reference, "reference", false, "Report SQNR against a floating-point reference")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func (a *app) simulate(cmd *cobra.Command, opts simulateOptions, inputPath, outputPath string) (err error) {
	file, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	cfg, kind, err := file.Build()
	if err != nil {
		return err
	}

	input, err := readWAV(inputPath)
	if err != nil {
		return err
	}
	a.logf("Input: %s (%d Hz, %d channels, %d-bit, %d frames)",
		inputPath, input.rate, len(input.channels), input.bitDepth, input.frames())

	chOpts := []fixpoint.ChannelOption{fixpoint.WithParallel(opts.parallel)}
	var tw *trace.Writer
	if opts.tracePath != "" {
		tf, createErr := os.Create(opts.tracePath)
		if createErr != nil {
			return fmt.Errorf("failed to create trace file: %w", createErr)
		}
		defer func() {
			if closeErr := tf.Close(); err == nil {
				err = closeErr
			}
		}()
		tw, err = trace.NewWriter(tf, cfg, kind)
		if err != nil {
			return err
		}
		// Runs before the file close so a failed run still gets a footer.
		defer func() {
			if closeErr := tw.Close(); err == nil {
				err = closeErr
			}
		}()
		chOpts = append(chOpts, fixpoint.WithChannelObserver(tw.Observer))
		a.logf("Trace: %s (run %s)", opts.tracePath, tw.RunID())
	}

	start := time.Now()
	results, err := fixpoint.SimulateChannels(cmd.Context(), kind, input.channels, cfg, chOpts...)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if tw != nil {
		if err := tw.Close(); err != nil {
			return err
		}
	}

	output := &wavData{rate: input.rate, bitDepth: input.bitDepth, channels: make([][]float64, len(results))}
	if opts.bitDepth != 0 {
		output.bitDepth = opts.bitDepth
	}
	if output.bitDepth < minBitDepth || output.bitDepth > maxBitDepth {
		return fmt.Errorf("unsupported output bit depth %d", output.bitDepth)
	}
	for ch, res := range results {
		output.channels[ch] = res.Output
	}
	if err := writeWAV(outputPath, output); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Simulated %s -> %s in %.2fs\n", filepath.Base(inputPath), filepath.Base(outputPath), elapsed.Seconds())
	printConfig(w, cfg, kind)
	printOverflows(w, results)

	if opts.reference {
		return printReference(w, cfg, input.channels, results)
	}
	return nil
}

// printReference compares every channel with the floating-point filter.
func printReference(w io.Writer, cfg fixpoint.Config, inputs [][]float64, results []fixpoint.Result) error {
	ref, err := reference.New[float64](cfg.B, cfg.A)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Reference DC gain: %s\n", formatFloat(ref.DCGain()))

	ideal := analysis.IdealSQNR(cfg.QO.W)
	for ch, res := range results {
		want, err := reference.Run(cfg.B, cfg.A, inputs[ch])
		if err != nil {
			return err
		}
		sqnr, err := analysis.SQNR(want, res.Output)
		if err != nil {
			return fmt.Errorf("channel %d: %w", ch, err)
		}
		fmt.Fprintf(w, "Channel %d SQNR: %.2f dB (full-scale sine on %d bits: %.2f dB)\n", ch, sqnr, cfg.QO.W, ideal)
	}
	return nil
}
