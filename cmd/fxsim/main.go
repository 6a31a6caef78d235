// Command fxsim simulates fixed-point FIR and IIR filters.
//
// Usage:
//
//	fxsim design --taps 31 --cutoff 0.1 -o lowpass.yaml   # write a filter config
//	fxsim simulate -c lowpass.yaml input.wav output.wav   # run a WAV file through it
//	fxsim simulate -c lowpass.yaml --trace t.parquet --reference in.wav out.wav
//	fxsim quantize --q 1.14 --ovfl sat --quant round 0.3 -2.5
//	fxsim accu -c lowpass.yaml --mode full                # size the accumulator
//	fxsim response -c lowpass.yaml                        # coefficient quantization error
//	fxsim info
//
// Multichannel files are simulated one independent filter per channel,
// in parallel by default.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/tphakala/simd/cpu"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	root := newRootCmd(stdout)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// app carries state shared by all subcommands.
type app struct {
	verbose bool
}

// logf logs only in verbose mode.
func (a *app) logf(format string, args ...any) {
	if a.verbose {
		log.Printf(format, args...)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "fxsim",
		Short:         "Fixed-point DF1 filter simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose output")

	root.AddCommand(
		a.simulateCmd(),
		a.quantizeCmd(),
		a.accuCmd(),
		a.responseCmd(),
		a.designCmd(),
		infoCmd(),
	)
	return root
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print version and SIMD capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "fxsim %s (%s, %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			fmt.Fprintf(w, "SIMD: %s\n", cpu.Info())
			fmt.Fprintf(w, "CPUs: %d\n", runtime.GOMAXPROCS(0))
			return nil
		},
	}
}
