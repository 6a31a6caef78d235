package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	fixpoint "github.com/tphakala/go-fixpoint"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAlignment(tablewriter.ALIGN_RIGHT)
	return t
}

// printConfig lists every quantization point of cfg.
func printConfig(w io.Writer, cfg fixpoint.Config, kind fixpoint.Kind) {
	t := newTable(w, "Point", "Format", "W", "Overflow", "Rounding")
	row := func(name string, q fixpoint.QSpec) {
		t.Append([]string{name, q.WordFormat.String(), strconv.Itoa(q.W), q.Overflow.String(), q.Rounding.String()})
	}

	row("input", cfg.QI)
	row("coeff_b", cfg.QCB)
	if kind == fixpoint.KindIIR {
		row("coeff_a", cfg.QCA)
	}
	if cfg.QMul != nil {
		row("product", *cfg.QMul)
	}
	row("accu", cfg.QACC)
	row("output", cfg.QO)

	fmt.Fprintf(w, "%s filter, %d b taps, %d a taps\n", kind, len(cfg.B), len(cfg.A))
	t.Render()
}

// printOverflows tabulates overflow counters per channel with a total row.
func printOverflows(w io.Writer, results []fixpoint.Result) {
	t := newTable(w, "Channel", "Input", "Coeff", "Product", "Accu", "Output", "Total")
	row := func(name string, o fixpoint.Overflows) {
		t.Append([]string{
			name,
			strconv.Itoa(o.Input),
			strconv.Itoa(o.Coeff),
			strconv.Itoa(o.Product),
			strconv.Itoa(o.Accumulator),
			strconv.Itoa(o.Output),
			strconv.Itoa(o.Total()),
		})
	}

	var total fixpoint.Overflows
	for ch, res := range results {
		row(strconv.Itoa(ch), res.Overflows)
		total = total.Add(res.Overflows)
	}
	if len(results) > 1 {
		t.SetFooter([]string{"all", "", "", "", "", "", strconv.Itoa(total.Total())})
	}
	t.Render()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}
