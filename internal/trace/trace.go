// Package trace records per-sample simulation traces to Parquet files.
//
// A Writer hands out one fixpoint.Observer per channel; rows from all
// channels go to a single file tagged with a run id and the configuration.
package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/segmentio/parquet-go"
	fixpoint "github.com/tphakala/go-fixpoint"
)

// Metadata keys stored in the Parquet footer.
const (
	KeyRunID  = "run_id"
	KeyKind   = "kind"
	KeyConfig = "config"
)

// Rows are buffered per channel and written in batches of this size.
const flushRows = 1024

// Row is one simulated sample.
type Row struct {
	Channel     int32   `parquet:"channel"`
	N           int64   `parquet:"n"`
	X           float64 `parquet:"x"`
	XQ          int64   `parquet:"xq"`
	XOverflow   bool    `parquet:"x_overflow"`
	Acc         int64   `parquet:"acc"`
	AccOverflow bool    `parquet:"acc_overflow"`
	Y           int64   `parquet:"y"`
	YValue      float64 `parquet:"y_value"`
	YOverflow   bool    `parquet:"y_overflow"`
}

func newRow(ch int, s fixpoint.Step) Row {
	return Row{
		Channel:     int32(ch),
		N:           int64(s.N),
		X:           s.X,
		XQ:          s.XQ.Int,
		XOverflow:   s.XQ.Overflow,
		Acc:         s.Acc.Int,
		AccOverflow: s.Acc.Overflow,
		Y:           s.Y.Int,
		YValue:      s.Y.Value,
		YOverflow:   s.Y.Overflow,
	}
}

// configSummary is the JSON form of a config kept in the file metadata.
type configSummary struct {
	QI   string    `json:"qi"`
	QO   string    `json:"qo"`
	QCB  string    `json:"qcb"`
	QCA  string    `json:"qca,omitempty"`
	QACC string    `json:"qacc"`
	QMul string    `json:"qmul,omitempty"`
	B    []float64 `json:"b"`
	A    []float64 `json:"a,omitempty"`
}

func summarize(cfg fixpoint.Config, kind fixpoint.Kind) configSummary {
	s := configSummary{
		QI:   cfg.QI.String(),
		QO:   cfg.QO.String(),
		QCB:  cfg.QCB.String(),
		QACC: cfg.QACC.String(),
		B:    cfg.B,
	}
	if kind == fixpoint.KindIIR {
		s.QCA = cfg.QCA.String()
		s.A = cfg.A
	}
	if cfg.QMul != nil {
		s.QMul = cfg.QMul.String()
	}
	return s
}

// Writer collects steps from any number of simulators. Observers for
// different channels may run concurrently; each observer buffers its own
// rows and takes the lock only to hand a full batch to the Parquet writer.
// The first write error is kept and returned by Close.
type Writer struct {
	mu      sync.Mutex
	pw      *parquet.GenericWriter[Row]
	buffers []*channelBuffer
	rows    int64
	runID   string
	closed  bool
	err     error
}

// channelBuffer is owned by a single observer between flushes.
type channelBuffer struct {
	rows []Row
}

// NewWriter starts a trace for a run of cfg.
func NewWriter(w io.Writer, cfg fixpoint.Config, kind fixpoint.Kind) (*Writer, error) {
	cfgJSON, err := json.Marshal(summarize(cfg, kind))
	if err != nil {
		return nil, fmt.Errorf("trace: encode config: %w", err)
	}

	runID := uuid.New().String()
	return &Writer{
		pw: parquet.NewGenericWriter[Row](w,
			parquet.KeyValueMetadata(KeyRunID, runID),
			parquet.KeyValueMetadata(KeyKind, kind.String()),
			parquet.KeyValueMetadata(KeyConfig, string(cfgJSON)),
		),
		runID: runID,
	}, nil
}

// RunID returns the id stored in the file metadata.
func (w *Writer) RunID() string { return w.runID }

// Observer returns the observer for one channel. The observer must not be
// called from more than one goroutine at a time, nor after Close.
func (w *Writer) Observer(ch int) fixpoint.Observer {
	buf := &channelBuffer{rows: make([]Row, 0, flushRows)}
	w.mu.Lock()
	w.buffers = append(w.buffers, buf)
	w.mu.Unlock()

	return func(s fixpoint.Step) {
		buf.rows = append(buf.rows, newRow(ch, s))
		if len(buf.rows) >= flushRows {
			w.mu.Lock()
			w.flushLocked(buf)
			w.mu.Unlock()
		}
	}
}

func (w *Writer) flushLocked(buf *channelBuffer) {
	rows := buf.rows
	if len(rows) == 0 {
		return
	}
	buf.rows = rows[:0]
	if w.err != nil || w.closed {
		return
	}
	n, err := w.pw.Write(rows)
	w.rows += int64(n)
	if err != nil {
		w.err = fmt.Errorf("trace: write rows: %w", err)
	}
}

// Rows returns the number of rows written so far, excluding buffered ones.
func (w *Writer) Rows() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

// Close flushes buffered rows and writes the file footer. It does not
// close the underlying io.Writer. Calling Close again returns the first
// result.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return w.err
	}
	for _, buf := range w.buffers {
		w.flushLocked(buf)
	}
	w.closed = true
	if err := w.pw.Close(); err != nil && w.err == nil {
		w.err = fmt.Errorf("trace: close: %w", err)
	}
	return w.err
}
