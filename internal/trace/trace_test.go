package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/segmentio/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	fixpoint "github.com/tphakala/go-fixpoint"
	"github.com/tphakala/go-fixpoint/internal/testutil"
)

func readRows(t *testing.T, data []byte) []Row {
	t.Helper()

	r := parquet.NewGenericReader[Row](bytes.NewReader(data))
	defer r.Close()

	var rows []Row
	buf := make([]Row, 256)
	for {
		n, err := r.Read(buf)
		rows = append(rows, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return rows
		}
		require.NoError(t, err)
		if n == 0 {
			return rows
		}
	}
}

func TestWriterRecordsEveryStep(t *testing.T) {
	const (
		channels   = 3
		numSamples = 2*flushRows + 5
	)

	cfg := fixpoint.DefaultConfig()
	cfg.B = []float64{0.25, 0.5, 0.25}
	inputs := make([][]float64, channels)
	for ch := range inputs {
		inputs[ch] = testutil.Sine(numSamples, 0.01*float64(ch+1), 0.8)
	}

	var buf bytes.Buffer
	w, err := NewWriter(&buf, cfg, fixpoint.KindFIR)
	require.NoError(t, err)

	results, err := fixpoint.SimulateChannels(context.Background(), fixpoint.KindFIR, inputs, cfg,
		fixpoint.WithParallel(true), fixpoint.WithChannelObserver(w.Observer))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, int64(channels*numSamples), w.Rows())

	data := buf.Bytes()
	f, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, int64(channels*numSamples), f.NumRows())

	runID, ok := f.Lookup(KeyRunID)
	require.True(t, ok)
	assert.Equal(t, w.RunID(), runID)

	kind, ok := f.Lookup(KeyKind)
	require.True(t, ok)
	assert.Equal(t, "fir", kind)

	cfgJSON, ok := f.Lookup(KeyConfig)
	require.True(t, ok)
	var summary configSummary
	require.NoError(t, json.Unmarshal([]byte(cfgJSON), &summary))
	assert.Equal(t, "Q0.31 wrap/floor", summary.QACC)
	assert.Empty(t, summary.QCA, "FIR traces omit feedback quantizer")

	rows := readRows(t, data)
	require.Len(t, rows, channels*numSamples)
	for _, row := range rows {
		res := results[row.Channel]
		assert.Equal(t, res.Ints[row.N], row.Y)
		assert.InDelta(t, res.Output[row.N], row.YValue, 0)
		assert.InDelta(t, inputs[row.Channel][row.N], row.X, 0)
	}
}

func TestWriterFlushesFullBatches(t *testing.T) {
	const channels = 4

	cfg := fixpoint.DefaultConfig()
	cfg.B = []float64{1}

	var buf bytes.Buffer
	w, err := NewWriter(&buf, cfg, fixpoint.KindFIR)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for ch := range channels {
		obs := w.Observer(ch)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range flushRows + 10 {
				obs(fixpoint.Step{N: n})
			}
		}()
	}
	wg.Wait()

	// One full batch per channel reached the file; the tails are buffered.
	assert.Equal(t, int64(channels*flushRows), w.Rows())

	require.NoError(t, w.Close())
	assert.Equal(t, int64(channels*(flushRows+10)), w.Rows())
	assert.Len(t, readRows(t, buf.Bytes()), channels*(flushRows+10))
}

func TestWriterCloseTwice(t *testing.T) {
	cfg := fixpoint.DefaultConfig()
	cfg.B = []float64{1}

	var buf bytes.Buffer
	w, err := NewWriter(&buf, cfg, fixpoint.KindFIR)
	require.NoError(t, err)
	w.Observer(0)(fixpoint.Step{})

	require.NoError(t, w.Close())
	size := buf.Len()
	require.NoError(t, w.Close())
	assert.Equal(t, size, buf.Len(), "second Close writes nothing")
	assert.Equal(t, int64(1), w.Rows())

	f, err := NewWriter(failingWriter{}, cfg, fixpoint.KindFIR)
	require.NoError(t, err)
	first := f.Close()
	require.Error(t, first)
	assert.Equal(t, first, f.Close())
}

func TestWriterRunIDsAreUnique(t *testing.T) {
	cfg := fixpoint.DefaultConfig()
	cfg.B = []float64{1}

	a, err := NewWriter(io.Discard, cfg, fixpoint.KindFIR)
	require.NoError(t, err)
	b, err := NewWriter(io.Discard, cfg, fixpoint.KindFIR)
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID(), b.RunID())
	require.NoError(t, a.Close())
	require.NoError(t, b.Close())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriterKeepsFirstError(t *testing.T) {
	cfg := fixpoint.DefaultConfig()
	cfg.B = []float64{1}

	w, err := NewWriter(failingWriter{}, cfg, fixpoint.KindFIR)
	require.NoError(t, err)

	obs := w.Observer(0)
	for n := range flushRows + 1 {
		obs(fixpoint.Step{N: n})
	}
	require.Error(t, w.Close())
}
