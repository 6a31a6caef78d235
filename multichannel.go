package fixpoint

import (
	"context"
	"fmt"
	"sync"
)

// blockSize is the number of samples simulated between context checks.
const blockSize = 4096

// Simulator is the streaming surface shared by FIR and IIR.
type Simulator interface {
	Run(x []float64) (Result, error)
	Process(x []float64) ([]float64, error)
	ProcessInt(x []float64) ([]int64, error)
	Impulse(amplitude float64, n int) ([]float64, error)
	Reset()
	Overflows() Overflows
	SetObserver(fn Observer)
}

var (
	_ Simulator = (*FIR)(nil)
	_ Simulator = (*IIR)(nil)
)

// NewSimulator returns a FIR or IIR simulator for cfg.
func NewSimulator(kind Kind, cfg Config) (Simulator, error) {
	switch kind {
	case KindFIR:
		f, err := NewFIR(cfg)
		if err != nil {
			return nil, err
		}
		return f, nil
	case KindIIR:
		f, err := NewIIR(cfg)
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, kind)
	}
}

// Simulate runs x through a fresh simulator of the given kind.
func Simulate(kind Kind, x []float64, cfg Config) (Result, error) {
	sim, err := NewSimulator(kind, cfg)
	if err != nil {
		return Result{}, err
	}
	return sim.Run(x)
}

// ChannelOption configures SimulateChannels.
type ChannelOption func(*channelOptions)

type channelOptions struct {
	parallel bool
	observer func(channel int) Observer
}

// WithParallel simulates each channel on its own goroutine.
func WithParallel(enabled bool) ChannelOption {
	return func(o *channelOptions) {
		o.parallel = enabled
	}
}

// WithChannelObserver installs the observer returned by fn for each
// channel. In parallel mode the observers run concurrently.
func WithChannelObserver(fn func(channel int) Observer) ChannelOption {
	return func(o *channelOptions) {
		o.observer = fn
	}
}

// SimulateChannels runs every input channel through its own simulator
// built from the same cfg. Channels share no state, so parallel and
// sequential runs produce identical results. ctx is checked between blocks
// of samples.
func SimulateChannels(ctx context.Context, kind Kind, inputs [][]float64, cfg Config, opts ...ChannelOption) ([]Result, error) {
	var o channelOptions
	for _, opt := range opts {
		opt(&o)
	}

	// Validate once up front so every channel fails the same way.
	if err := cfg.Validate(kind); err != nil {
		return nil, err
	}

	results := make([]Result, len(inputs))

	if !o.parallel || len(inputs) <= 1 {
		for ch, x := range inputs {
			res, err := simulateChannel(ctx, kind, x, cfg, o.observerFor(ch))
			if err != nil {
				return nil, fmt.Errorf("channel %d: %w", ch, err)
			}
			results[ch] = res
		}
		return results, nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for ch := range inputs {
		wg.Add(1)
		go func(channel int) {
			defer wg.Done()

			res, err := simulateChannel(ctx, kind, inputs[channel], cfg, o.observerFor(channel))
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("channel %d: %w", channel, err)
					cancel()
				}
				mu.Unlock()
				return
			}
			results[channel] = res
		}(ch)
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

func (o channelOptions) observerFor(ch int) Observer {
	if o.observer == nil {
		return nil
	}
	return o.observer(ch)
}

func simulateChannel(ctx context.Context, kind Kind, x []float64, cfg Config, obs Observer) (Result, error) {
	sim, err := NewSimulator(kind, cfg)
	if err != nil {
		return Result{}, err
	}
	sim.SetObserver(obs)

	out := Result{
		Output: make([]float64, 0, len(x)),
		Ints:   make([]int64, 0, len(x)),
	}
	for start := 0; start < len(x) || start == 0; start += blockSize {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		end := min(start+blockSize, len(x))
		res, err := sim.Run(x[start:end])
		if err != nil {
			return Result{}, err
		}
		out.Output = append(out.Output, res.Output...)
		out.Ints = append(out.Ints, res.Ints...)
		out.Overflows = res.Overflows
		if end == len(x) {
			break
		}
	}
	return out, nil
}
