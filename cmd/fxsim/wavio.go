package main

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	pcmFormat = 1 // WAVE_FORMAT_PCM

	monoChannels   = 1
	stereoChannels = 2

	minBitDepth = 16
	maxBitDepth = 32
)

// wavData is a decoded WAV file with samples scaled to [-1, 1).
type wavData struct {
	rate     int
	bitDepth int
	channels [][]float64
}

func (d *wavData) frames() int {
	if len(d.channels) == 0 {
		return 0
	}
	return len(d.channels[0])
}

// fullScale returns 2^(bitDepth-1), the PCM value of 1.0. Power of two
// scaling keeps PCM integers exact on a Q0.(bitDepth-1) grid.
func fullScale(bitDepth int) float64 {
	return math.Ldexp(1, bitDepth-1)
}

// readWAV decodes a PCM WAV file.
func readWAV(path string) (*wavData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth < minBitDepth || bitDepth > maxBitDepth {
		return nil, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
	numChannels := buf.Format.NumChannels
	if numChannels < 1 {
		return nil, fmt.Errorf("invalid channel count %d", numChannels)
	}

	return &wavData{
		rate:     buf.Format.SampleRate,
		bitDepth: bitDepth,
		channels: deinterleave(buf.Data, numChannels, 1/fullScale(bitDepth)),
	}, nil
}

// writeWAV encodes per-channel samples as PCM, rounding and clipping to
// the bit depth.
func writeWAV(path string, d *wavData) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	enc := wav.NewEncoder(f, d.rate, d.bitDepth, len(d.channels), pcmFormat)
	buf := &audio.IntBuffer{
		Data:           interleave(d.channels, fullScale(d.bitDepth)),
		Format:         &audio.Format{NumChannels: len(d.channels), SampleRate: d.rate},
		SourceBitDepth: d.bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write audio data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}
	return nil
}

// deinterleave splits interleaved PCM integers into scaled channels.
func deinterleave(data []int, numChannels int, scale float64) [][]float64 {
	frames := len(data) / numChannels
	out := make([][]float64, numChannels)
	for ch := range out {
		out[ch] = make([]float64, frames)
	}

	if numChannels == monoChannels {
		for i := range frames {
			out[0][i] = float64(data[i]) * scale
		}
		return out
	}
	if numChannels == stereoChannels {
		left, right := out[0], out[1]
		for i := range frames {
			left[i] = float64(data[2*i]) * scale
			right[i] = float64(data[2*i+1]) * scale
		}
		return out
	}

	for i := range frames {
		base := i * numChannels
		for ch := range numChannels {
			out[ch][i] = float64(data[base+ch]) * scale
		}
	}
	return out
}

// interleave merges channels into PCM integers, clipping to the range of
// a word whose full scale is given.
func interleave(channels [][]float64, fullScale float64) []int {
	if len(channels) == 0 {
		return nil
	}
	numChannels := len(channels)
	frames := len(channels[0])
	lo, hi := -fullScale, fullScale-1

	out := make([]int, frames*numChannels)
	for ch, samples := range channels {
		for i, v := range samples {
			out[i*numChannels+ch] = int(min(max(math.Round(v*fullScale), lo), hi))
		}
	}
	return out
}
