// ABOUTME: Signal helpers for device tests: sine synthesis and level metering.
// ABOUTME: Metering reports per-channel RMS/dBFS and overall peak amplitude.

package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// rmsFloor keeps dBFS finite on silent buffers. 20*log10(1e-12) = -240 dB.
const rmsFloor = 1e-12

// Stats holds level measurements for an interleaved capture buffer.
type Stats struct {
	RMS  []float64 // per channel
	DBFS []float64 // per channel
	Peak float64   // absolute, across all channels
}

// Sine synthesizes a mono sine tone as float32 samples in [-amp, amp].
func Sine(freq, amp, sampleRate float64, frames int) []float32 {
	samples := make([]float32, frames)
	for i := range samples {
		t := float64(i) / sampleRate
		samples[i] = float32(amp * math.Sin(2*math.Pi*freq*t))
	}
	return samples
}

// Duplicate interleaves a mono buffer across the given channel count.
// channels <= 1 returns the input unchanged.
func Duplicate(mono []float32, channels int) []float32 {
	if channels <= 1 {
		return mono
	}
	out := make([]float32, len(mono)*channels)
	for i, s := range mono {
		for ch := 0; ch < channels; ch++ {
			out[i*channels+ch] = s
		}
	}
	return out
}

// Downmix averages interleaved stereo down to mono.
func Downmix(stereo []float32) []float32 {
	frames := len(stereo) / 2
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		out[i] = (stereo[i*2] + stereo[i*2+1]) / 2
	}
	return out
}

// Scale returns a copy of samples multiplied by gain.
func Scale(samples []float32, gain float64) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(float64(s) * gain)
	}
	return out
}

// DBFS converts an RMS amplitude to decibels relative to full scale.
// Values at or below the floor map to -240.0 dB rather than -Inf.
func DBFS(rms float64) float64 {
	return 20 * math.Log10(math.Max(rms, rmsFloor))
}

// Analyze computes per-channel RMS and dBFS plus the overall peak of an
// interleaved buffer. channels must be >= 1; short trailing frames are
// ignored.
func Analyze(samples []float32, channels int) Stats {
	if channels < 1 {
		channels = 1
	}
	frames := len(samples) / channels

	stats := Stats{
		RMS:  make([]float64, channels),
		DBFS: make([]float64, channels),
	}

	chans := deinterleave(samples, channels, frames)
	for ch, x := range chans {
		if frames > 0 {
			stats.RMS[ch] = floats.Norm(x, 2) / math.Sqrt(float64(frames))
		}
		stats.DBFS[ch] = DBFS(stats.RMS[ch])
	}

	for _, s := range samples[:frames*channels] {
		if a := math.Abs(float64(s)); a > stats.Peak {
			stats.Peak = a
		}
	}
	return stats
}

func deinterleave(samples []float32, channels, frames int) [][]float64 {
	out := make([][]float64, channels)
	for ch := range out {
		out[ch] = make([]float64, frames)
		for i := 0; i < frames; i++ {
			out[ch][i] = float64(samples[i*channels+ch])
		}
	}
	return out
}
