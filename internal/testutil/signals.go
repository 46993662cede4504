// Package testutil holds signal generators and comparison helpers shared by
// the package tests.
package testutil

import "math/rand/v2"

// Noise returns white noise in [-amplitude, amplitude) from a fixed seed.
func Noise(seed uint64, amplitude float64, length int) []float64 {
	rng := rand.New(rand.NewPCG(seed, 0))
	out := make([]float64, length)
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Impulse returns a unit impulse at pos, or all zeros if pos is outside.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DecayingNoise returns a synthetic room response: seeded noise under an
// exponential envelope that falls by decay per sample.
func DecayingNoise(seed uint64, length int, decay float64) []float64 {
	out := Noise(seed, 1, length)
	gain := 1.0
	for i := range out {
		out[i] *= gain
		gain *= decay
	}
	return out
}

// Convolve is the textbook full linear convolution of a and b, used as the
// reference output for the streaming convolvers.
func Convolve(a, b []float64) []float64 {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		if x == 0 {
			continue
		}
		for j, h := range b {
			out[i+j] += x * h
		}
	}
	return out
}

// Blocks cuts signal into consecutive blocks of size frames, zero padding
// the last one and appending extra silent blocks.
func Blocks(signal []float64, size, extra int) [][]float64 {
	n := (len(signal)+size-1)/size + extra
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, size)
		if start := i * size; start < len(signal) {
			copy(out[i], signal[start:])
		}
	}
	return out
}
