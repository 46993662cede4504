// Package fft provides the frequency-domain block used by the convolution
// engine.
//
// A [Block] holds the fftSize-point DFT of a real, zero-padded segment. The
// transform itself is delegated to a [Backend]; two are provided:
//
//   - [BackendAlgoFFT]: github.com/MeKo-Christian/algo-fft complex plans (default)
//   - [BackendGonum]: gonum.org/v1/gonum/dsp/fourier real FFT
//
// Backends disagree about where the 1/N normalization lives. Instead of
// hard-coding a constant per backend, every Block measures the scale at
// construction by pushing a unit impulse through Forward and Inverse and
// taking the reciprocal of what comes back. [Block.PadAndMakeScaledDFT]
// applies that scale, so multiplying a scaled kernel spectrum with an
// unscaled input spectrum and inverting yields the linear-phase circular
// convolution with unit gain regardless of backend.
//
// # Usage
//
//	kernel, _ := fft.New(512)
//	_ = kernel.PadAndMakeScaledDFT(impulse, 256)
//
//	frame, _ := fft.New(512)
//	_ = frame.PerformFFT(input)
//	frame.Multiply(frame, kernel)
//	_ = frame.PerformInverseFFT(output)
package fft
