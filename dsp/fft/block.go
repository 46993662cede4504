package fft

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-reverb/dsp/block"
)

var (
	// ErrInvalidSize is returned for an FFT size that is not a power of two
	// of at least 2.
	ErrInvalidSize = errors.New("fft: invalid FFT size")
	// ErrLength is returned when a buffer is shorter than the FFT size.
	ErrLength = errors.New("fft: buffer too short")
	// ErrCalibration is returned when a backend's round trip of a unit
	// impulse does not produce a usable scale.
	ErrCalibration = errors.New("fft: backend calibration failed")
)

// Block holds the fftSize-point DFT of one real segment.
type Block struct {
	size    int
	data    []complex128
	backend Backend
	scale   float64
	scratch []float64
}

// New returns a zeroed Block of the given size.
func New(fftSize int, opts ...Option) (*Block, error) {
	if fftSize < 2 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, fftSize)
	}

	cfg := applyOptions(opts)

	backend, err := newBackend(cfg.backend, fftSize)
	if err != nil {
		return nil, err
	}

	b := &Block{
		size:    fftSize,
		data:    make([]complex128, fftSize),
		backend: backend,
		scratch: make([]float64, fftSize),
	}

	if err := b.calibrate(); err != nil {
		return nil, err
	}
	return b, nil
}

// calibrate measures the gain of a forward+inverse round trip and stores its
// reciprocal as the forward scale.
func (b *Block) calibrate() error {
	clear(b.scratch)
	b.scratch[0] = 1

	if err := b.backend.Forward(b.data, b.scratch); err != nil {
		return err
	}
	if err := b.backend.Inverse(b.scratch, b.data); err != nil {
		return err
	}

	gain := b.scratch[0]
	if gain <= 0 {
		return fmt.Errorf("%w: round-trip gain %v (%s)", ErrCalibration, gain, b.backend.Kind())
	}

	b.scale = 1 / gain
	clear(b.data)
	clear(b.scratch)
	return nil
}

// Size returns the FFT size.
func (b *Block) Size() int {
	return b.size
}

// Scale returns the factor PadAndMakeScaledDFT applies to make a forward and
// inverse transform pair unity gain.
func (b *Block) Scale() float64 {
	return b.scale
}

// Backend returns the kind of transform backing the block.
func (b *Block) Backend() BackendKind {
	return b.backend.Kind()
}

// Data returns the frequency bins. The slice aliases the block.
func (b *Block) Data() []complex128 {
	return b.data
}

// Zero clears the frequency bins.
func (b *Block) Zero() {
	clear(b.data)
}

// PadAndMakeScaledDFT zero-pads the first length samples to the FFT size,
// transforms them and applies the calibrated scale.
func (b *Block) PadAndMakeScaledDFT(samples []float64, length int) error {
	if length > b.size || length > len(samples) || length < 0 {
		return fmt.Errorf("%w: length %d, samples %d, FFT size %d", ErrLength, length, len(samples), b.size)
	}

	copy(b.scratch, samples[:length])
	clear(b.scratch[length:])

	if err := b.backend.Forward(b.data, b.scratch); err != nil {
		return err
	}

	if b.scale != 1 {
		s := complex(b.scale, 0)
		for i := range b.data {
			b.data[i] *= s
		}
	}
	return nil
}

// PerformFFT transforms one full frame of samples without scaling.
func (b *Block) PerformFFT(samples []float64) error {
	if len(samples) < b.size {
		return fmt.Errorf("%w: %d samples, FFT size %d", ErrLength, len(samples), b.size)
	}
	return b.backend.Forward(b.data, samples[:b.size])
}

// PerformInverseFFT writes the inverse transform of the block into dst.
func (b *Block) PerformInverseFFT(dst []float64) error {
	if len(dst) < b.size {
		return fmt.Errorf("%w: %d samples, FFT size %d", ErrLength, len(dst), b.size)
	}
	return b.backend.Inverse(dst[:b.size], b.data)
}

// Multiply sets the block to the bin-wise product of x and y. Either operand
// may be the receiver. All three blocks must have the same size.
func (b *Block) Multiply(x, y *Block) {
	if x.size != b.size || y.size != b.size {
		panic(fmt.Sprintf("fft: multiply size mismatch %d/%d/%d", b.size, x.size, y.size))
	}
	block.ComplexMultiply(x.data, y.data, b.data, b.size)
}

// CopyFrom copies the bins of src into b.
func (b *Block) CopyFrom(src *Block) {
	if src.size != b.size {
		panic(fmt.Sprintf("fft: copy size mismatch %d != %d", b.size, src.size))
	}
	copy(b.data, src.data)
}
