package reverb

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-reverb/dsp/block"
)

// ErrBlockLength is returned when a buffer is not a whole number of render
// quanta.
var ErrBlockLength = errors.New("reverb: buffer length is not a multiple of the block size")

// ConvolutionReverb is a mono insert effect mixing a dry signal with its
// convolution by a room impulse response.
type ConvolutionReverb struct {
	engine *Convolver
	wet    float64
	dry    float64
	buf    []float64 // one quantum of wet signal
}

// NewConvolutionReverb creates a convolution reverb from a mono impulse
// response. The impulse is used as given; see NormalizationScale for
// loudness matching.
func NewConvolutionReverb(kernel []float64, opts ...Option) (*ConvolutionReverb, error) {
	if len(kernel) == 0 {
		return nil, ErrEmptyImpulse
	}

	engine, err := NewConvolver(kernel, opts...)
	if err != nil {
		return nil, fmt.Errorf("reverb: failed to create convolution engine: %w", err)
	}

	return &ConvolutionReverb{
		engine: engine,
		wet:    1.0,
		dry:    1.0,
		buf:    make([]float64, engine.BlockSize()),
	}, nil
}

// SetWetDry sets the wet and dry mix levels.
// wet controls the convolution reverb send level.
// dry controls the pass-through level of the original signal.
func (r *ConvolutionReverb) SetWetDry(wet, dry float64) {
	r.wet = wet
	r.dry = dry
}

// ProcessInPlace applies reverb to samples in place:
// samples[i] = dry*samples[i] + wet*reverb(samples)[i].
// len(samples) must be a multiple of BlockSize.
func (r *ConvolutionReverb) ProcessInPlace(samples []float64) error {
	n := r.engine.BlockSize()
	if len(samples)%n != 0 {
		return fmt.Errorf("%w: %d frames, block size %d", ErrBlockLength, len(samples), n)
	}

	for start := 0; start < len(samples); start += n {
		quantum := samples[start : start+n]

		r.engine.Process(quantum, r.buf)
		block.InPlaceScale(quantum, r.dry, n)
		block.AddWithScale(r.buf, r.wet, quantum, n)
	}

	return nil
}

// Reset clears convolution state.
func (r *ConvolutionReverb) Reset() {
	r.engine.Reset()
}

// Close releases worker goroutines.
func (r *ConvolutionReverb) Close() error {
	return r.engine.Close()
}

// BlockSize returns the render quantum.
func (r *ConvolutionReverb) BlockSize() int {
	return r.engine.BlockSize()
}

// Latency returns the reverb latency in samples.
func (r *ConvolutionReverb) Latency() int {
	return r.engine.Latency()
}
