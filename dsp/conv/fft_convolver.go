package conv

import (
	"fmt"

	"github.com/cwbudde/algo-reverb/dsp/block"
	"github.com/cwbudde/algo-reverb/dsp/core"
	"github.com/cwbudde/algo-reverb/dsp/fft"
)

// FFTConvolver is an overlap-add convolver for kernels of fftSize/2 taps.
//
// Input is collected into half-size frames. Each complete frame is zero
// padded, transformed, multiplied by the kernel spectrum and transformed
// back; the first half plus the previous frame's tail becomes the next
// fftSize/2 output frames. Output therefore lags input by fftSize/2 frames.
type FFTConvolver struct {
	frame *fft.Block

	readWriteIndex int

	// inputBuffer's second half is never written and stays zero.
	inputBuffer       []float64
	outputBuffer      []float64
	lastOverlapBuffer []float64
}

// NewFFTConvolver returns a convolver for the given power-of-two FFT size.
func NewFFTConvolver(fftSize int, opts ...fft.Option) (*FFTConvolver, error) {
	if fftSize < 2 || !core.IsPowerOfTwo(fftSize) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFFTSize, fftSize)
	}

	frame, err := fft.New(fftSize, opts...)
	if err != nil {
		return nil, fmt.Errorf("conv: FFT convolver frame: %w", err)
	}

	return &FFTConvolver{
		frame:             frame,
		inputBuffer:       make([]float64, fftSize),
		outputBuffer:      make([]float64, fftSize),
		lastOverlapBuffer: make([]float64, fftSize/2),
	}, nil
}

// FFTSize returns the transform size.
func (c *FFTConvolver) FFTSize() int {
	return c.frame.Size()
}

// Latency returns the delay in frames between input and output.
func (c *FFTConvolver) Latency() int {
	return c.frame.Size() / 2
}

// Process convolves framesToProcess frames of input with kernel and writes
// the same number of frames to output. kernel must be the scaled DFT of at
// most fftSize/2 taps at this convolver's FFT size. framesToProcess must
// divide fftSize/2 or be a multiple of it.
func (c *FFTConvolver) Process(kernel *fft.Block, input, output []float64, framesToProcess int) error {
	halfSize := c.frame.Size() / 2

	if framesToProcess <= 0 || (halfSize%framesToProcess != 0 && framesToProcess%halfSize != 0) {
		return fmt.Errorf("%w: %d frames with FFT size %d", ErrInvalidBlockSize, framesToProcess, c.frame.Size())
	}
	if len(input) < framesToProcess || len(output) < framesToProcess {
		return fmt.Errorf("%w: input %d, output %d, need %d", ErrLengthMismatch, len(input), len(output), framesToProcess)
	}
	if kernel.Size() != c.frame.Size() {
		return fmt.Errorf("%w: kernel FFT size %d, convolver %d", ErrInvalidFFTSize, kernel.Size(), c.frame.Size())
	}

	divisions := 1
	divisionSize := framesToProcess
	if framesToProcess > halfSize {
		divisions = framesToProcess / halfSize
		divisionSize = halfSize
	}

	for i := range divisions {
		src := input[i*divisionSize : (i+1)*divisionSize]
		dst := output[i*divisionSize : (i+1)*divisionSize]

		copy(c.inputBuffer[c.readWriteIndex:], src)
		copy(dst, c.outputBuffer[c.readWriteIndex:c.readWriteIndex+divisionSize])
		c.readWriteIndex += divisionSize

		if c.readWriteIndex == halfSize {
			if err := c.convolveFrame(kernel, halfSize); err != nil {
				return err
			}
			c.readWriteIndex = 0
		}
	}

	return nil
}

func (c *FFTConvolver) convolveFrame(kernel *fft.Block, halfSize int) error {
	if err := c.frame.PerformFFT(c.inputBuffer); err != nil {
		return err
	}
	c.frame.Multiply(c.frame, kernel)
	if err := c.frame.PerformInverseFFT(c.outputBuffer); err != nil {
		return err
	}

	block.AddWithScale(c.lastOverlapBuffer, 1, c.outputBuffer, halfSize)
	copy(c.lastOverlapBuffer, c.outputBuffer[halfSize:])
	return nil
}

// Reset clears buffered input, pending output and overlap.
func (c *FFTConvolver) Reset() {
	clear(c.inputBuffer)
	clear(c.outputBuffer)
	clear(c.lastOverlapBuffer)
	c.frame.Zero()
	c.readWriteIndex = 0
}
