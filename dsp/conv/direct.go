package conv

import (
	"fmt"

	"github.com/cwbudde/algo-reverb/dsp/block"
)

// DirectConvolver convolves fixed-size input blocks with a short kernel in
// the time domain.
type DirectConvolver struct {
	blockSize int

	// buffer holds the previous block followed by the current one.
	buffer []float64
}

// NewDirectConvolver returns a convolver for blocks of inputBlockSize frames.
// It panics on a non-positive block size.
func NewDirectConvolver(inputBlockSize int) *DirectConvolver {
	if inputBlockSize <= 0 {
		panic(fmt.Sprintf("conv: invalid direct convolver block size %d", inputBlockSize))
	}

	return &DirectConvolver{
		blockSize: inputBlockSize,
		buffer:    make([]float64, 2*inputBlockSize),
	}
}

// BlockSize returns the number of frames Process expects per call.
func (c *DirectConvolver) BlockSize() int {
	return c.blockSize
}

// Process writes the next framesToProcess output frames of input convolved
// with kernel. framesToProcess must equal the block size and the kernel must
// not be longer than it. input and output may alias.
func (c *DirectConvolver) Process(kernel, input, output []float64, framesToProcess int) error {
	n := c.blockSize
	if framesToProcess != n {
		return fmt.Errorf("%w: %d frames, direct convolver block is %d", ErrInvalidBlockSize, framesToProcess, n)
	}
	if len(kernel) > n {
		return fmt.Errorf("%w: %d > %d", ErrKernelTooLong, len(kernel), n)
	}
	if len(input) < n || len(output) < n {
		return fmt.Errorf("%w: input %d, output %d, need %d", ErrLengthMismatch, len(input), len(output), n)
	}

	copy(c.buffer[n:], input[:n])

	out := output[:n]
	clear(out)

	// Scatter every input sample that still reaches this block. Buffer
	// index j is time j-n relative to the block start.
	k := len(kernel)
	for j := n - k + 1; j < 2*n; j++ {
		x := c.buffer[j]
		if x == 0 {
			continue
		}

		t := j - n
		kStart := max(0, -t)
		kEnd := min(k, n-t)
		block.AddWithScale(kernel[kStart:kEnd], x, out[t+kStart:], kEnd-kStart)
	}

	copy(c.buffer[:n], c.buffer[n:])
	return nil
}

// Reset clears the input history.
func (c *DirectConvolver) Reset() {
	clear(c.buffer)
}
