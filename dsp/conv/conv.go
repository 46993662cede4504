package conv

import "errors"

// Errors returned by the streaming convolvers.
var (
	ErrKernelTooLong    = errors.New("conv: kernel longer than block size")
	ErrLengthMismatch   = errors.New("conv: buffer length mismatch")
	ErrInvalidBlockSize = errors.New("conv: invalid block size")
	ErrInvalidFFTSize   = errors.New("conv: invalid FFT size")
)
