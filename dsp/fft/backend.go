package fft

import (
	"errors"
	"fmt"
	"strings"

	algofft "github.com/MeKo-Christian/algo-fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// BackendKind names a transform implementation.
type BackendKind string

const (
	// BackendAlgoFFT uses algo-fft complex plans.
	BackendAlgoFFT BackendKind = "algofft"
	// BackendGonum uses the gonum real FFT.
	BackendGonum BackendKind = "gonum"
)

// ErrUnknownBackend is returned for an unrecognized backend name.
var ErrUnknownBackend = errors.New("fft: unknown backend")

// ParseBackend maps a configuration string to a BackendKind. The empty
// string selects the default backend.
func ParseBackend(s string) (BackendKind, error) {
	switch BackendKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", BackendAlgoFFT:
		return BackendAlgoFFT, nil
	case BackendGonum:
		return BackendGonum, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}

// Backend performs real-input transforms of a fixed size n.
//
// Forward writes all n bins (Hermitian symmetric) of the DFT of src into dst.
// Inverse writes the real part of the inverse transform of src into dst.
// Neither method is required to normalize; Block calibrates for that.
// Implementations are not safe for concurrent use.
type Backend interface {
	Forward(dst []complex128, src []float64) error
	Inverse(dst []float64, src []complex128) error
	Size() int
	Kind() BackendKind
}

func newBackend(kind BackendKind, n int) (Backend, error) {
	switch kind {
	case "", BackendAlgoFFT:
		return newAlgoBackend(n)
	case BackendGonum:
		return newGonumBackend(n), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
	}
}

type algoBackend struct {
	plan *algofft.Plan[complex128]
	in   []complex128
	out  []complex128
}

func newAlgoBackend(n int) (*algoBackend, error) {
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("fft: failed to create FFT plan: %w", err)
	}

	return &algoBackend{
		plan: plan,
		in:   make([]complex128, n),
		out:  make([]complex128, n),
	}, nil
}

func (b *algoBackend) Size() int         { return len(b.in) }
func (b *algoBackend) Kind() BackendKind { return BackendAlgoFFT }

func (b *algoBackend) Forward(dst []complex128, src []float64) error {
	for i, v := range src[:len(b.in)] {
		b.in[i] = complex(v, 0)
	}

	if err := b.plan.Forward(dst[:len(b.in)], b.in); err != nil {
		return fmt.Errorf("fft: forward transform failed: %w", err)
	}
	return nil
}

func (b *algoBackend) Inverse(dst []float64, src []complex128) error {
	if err := b.plan.Inverse(b.out, src[:len(b.out)]); err != nil {
		return fmt.Errorf("fft: inverse transform failed: %w", err)
	}

	for i := range dst[:len(b.out)] {
		dst[i] = real(b.out[i])
	}
	return nil
}

// gonumBackend wraps the gonum real FFT. It only computes the n/2+1
// non-redundant bins and mirrors the rest.
type gonumBackend struct {
	n    int
	fft  *fourier.FFT
	half []complex128
	seq  []float64
}

func newGonumBackend(n int) *gonumBackend {
	return &gonumBackend{
		n:    n,
		fft:  fourier.NewFFT(n),
		half: make([]complex128, n/2+1),
		seq:  make([]float64, n),
	}
}

func (b *gonumBackend) Size() int         { return b.n }
func (b *gonumBackend) Kind() BackendKind { return BackendGonum }

func (b *gonumBackend) Forward(dst []complex128, src []float64) error {
	if len(dst) < b.n || len(src) < b.n {
		return fmt.Errorf("%w: need %d, got dst=%d src=%d", ErrLength, b.n, len(dst), len(src))
	}

	b.half = b.fft.Coefficients(b.half, src[:b.n])

	copy(dst, b.half)
	for k := len(b.half); k < b.n; k++ {
		v := b.half[b.n-k]
		dst[k] = complex(real(v), -imag(v))
	}
	return nil
}

func (b *gonumBackend) Inverse(dst []float64, src []complex128) error {
	if len(dst) < b.n || len(src) < b.n/2+1 {
		return fmt.Errorf("%w: need %d, got dst=%d src=%d", ErrLength, b.n, len(dst), len(src))
	}

	b.seq = b.fft.Sequence(b.seq, src[:b.n/2+1])
	copy(dst, b.seq)
	return nil
}
