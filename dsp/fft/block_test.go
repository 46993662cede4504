package fft

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-reverb/internal/testutil"
)

var backends = []BackendKind{BackendAlgoFFT, BackendGonum}

func TestNewRejectsInvalidSizes(t *testing.T) {
	for _, n := range []int{-4, 0, 1, 3, 6, 1000} {
		if _, err := New(n); !errors.Is(err, ErrInvalidSize) {
			t.Errorf("New(%d) error = %v, want ErrInvalidSize", n, err)
		}
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	if _, err := New(8, WithBackend("fftw")); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("error = %v, want ErrUnknownBackend", err)
	}
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    BackendKind
		wantErr bool
	}{
		{"", BackendAlgoFFT, false},
		{"algofft", BackendAlgoFFT, false},
		{" Gonum ", BackendGonum, false},
		{"kiss", "", true},
	}

	for _, tt := range tests {
		got, err := ParseBackend(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseBackend(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseBackend(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCalibratedScale(t *testing.T) {
	tests := []struct {
		kind BackendKind
		want float64
	}{
		{BackendAlgoFFT, 1},
		{BackendGonum, 1.0 / 64},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			b, err := New(64, WithBackend(tt.kind))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if math.Abs(b.Scale()-tt.want) > 1e-12 {
				t.Fatalf("Scale = %v, want %v", b.Scale(), tt.want)
			}
			if b.Backend() != tt.kind {
				t.Fatalf("Backend = %q, want %q", b.Backend(), tt.kind)
			}
		})
	}
}

func TestScaledRoundTripIsIdentity(t *testing.T) {
	for _, kind := range backends {
		t.Run(string(kind), func(t *testing.T) {
			const n = 256
			b, err := New(n, WithBackend(kind))
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			in := testutil.Noise(7, 1, n/2)
			if err := b.PadAndMakeScaledDFT(in, len(in)); err != nil {
				t.Fatalf("PadAndMakeScaledDFT: %v", err)
			}

			out := make([]float64, n)
			if err := b.PerformInverseFFT(out); err != nil {
				t.Fatalf("PerformInverseFFT: %v", err)
			}

			testutil.RequireNearlyEqual(t, out[:n/2], in, 1e-12)
			testutil.RequireNearlyEqual(t, out[n/2:], make([]float64, n/2), 1e-12)
		})
	}
}

func TestForwardIsHermitian(t *testing.T) {
	for _, kind := range backends {
		t.Run(string(kind), func(t *testing.T) {
			const n = 32
			b, err := New(n, WithBackend(kind))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if err := b.PerformFFT(testutil.Noise(9, 1, n)); err != nil {
				t.Fatalf("PerformFFT: %v", err)
			}

			data := b.Data()
			for k := 1; k < n; k++ {
				a, c := data[k], data[n-k]
				if math.Abs(real(a)-real(c)) > 1e-12 || math.Abs(imag(a)+imag(c)) > 1e-12 {
					t.Fatalf("bin %d = %v, bin %d = %v: not conjugate", k, a, n-k, c)
				}
			}
		})
	}
}

func TestMultiplyGivesCircularConvolution(t *testing.T) {
	for _, kind := range backends {
		t.Run(string(kind), func(t *testing.T) {
			const n = 64
			kernel := testutil.DecayingNoise(1, 16, 0.8)
			input := testutil.Noise(2, 1, n/2)

			k, err := New(n, WithBackend(kind))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if err := k.PadAndMakeScaledDFT(kernel, len(kernel)); err != nil {
				t.Fatalf("PadAndMakeScaledDFT: %v", err)
			}

			x, err := New(n, WithBackend(kind))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			frame := make([]float64, n)
			copy(frame, input)
			if err := x.PerformFFT(frame); err != nil {
				t.Fatalf("PerformFFT: %v", err)
			}

			x.Multiply(x, k)

			out := make([]float64, n)
			if err := x.PerformInverseFFT(out); err != nil {
				t.Fatalf("PerformInverseFFT: %v", err)
			}

			// Linear convolution fits in n samples, so circular == linear.
			want := testutil.Convolve(input, kernel)
			if !floats.EqualApprox(out[:len(want)], want, 1e-10) {
				t.Fatalf("max diff %g", testutil.MaxAbsDiff(out[:len(want)], want))
			}
		})
	}
}

func TestBackendsAgree(t *testing.T) {
	const n = 128
	in := testutil.Noise(5, 1, n)

	a, err := New(n, WithBackend(BackendAlgoFFT))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	g, err := New(n, WithBackend(BackendGonum))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := a.PerformFFT(in); err != nil {
		t.Fatal(err)
	}
	if err := g.PerformFFT(in); err != nil {
		t.Fatal(err)
	}

	for i := range a.Data() {
		d := a.Data()[i] - g.Data()[i]
		if math.Hypot(real(d), imag(d)) > 1e-9 {
			t.Fatalf("bin %d: algofft %v, gonum %v", i, a.Data()[i], g.Data()[i])
		}
	}
}

func TestLengthErrors(t *testing.T) {
	b, err := New(16)
	if err != nil {
		t.Fatal(err)
	}

	if err := b.PadAndMakeScaledDFT(make([]float64, 32), 17); !errors.Is(err, ErrLength) {
		t.Errorf("oversized length error = %v", err)
	}
	if err := b.PadAndMakeScaledDFT(make([]float64, 4), 8); !errors.Is(err, ErrLength) {
		t.Errorf("short samples error = %v", err)
	}
	if err := b.PerformFFT(make([]float64, 8)); !errors.Is(err, ErrLength) {
		t.Errorf("short frame error = %v", err)
	}
	if err := b.PerformInverseFFT(make([]float64, 8)); !errors.Is(err, ErrLength) {
		t.Errorf("short output error = %v", err)
	}
}

func TestMultiplySizeMismatchPanics(t *testing.T) {
	a, _ := New(8)
	b, _ := New(16)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	a.Multiply(a, b)
}
