package reverb

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cwbudde/algo-reverb/dsp/fft"
	"github.com/cwbudde/algo-reverb/internal/testutil"
)

func TestStageDelaySplit(t *testing.T) {
	impulse := make([]float64, 8192)

	tests := []struct {
		name     string
		params   StageParams
		wantPre  int
		wantPost int
	}{
		{
			name:     "leading direct stage",
			params:   StageParams{Offset: 0, Length: 128, FFTSize: 256, RenderSliceSize: 128, Direct: true},
			wantPre:  0,
			wantPost: 0,
		},
		{
			name:     "fft stage at its own latency",
			params:   StageParams{Offset: 128, Length: 128, FFTSize: 256, RenderPhase: 128, RenderSliceSize: 128},
			wantPre:  0,
			wantPost: 0,
		},
		{
			name:     "phase shorter than half",
			params:   StageParams{Offset: 2048, Length: 512, FFTSize: 1024, RenderPhase: 384, RenderSliceSize: 128},
			wantPre:  384,
			wantPost: 2048 - 512 - 384,
		},
		{
			name:     "phase wraps at half",
			params:   StageParams{Offset: 2048, Length: 512, FFTSize: 1024, RenderPhase: 640, RenderSliceSize: 128},
			wantPre:  128,
			wantPost: 2048 - 512 - 128,
		},
		{
			name:     "total delay shorter than half",
			params:   StageParams{Offset: 640, Length: 512, FFTSize: 1024, RenderPhase: 384, RenderSliceSize: 128},
			wantPre:  0,
			wantPost: 128,
		},
		{
			name:     "total latency counts",
			params:   StageParams{Offset: 0, Length: 32, FFTSize: 256, RenderPhase: 192, RenderSliceSize: 64, TotalLatency: 256, Direct: true},
			wantPre:  64,
			wantPost: 256 - 64,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStage(impulse, tt.params, NewAccumulationBuffer(len(impulse)+1024))
			if err != nil {
				t.Fatalf("NewStage: %v", err)
			}

			check := func(when string) {
				t.Helper()
				if s.PreDelayLength() != tt.wantPre || s.PostDelayLength() != tt.wantPost {
					t.Fatalf("%s: pre/post = %d/%d, want %d/%d", when,
						s.PreDelayLength(), s.PostDelayLength(), tt.wantPre, tt.wantPost)
				}

				want := tt.params.Offset + tt.params.TotalLatency
				if !tt.params.Direct {
					want -= tt.params.FFTSize / 2
				}
				if got := s.PreDelayLength() + s.PostDelayLength(); got != want {
					t.Fatalf("%s: pre+post = %d, want %d", when, got, want)
				}
			}

			check("after construction")
			s.Reset()
			check("after reset")

			if s.IsDirect() != tt.params.Direct {
				t.Fatalf("IsDirect = %v, want %v", s.IsDirect(), tt.params.Direct)
			}
			if s.TemporaryAliased() != (tt.wantPre == 0) {
				t.Fatalf("TemporaryAliased = %v with pre-delay %d", s.TemporaryAliased(), tt.wantPre)
			}
		})
	}
}

func TestNewStageErrors(t *testing.T) {
	impulse := make([]float64, 1024)
	acc := NewAccumulationBuffer(2048)

	tests := []struct {
		name   string
		params StageParams
		acc    *AccumulationBuffer
		want   error
	}{
		{"fft stage without room for its latency", StageParams{Offset: 64, Length: 128, FFTSize: 256, RenderSliceSize: 128}, acc, ErrStageLatency},
		{"partition past the end", StageParams{Offset: 1000, Length: 128, FFTSize: 256, RenderSliceSize: 128, Direct: true}, acc, ErrStageGeometry},
		{"length beyond half", StageParams{Offset: 512, Length: 256, FFTSize: 256, RenderSliceSize: 128}, acc, ErrStageGeometry},
		{"fft size not a power of two", StageParams{Offset: 512, Length: 64, FFTSize: 200, RenderSliceSize: 128}, acc, ErrStageGeometry},
		{"direct kernel longer than slice", StageParams{Length: 128, FFTSize: 256, RenderSliceSize: 64, Direct: true}, acc, ErrStageGeometry},
		{"no slice", StageParams{Length: 16, FFTSize: 32, Direct: true}, acc, ErrStageGeometry},
		{"nil buffer", StageParams{Length: 16, FFTSize: 32, RenderSliceSize: 16, Direct: true}, nil, ErrStageGeometry},
		{"pre-delay not a multiple of the slice", StageParams{Offset: 512, Length: 256, FFTSize: 512, RenderPhase: 300, RenderSliceSize: 128}, acc, ErrStageGeometry},
		{"direct pre-delay not a multiple of the slice", StageParams{Length: 32, FFTSize: 256, RenderPhase: 96, RenderSliceSize: 64, TotalLatency: 256, Direct: true}, acc, ErrStageGeometry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewStage(impulse, tt.params, tt.acc); !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStagePreDelayWrap(t *testing.T) {
	const slice = 32

	impulse := testutil.DecayingNoise(1, 1024, 0.99)
	acc := NewAccumulationBuffer(len(impulse) + slice)
	s, err := NewStage(impulse, StageParams{
		Offset: 512, Length: 128, FFTSize: 256, RenderPhase: 96, RenderSliceSize: slice,
	}, acc)
	if err != nil {
		t.Fatalf("NewStage: %v", err)
	}
	if s.PreDelayLength() != 96 {
		t.Fatalf("PreDelayLength = %d, want 96", s.PreDelayLength())
	}

	in := testutil.Noise(2, 1, slice)
	for round := range 3 {
		for frames := 0; frames < s.PreDelayLength(); frames += slice {
			if s.PreReadWriteIndex() != frames {
				t.Fatalf("round %d: index = %d after %d frames", round, s.PreReadWriteIndex(), frames)
			}
			s.Process(in, slice)
		}
		if s.PreReadWriteIndex() != 0 {
			t.Fatalf("round %d: index = %d after a full pre-delay, want 0", round, s.PreReadWriteIndex())
		}
	}

	if s.FramesProcessed() != int64(3*s.PreDelayLength()) {
		t.Fatalf("FramesProcessed = %d, want %d", s.FramesProcessed(), 3*s.PreDelayLength())
	}
}

func TestStageShortImpulseDirect(t *testing.T) {
	const slice = 128

	impulse := []float64{1, 0.5, 0, 0}
	acc := NewAccumulationBuffer(len(impulse) + slice)
	s, err := NewStage(impulse, StageParams{
		Length: len(impulse), FFTSize: 8, RenderSliceSize: slice, Direct: true,
	}, acc)
	if err != nil {
		t.Fatalf("NewStage: %v", err)
	}

	s.Process(testutil.Impulse(slice, 0), slice)

	out := make([]float64, slice)
	acc.ReadAndClear(out, slice)

	want := make([]float64, slice)
	want[0], want[1] = 1, 0.5
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("output mismatch:\n%s", diff)
	}
}

func TestStageFFTImpulseReproducesKernel(t *testing.T) {
	for _, backend := range []fft.BackendKind{fft.BackendAlgoFFT, fft.BackendGonum} {
		t.Run(string(backend), func(t *testing.T) {
			const (
				fftSize = 64
				slice   = 16
			)

			kernel := testutil.DecayingNoise(3, fftSize/2, 0.9)
			acc := NewAccumulationBuffer(len(kernel) + slice + fftSize/2)
			s, err := NewStage(kernel, StageParams{
				Length: len(kernel), FFTSize: fftSize, RenderSliceSize: slice,
				TotalLatency: fftSize / 2, Backend: backend,
			}, acc)
			if err != nil {
				t.Fatalf("NewStage: %v", err)
			}
			if s.PreDelayLength() != 0 || s.PostDelayLength() != 0 {
				t.Fatalf("pre/post = %d/%d, want 0/0", s.PreDelayLength(), s.PostDelayLength())
			}

			var got []float64
			out := make([]float64, slice)
			for _, in := range testutil.Blocks(testutil.Impulse(slice, 0), slice, 5) {
				s.Process(in, slice)
				acc.ReadAndClear(out, slice)
				got = append(got, out...)
			}

			testutil.RequireNearlyEqual(t, got[:fftSize/2], make([]float64, fftSize/2), 1e-12)
			testutil.RequireNearlyEqual(t, got[fftSize/2:fftSize], kernel, 1e-12)
		})
	}
}

func TestStageResetIdempotent(t *testing.T) {
	const slice = 32

	impulse := testutil.DecayingNoise(4, 1024, 0.99)
	params := StageParams{Offset: 512, Length: 128, FFTSize: 256, RenderPhase: 64, RenderSliceSize: slice}

	newPrimed := func() (*Stage, *AccumulationBuffer) {
		acc := NewAccumulationBuffer(len(impulse) + slice)
		s, err := NewStage(impulse, params, acc)
		if err != nil {
			t.Fatalf("NewStage: %v", err)
		}
		for i := range 20 {
			s.Process(testutil.Noise(uint64(i), 1, slice), slice)
			acc.ReadAndClear(make([]float64, slice), slice)
		}
		return s, acc
	}

	once, accOnce := newPrimed()
	once.Reset()
	accOnce.Reset()

	twice, accTwice := newPrimed()
	twice.Reset()
	twice.Reset()
	accTwice.Reset()
	accTwice.Reset()

	state := func(s *Stage) []int64 {
		return []int64{s.FramesProcessed(), int64(s.PreReadWriteIndex()), int64(s.AccumulationReadIndex()),
			int64(s.PreDelayLength()), int64(s.PostDelayLength())}
	}
	if diff := cmp.Diff(state(once), state(twice)); diff != "" {
		t.Fatalf("state differs after double reset:\n%s", diff)
	}
	if diff := cmp.Diff([]int64{0, 0, 0, 64, 384 - 64}, state(once)); diff != "" {
		t.Fatalf("unexpected state after reset:\n%s", diff)
	}

	in := testutil.Noise(99, 1, slice)
	outOnce := make([]float64, slice)
	outTwice := make([]float64, slice)
	for range 40 {
		once.Process(in, slice)
		twice.Process(in, slice)
		accOnce.ReadAndClear(outOnce, slice)
		accTwice.ReadAndClear(outTwice, slice)

		if diff := cmp.Diff(outOnce, outTwice); diff != "" {
			t.Fatalf("output differs after double reset:\n%s", diff)
		}
	}
}

func TestStageMatchesDelayedPartialConvolution(t *testing.T) {
	const slice = 32

	impulse := testutil.DecayingNoise(5, 1024, 0.995)
	params := StageParams{Offset: 512, Length: 256, FFTSize: 512, RenderPhase: 160, RenderSliceSize: slice}

	acc := NewAccumulationBuffer(len(impulse) + slice)
	s, err := NewStage(impulse, params, acc)
	if err != nil {
		t.Fatalf("NewStage: %v", err)
	}
	if s.PreDelayLength() == 0 {
		t.Fatal("test needs a stage with pre-delay")
	}

	signal := testutil.Noise(6, 1, 8*slice)
	var got []float64
	out := make([]float64, slice)
	for _, in := range testutil.Blocks(signal, slice, 30) {
		s.Process(in, slice)
		acc.ReadAndClear(out, slice)
		got = append(got, out...)
	}

	segment := impulse[params.Offset : params.Offset+params.Length]
	partial := testutil.Convolve(signal, segment)
	want := append(make([]float64, params.Offset), partial...)

	testutil.RequireNearlyEqual(t, got[:len(want)], want, 1e-10)
}
