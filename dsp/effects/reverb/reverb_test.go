package reverb

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cwbudde/algo-reverb/dsp/block"
	"github.com/cwbudde/algo-reverb/internal/testutil"
)

func TestNormalizationScale(t *testing.T) {
	calibration := math.Pow(10, -58.0/20)

	ones := make([]float64, 100)
	for i := range ones {
		ones[i] = 1
	}
	halves := make([]float64, 100)
	for i := range halves {
		halves[i] = 0.5
	}

	tests := []struct {
		name       string
		impulse    [][]float64
		sampleRate float64
		want       float64
	}{
		{"unit rms at reference rate", [][]float64{ones}, 44100, calibration},
		{"half rms", [][]float64{halves}, 44100, 2 * calibration},
		{"rms over channels", [][]float64{ones, make([]float64, 100)}, 44100, math.Sqrt2 * calibration},
		{"sample rate", [][]float64{ones}, 88200, calibration / 2},
		{"true stereo halves", [][]float64{ones, ones, ones, ones}, 44100, calibration / 2},
		{"silent impulse", [][]float64{make([]float64, 100)}, 44100, calibration / minPower},
		{"unknown rate", [][]float64{ones}, 0, calibration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizationScale(tt.impulse, tt.sampleRate)
			if math.Abs(got-tt.want) > 1e-12*tt.want {
				t.Fatalf("NormalizationScale = %v, want %v", got, tt.want)
			}
		})
	}
}

// delta returns a gain-scaled unit impulse.
func delta(gain float64) []float64 {
	return []float64{gain}
}

func TestReverbRouting(t *testing.T) {
	const bs = 16
	inL := testutil.Noise(1, 1, bs)
	inR := testutil.Noise(2, 1, bs)

	scaled := func(x []float64, g float64) []float64 {
		out := make([]float64, len(x))
		for i := range x {
			out[i] = x[i] * g
		}
		return out
	}
	sum := func(a, b []float64) []float64 {
		out := make([]float64, len(a))
		for i := range a {
			out[i] = a[i] + b[i]
		}
		return out
	}

	tests := []struct {
		name    string
		impulse [][]float64
		inputs  [][]float64
		outputs int
		want    [][]float64
	}{
		{
			name:    "stereo in, stereo ir",
			impulse: [][]float64{delta(2), delta(3)},
			inputs:  [][]float64{inL, inR},
			outputs: 2,
			want:    [][]float64{scaled(inL, 2), scaled(inR, 3)},
		},
		{
			name:    "mono in, stereo ir",
			impulse: [][]float64{delta(2), delta(3)},
			inputs:  [][]float64{inL},
			outputs: 2,
			want:    [][]float64{scaled(inL, 2), scaled(inL, 3)},
		},
		{
			name:    "mono in, mono ir, stereo out",
			impulse: [][]float64{delta(0.5)},
			inputs:  [][]float64{inL},
			outputs: 2,
			want:    [][]float64{scaled(inL, 0.5), scaled(inL, 0.5)},
		},
		{
			name:    "mono in, mono ir, mono out",
			impulse: [][]float64{delta(0.5)},
			inputs:  [][]float64{inL},
			outputs: 1,
			want:    [][]float64{scaled(inL, 0.5)},
		},
		{
			name:    "true stereo",
			impulse: [][]float64{delta(1), delta(2), delta(3), delta(4)},
			inputs:  [][]float64{inL, inR},
			outputs: 2,
			want:    [][]float64{sum(inL, scaled(inR, 3)), sum(scaled(inL, 2), scaled(inR, 4))},
		},
		{
			name:    "mono through true stereo",
			impulse: [][]float64{delta(1), delta(2), delta(3), delta(4)},
			inputs:  [][]float64{inL},
			outputs: 2,
			want:    [][]float64{scaled(inL, 4), scaled(inL, 6)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewReverb(tt.impulse, WithBlockSize(bs), WithNormalize(false), WithLogger(quietLogger()))
			if err != nil {
				t.Fatalf("NewReverb: %v", err)
			}
			defer r.Close()

			in := block.New(len(tt.inputs), bs)
			for ch, data := range tt.inputs {
				copy(in.Channel(ch), data)
			}
			out := block.New(tt.outputs, bs)

			r.Process(in, out)

			if out.ChannelCount() != len(tt.want) {
				t.Fatalf("output channels = %d, want %d", out.ChannelCount(), len(tt.want))
			}
			for ch := range tt.want {
				testutil.RequireNearlyEqual(t, out.Channel(ch), tt.want[ch], 1e-12)
			}
		})
	}
}

func TestReverbUnsupportedRoutingIsNull(t *testing.T) {
	r, err := NewReverb([][]float64{delta(1), delta(1)}, WithBlockSize(16), WithNormalize(false), WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}

	out := block.New(2, 16)
	r.Process(block.New(3, 16), out)
	if !out.IsNull() {
		t.Fatal("three input channels should produce a null block")
	}
}

func TestReverbNullInputRingsOut(t *testing.T) {
	r, err := NewReverb([][]float64{{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}},
		WithBlockSize(16), WithNormalize(false), WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}

	in := block.New(1, 16)
	in.Channel(0)[0] = 1
	out := block.NewNull(16)

	r.Process(in, out)
	if out.ChannelCount() != 2 {
		t.Fatalf("null output was given %d channels, want 2", out.ChannelCount())
	}
	testutil.RequireSilent(t, out.Channel(0))

	r.Process(block.NewNull(16), out)
	want := make([]float64, 16)
	want[3] = 1
	testutil.RequireNearlyEqual(t, out.Channel(0), want, 1e-12)
	testutil.RequireNearlyEqual(t, out.Channel(1), want, 1e-12)
}

func TestReverbAppliesNormalization(t *testing.T) {
	ir := [][]float64{testutil.DecayingNoise(3, 500, 0.99)}

	r, err := NewReverb(ir, WithSampleRate(48000), WithBlockSize(64), WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}

	want := NormalizationScale(ir, 48000)
	if r.Scale() != want {
		t.Fatalf("Scale = %v, want %v", r.Scale(), want)
	}

	in := block.New(1, 64)
	in.Channel(0)[0] = 1
	out := block.New(1, 64)
	r.Process(in, out)

	scaled := make([]float64, 64)
	for i := range scaled {
		scaled[i] = ir[0][i] * want
	}
	testutil.RequireNearlyEqual(t, out.Channel(0), scaled, 1e-12)

	if r.ImpulseChannels() != 1 || r.ImpulseLength() != 500 || r.BlockSize() != 64 {
		t.Fatalf("accessors: %d channels, %d frames, block %d", r.ImpulseChannels(), r.ImpulseLength(), r.BlockSize())
	}
	if r.TailLength() != 499 || r.Latency() != 0 || r.Dropped() != 0 {
		t.Fatalf("tail/latency/dropped = %d/%d/%d", r.TailLength(), r.Latency(), r.Dropped())
	}
	if len(r.Stages()) == 0 {
		t.Fatal("no stages reported")
	}
}

func TestReverbResetSilences(t *testing.T) {
	r, err := NewReverb([][]float64{testutil.DecayingNoise(4, 300, 0.99)}, WithBlockSize(32), WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}

	in := block.New(1, 32)
	copy(in.Channel(0), testutil.Noise(5, 1, 32))
	out := block.New(2, 32)
	r.Process(in, out)

	r.Reset()
	r.Process(block.NewNull(32), out)

	if diff := cmp.Diff(make([]float64, 32), out.Channel(0)); diff != "" {
		t.Fatalf("output after reset not silent:\n%s", diff)
	}
}

func TestNewReverbErrors(t *testing.T) {
	tests := []struct {
		name    string
		impulse [][]float64
		want    error
	}{
		{"no channels", nil, ErrChannelLayout},
		{"three channels", [][]float64{delta(1), delta(1), delta(1)}, ErrChannelLayout},
		{"ragged channels", [][]float64{{1, 2}, {1}}, ErrChannelLayout},
		{"empty channel", [][]float64{{}}, ErrEmptyImpulse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewReverb(tt.impulse, WithLogger(quietLogger())); !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}
