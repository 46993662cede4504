package reverb

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-reverb/dsp/block"
	"github.com/cwbudde/algo-reverb/dsp/core"
)

const (
	gainCalibrationDB         = -58
	gainCalibrationSampleRate = 44100.0
	minPower                  = 0.000125
)

// ErrChannelLayout is returned for impulse responses that are not mono,
// stereo or true stereo (four channels: LL, LR, RL, RR).
var ErrChannelLayout = errors.New("reverb: unsupported impulse channel layout")

// Reverb is a multichannel convolution reverb. It owns one Convolver per
// impulse channel and routes input channels to them depending on the
// impulse layout:
//
//	input  impulse  output
//	2      2        2       L*IR0, R*IR1
//	1      2        2       M*IR0, M*IR1
//	1      1        2       M*IR0 on both outputs
//	1      1        1       M*IR0
//	2      4        2       L*IR0 + R*IR2, L*IR1 + R*IR3
//	1      4        2       M*IR0 + M*IR2, M*IR1 + M*IR3
//
// Any other combination produces a null block.
type Reverb struct {
	convolvers    []*Convolver
	blockSize     int
	impulseLength int
	scale         float64

	temp   *block.Block
	silent []float64
}

// NewReverb builds a reverb from a planar impulse response. All channels
// must have the same, non-zero length.
func NewReverb(impulse [][]float64, opts ...Option) (*Reverb, error) {
	cfg := ApplyOptions(opts...)

	switch len(impulse) {
	case 1, 2, 4:
	default:
		return nil, fmt.Errorf("%w: %d channels", ErrChannelLayout, len(impulse))
	}

	length := len(impulse[0])
	if length == 0 {
		return nil, ErrEmptyImpulse
	}
	for ch, data := range impulse {
		if len(data) != length {
			return nil, fmt.Errorf("%w: channel %d has %d frames, channel 0 has %d", ErrChannelLayout, ch, len(data), length)
		}
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	r := &Reverb{
		blockSize:     cfg.BlockSize,
		impulseLength: length,
		scale:         1,
		temp:          block.New(2, cfg.BlockSize),
		silent:        make([]float64, cfg.BlockSize),
	}

	if cfg.Normalize {
		r.scale = NormalizationScale(impulse, cfg.SampleRate)
	}

	scaled := make([]float64, length)
	basePhase := cfg.RenderPhase
	for ch, data := range impulse {
		block.CopyWithScale(data, r.scale, scaled, length)

		cfg.RenderPhase = basePhase + ch*cfg.BlockSize
		c, err := newConvolver(scaled, cfg)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("reverb: channel %d: %w", ch, err)
		}
		r.convolvers = append(r.convolvers, c)
	}

	cfg.Logger.WithFields(logrus.Fields{
		"channels":    len(impulse),
		"frames":      length,
		"scale":       r.scale,
		"sample_rate": cfg.SampleRate,
	}).Debug("reverb ready")

	return r, nil
}

// NormalizationScale returns the gain that brings an impulse response to the
// reference loudness: the inverse RMS over all channels, calibrated to
// -58 dB at 44.1 kHz and halved for true stereo responses.
func NormalizationScale(impulse [][]float64, sampleRate float64) float64 {
	if len(impulse) == 0 || len(impulse[0]) == 0 {
		return 1
	}

	length := len(impulse[0])
	power := 0.0
	for _, data := range impulse {
		power += block.SumOfSquares(data, length)
	}
	power = math.Sqrt(power / float64(len(impulse)*length))

	if math.IsInf(power, 0) || math.IsNaN(power) || power < minPower {
		power = minPower
	}

	scale := core.DBToLinear(gainCalibrationDB) / power
	if sampleRate > 0 {
		scale *= gainCalibrationSampleRate / sampleRate
	}
	if len(impulse) == 4 {
		scale *= 0.5
	}
	return scale
}

// Process renders one block. A null out is given two channels; otherwise
// out's channel count selects mono or stereo output. A null in is treated
// as mono silence so that tails keep ringing out.
func (r *Reverb) Process(in, out *block.Block) {
	if !checkBounds(in.Size() == r.blockSize && out.Size() == r.blockSize,
		"block size %d/%d, reverb block size %d", in.Size(), out.Size(), r.blockSize) {
		out.SetNull()
		return
	}

	if out.IsNull() {
		out.AllocateChannels(2)
	}

	inputs := in.Channels()
	if in.IsNull() {
		inputs = [][]float64{r.silent}
	}

	numInputs := len(inputs)
	numReverbs := len(r.convolvers)
	numOutputs := out.ChannelCount()

	switch {
	case numInputs == 2 && numReverbs == 2 && numOutputs == 2:
		r.convolvers[0].Process(inputs[0], out.Channel(0))
		r.convolvers[1].Process(inputs[1], out.Channel(1))

	case numInputs == 1 && numReverbs == 2 && numOutputs == 2:
		r.convolvers[0].Process(inputs[0], out.Channel(0))
		r.convolvers[1].Process(inputs[0], out.Channel(1))

	case numInputs == 1 && numReverbs == 1 && numOutputs == 2:
		r.convolvers[0].Process(inputs[0], out.Channel(0))
		copy(out.Channel(1), out.Channel(0))

	case numInputs == 1 && numReverbs == 1 && numOutputs == 1:
		r.convolvers[0].Process(inputs[0], out.Channel(0))

	case numInputs == 2 && numReverbs == 4 && numOutputs == 2:
		r.trueStereo(inputs[0], inputs[1], out)

	case numInputs == 1 && numReverbs == 4 && numOutputs == 2:
		r.trueStereo(inputs[0], inputs[0], out)

	default:
		out.SetNull()
	}
}

func (r *Reverb) trueStereo(left, right []float64, out *block.Block) {
	n := r.blockSize
	tempL, tempR := r.temp.Channel(0), r.temp.Channel(1)

	r.convolvers[0].Process(left, out.Channel(0))
	r.convolvers[1].Process(left, out.Channel(1))
	r.convolvers[2].Process(right, tempL)
	r.convolvers[3].Process(right, tempR)

	block.AddWithScale(tempL, 1, out.Channel(0), n)
	block.AddWithScale(tempR, 1, out.Channel(1), n)
}

// Reset silences every convolver.
func (r *Reverb) Reset() {
	for _, c := range r.convolvers {
		c.Reset()
	}
}

// Close stops worker goroutines of all convolvers.
func (r *Reverb) Close() error {
	var errs []error
	for _, c := range r.convolvers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// BlockSize returns the render quantum.
func (r *Reverb) BlockSize() int {
	return r.blockSize
}

// ImpulseChannels returns the number of impulse channels.
func (r *Reverb) ImpulseChannels() int {
	return len(r.convolvers)
}

// ImpulseLength returns the impulse length in frames.
func (r *Reverb) ImpulseLength() int {
	return r.impulseLength
}

// Scale returns the normalization gain applied to the impulse.
func (r *Reverb) Scale() float64 {
	return r.scale
}

// Latency returns the delay in frames between input and output.
func (r *Reverb) Latency() int {
	return r.convolvers[0].Latency()
}

// TailLength returns how many frames of output follow the last non-silent
// input frame.
func (r *Reverb) TailLength() int {
	return r.convolvers[0].TailLength()
}

// Stages returns the stage layout of the first convolver; all convolvers
// share it.
func (r *Reverb) Stages() []StageInfo {
	return r.convolvers[0].Stages()
}

// Dropped returns quanta lost to bounds checks across all convolvers.
func (r *Reverb) Dropped() uint64 {
	var total uint64
	for _, c := range r.convolvers {
		total += c.Dropped()
	}
	return total
}
