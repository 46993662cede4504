package audiofile

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-reverb/dsp/resample"
)

// ErrSampleRate is returned for non-positive sample rates.
var ErrSampleRate = errors.New("audiofile: invalid sample rate")

// Resample returns a converted to rate. The result is time aligned with a:
// frame 0 stays at frame 0. A copy is returned when the rates already match.
func (a *Audio) Resample(rate int, opts ...resample.Option) (*Audio, error) {
	if rate <= 0 || a.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d -> %d Hz", ErrSampleRate, a.SampleRate, rate)
	}

	out := &Audio{SampleRate: rate, Channels: make([][]float64, len(a.Channels))}
	for ch, data := range a.Channels {
		if rate == a.SampleRate {
			out.Channels[ch] = append([]float64(nil), data...)
			continue
		}

		converted, err := resample.ResampleAligned(data, rate, a.SampleRate, opts...)
		if err != nil {
			return nil, fmt.Errorf("audiofile: channel %d: %w", ch, err)
		}
		out.Channels[ch] = converted
	}
	return out, nil
}
