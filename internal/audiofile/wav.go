package audiofile

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

var errInvalidWAV = errors.New("audiofile: not a valid WAV stream")

func decodeWAV(r io.ReadSeeker) (*Audio, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errInvalidWAV
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audiofile: decode wav: %w", err)
	}

	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = int(dec.BitDepth)
	}
	if !validBitDepth(depth) {
		return nil, fmt.Errorf("%w: %d", ErrBitDepth, depth)
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		return nil, fmt.Errorf("audiofile: wav reports %d channels", channels)
	}

	full := fullScale(depth)

	return &Audio{
		SampleRate: buf.Format.SampleRate,
		Channels: deinterleave(len(buf.Data)/channels, channels, func(i int) float64 {
			return float64(buf.Data[i]) / full
		}),
	}, nil
}

// EncodeWAV writes a as integer PCM of the given bit depth. Samples outside
// [-1, 1] are clipped.
func EncodeWAV(w io.WriteSeeker, a *Audio, bitDepth int) error {
	if !validBitDepth(bitDepth) {
		return fmt.Errorf("%w: %d", ErrBitDepth, bitDepth)
	}
	if a.ChannelCount() == 0 {
		return ErrEmpty
	}

	channels := a.ChannelCount()
	frames := a.Frames()
	full := fullScale(bitDepth)
	lo, hi := -full, full-1

	data := make([]int, frames*channels)
	for ch, samples := range a.Channels {
		for f, v := range samples[:frames] {
			q := math.Round(v * full)
			q = min(max(q, lo), hi)
			data[f*channels+ch] = int(q)
		}
	}

	enc := wav.NewEncoder(w, a.SampleRate, bitDepth, channels, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  a.SampleRate,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("audiofile: encode wav: %w", err)
	}
	return enc.Close()
}

func validBitDepth(depth int) bool {
	switch depth {
	case 16, 24, 32:
		return true
	}
	return false
}

func fullScale(depth int) float64 {
	return float64(int64(1) << (depth - 1))
}
