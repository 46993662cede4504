package audiofile

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
)

func decodeVorbis(r io.Reader) (*Audio, error) {
	samples, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("audiofile: decode ogg vorbis: %w", err)
	}
	if format.Channels <= 0 {
		return nil, fmt.Errorf("audiofile: ogg vorbis reports %d channels", format.Channels)
	}

	return &Audio{
		SampleRate: format.SampleRate,
		Channels: deinterleave(len(samples)/format.Channels, format.Channels, func(i int) float64 {
			return float64(samples[i])
		}),
	}, nil
}
