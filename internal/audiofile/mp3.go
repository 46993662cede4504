package audiofile

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
)

// go-mp3 always produces 16-bit little-endian interleaved stereo.
const (
	mp3Channels       = 2
	mp3BytesPerSample = 2
)

func decodeMP3(r io.Reader) (*Audio, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("audiofile: decode mp3: %w", err)
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("audiofile: decode mp3: %w", err)
	}

	frames := len(pcm) / (mp3Channels * mp3BytesPerSample)
	return &Audio{
		SampleRate: dec.SampleRate(),
		Channels: deinterleave(frames, mp3Channels, func(i int) float64 {
			v := int16(binary.LittleEndian.Uint16(pcm[i*mp3BytesPerSample:]))
			return float64(v) / 32768
		}),
	}, nil
}
