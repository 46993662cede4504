// Package audiofile reads impulse responses and program material into planar
// float64 buffers and writes rendered audio back out as WAV.
package audiofile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrUnsupportedFormat is returned for files whose extension has no decoder.
	ErrUnsupportedFormat = errors.New("audiofile: unsupported format")
	// ErrEmpty is returned when a file decodes to zero frames.
	ErrEmpty = errors.New("audiofile: no audio frames")
	// ErrBitDepth is returned for WAV bit depths other than 16, 24 or 32.
	ErrBitDepth = errors.New("audiofile: unsupported bit depth")
)

// Format identifies a container/codec pair.
type Format string

const (
	FormatWAV    Format = "wav"
	FormatMP3    Format = "mp3"
	FormatVorbis Format = "ogg"
)

// FormatFromPath picks the decoder for a file name by its extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return FormatWAV, nil
	case ".mp3":
		return FormatMP3, nil
	case ".ogg", ".oga":
		return FormatVorbis, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Audio is decoded, planar audio with samples in [-1, 1].
type Audio struct {
	SampleRate int
	Channels   [][]float64
}

// Frames returns the number of frames per channel.
func (a *Audio) Frames() int {
	if len(a.Channels) == 0 {
		return 0
	}
	return len(a.Channels[0])
}

// ChannelCount returns the number of channels.
func (a *Audio) ChannelCount() int {
	return len(a.Channels)
}

// Decode reads a whole stream of the given format.
func Decode(r io.ReadSeeker, format Format) (*Audio, error) {
	var (
		a   *Audio
		err error
	)
	switch format {
	case FormatWAV:
		a, err = decodeWAV(r)
	case FormatMP3:
		a, err = decodeMP3(r)
	case FormatVorbis:
		a, err = decodeVorbis(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	if a.Frames() == 0 {
		return nil, ErrEmpty
	}
	return a, nil
}

// Load decodes the file at path, choosing the decoder by extension.
func Load(path string) (*Audio, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	a, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// LoadAll decodes several files concurrently. Results are in argument order;
// the first failure cancels the rest.
func LoadAll(ctx context.Context, paths ...string) ([]*Audio, error) {
	out := make([]*Audio, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			a, err := Load(path)
			if err != nil {
				return err
			}
			out[i] = a
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// deinterleave splits interleaved samples into planar channels. A trailing
// partial frame is dropped.
func deinterleave(frames, channels int, sample func(i int) float64) [][]float64 {
	out := make([][]float64, channels)
	for ch := range out {
		out[ch] = make([]float64, frames)
	}
	for f := range frames {
		for ch := range channels {
			out[ch][f] = sample(f*channels + ch)
		}
	}
	return out
}
