// Package meter measures rendered blocks and publishes their levels to
// websocket clients.
package meter

import (
	"fmt"

	"github.com/go-faster/jx"

	"github.com/cwbudde/algo-reverb/dsp/block"
	"github.com/cwbudde/algo-reverb/dsp/core"
)

// Level is the loudness of one rendered quantum.
type Level struct {
	Peak  float64
	RMS   float64
	Frame int64 // first frame of the quantum
}

// Measure returns the level of b over all channels. A null block is silent.
func Measure(b *block.Block, frame int64) Level {
	n := b.ChannelCount() * b.Size()
	return Level{
		Peak:  b.Peak(),
		RMS:   core.RMS(b.Energy(), n),
		Frame: frame,
	}
}

// Encode appends l as {"peak":..,"rms":..,"frame":..}.
func (l Level) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("peak")
	e.Float64(l.Peak)
	e.FieldStart("rms")
	e.Float64(l.RMS)
	e.FieldStart("frame")
	e.Int64(l.Frame)
	e.ObjEnd()
}

// DecodeLevel parses a message produced by Encode. Unknown fields are
// skipped.
func DecodeLevel(data []byte) (Level, error) {
	var l Level
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "peak":
			l.Peak, err = d.Float64()
		case "rms":
			l.RMS, err = d.Float64()
		case "frame":
			l.Frame, err = d.Int64()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return Level{}, fmt.Errorf("meter: decode level: %w", err)
	}
	return l, nil
}
