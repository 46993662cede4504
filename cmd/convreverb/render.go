package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-reverb/dsp/block"
	"github.com/cwbudde/algo-reverb/dsp/effects/reverb"
	"github.com/cwbudde/algo-reverb/internal/audiofile"
	"github.com/cwbudde/algo-reverb/internal/config"
)

func newRenderCmd(a *app) *cobra.Command {
	var irPath, inPath, outPath string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render an audio file through an impulse response into a WAV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			files, err := audiofile.LoadAll(cmd.Context(), irPath, inPath)
			if err != nil {
				return err
			}
			ir, input := files[0], files[1]

			a.logger.WithFields(logrus.Fields{
				"ir":       irPath,
				"input":    inPath,
				"channels": input.ChannelCount(),
				"frames":   input.Frames(),
				"rate":     input.SampleRate,
			}).Info("rendering")

			out, err := renderReverb(ir, input, a.cfg, a.logger)
			if err != nil {
				return err
			}

			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			if err := audiofile.EncodeWAV(f, out, a.cfg.BitDepth); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			a.logger.WithFields(logrus.Fields{
				"output": outPath,
				"frames": out.Frames(),
			}).Info("done")
			return nil
		},
	}

	cmd.Flags().StringVar(&irPath, "ir", "", "impulse response file (wav, mp3, ogg)")
	cmd.Flags().StringVar(&inPath, "in", "", "input file (wav, mp3, ogg)")
	cmd.Flags().StringVar(&outPath, "out", "", "output WAV file")
	cmd.Flags().IntVar(&a.cfg.BitDepth, "bit-depth", a.cfg.BitDepth, "output bit depth (16, 24, 32)")
	cmd.MarkFlagRequired("ir")
	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("out")
	return cmd
}

// renderReverb renders input through ir quantum by quantum, including the
// reverb tail, and mixes wet and dry signal. Mono input through a mono
// impulse stays mono; everything else renders stereo.
func renderReverb(ir, input *audiofile.Audio, cfg config.Config, logger logrus.FieldLogger) (*audiofile.Audio, error) {
	if n := input.ChannelCount(); n < 1 || n > 2 {
		return nil, fmt.Errorf("input has %d channels, want mono or stereo", n)
	}

	ir, err := matchImpulse(ir, input, cfg, logger)
	if err != nil {
		return nil, err
	}

	r, err := reverb.NewReverb(ir.Channels, cfg.ReverbOptions(float64(input.SampleRate), logger)...)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	inChannels := input.ChannelCount()
	outChannels := 2
	if inChannels == 1 && ir.ChannelCount() == 1 {
		outChannels = 1
	}

	bs := r.BlockSize()
	total := input.Frames() + r.TailLength()
	out := &audiofile.Audio{SampleRate: input.SampleRate, Channels: make([][]float64, outChannels)}
	for ch := range out.Channels {
		out.Channels[ch] = make([]float64, total)
	}

	in := block.New(inChannels, bs)
	wet := block.New(outChannels, bs)

	for start := 0; start < total; start += bs {
		n := min(bs, total-start)

		avail := max(0, min(bs, input.Frames()-start))
		if avail == 0 {
			in.SetNull()
		} else {
			in.AllocateChannels(inChannels)
			for ch := range inChannels {
				copy(in.Channel(ch), input.Channels[ch][start:start+avail])
			}
		}

		wet.AllocateChannels(outChannels)
		r.Process(in, wet)
		if wet.IsNull() {
			return nil, fmt.Errorf("no routing for %d input and %d impulse channels", inChannels, ir.ChannelCount())
		}

		for ch, dst := range out.Channels {
			dst = dst[start : start+n]
			block.CopyWithScale(wet.Channel(ch), cfg.Wet, dst, n)
			if avail > 0 {
				dry := input.Channels[min(ch, inChannels-1)][start:]
				block.AddWithScale(dry, cfg.Dry, dst, min(n, avail))
			}
		}
	}

	peak := 0.0
	for _, ch := range out.Channels {
		peak = max(peak, block.PeakValue(ch, len(ch)))
	}
	if peak > 1 {
		logger.WithField("peak", peak).Warn("output exceeds full scale and will clip")
	}
	if dropped := r.Dropped(); dropped > 0 {
		logger.WithField("quanta", dropped).Warn("quanta dropped by bounds checks")
	}

	return out, nil
}

// matchImpulse resamples ir to the input rate and widens a mono impulse to
// stereo for stereo input, so that each input channel gets its own path.
func matchImpulse(ir, input *audiofile.Audio, cfg config.Config, logger logrus.FieldLogger) (*audiofile.Audio, error) {
	if ir.SampleRate != input.SampleRate {
		logger.WithFields(logrus.Fields{
			"from":    ir.SampleRate,
			"to":      input.SampleRate,
			"quality": cfg.ResampleQuality,
		}).Info("resampling impulse response")

		var err error
		if ir, err = ir.Resample(input.SampleRate, cfg.ResampleOptions()...); err != nil {
			return nil, err
		}
	}

	if input.ChannelCount() == 2 && ir.ChannelCount() == 1 {
		ir = &audiofile.Audio{
			SampleRate: ir.SampleRate,
			Channels:   [][]float64{ir.Channels[0], ir.Channels[0]},
		}
	}
	return ir, nil
}
