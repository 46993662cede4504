package main

import (
	"context"
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-reverb/dsp/block"
	"github.com/cwbudde/algo-reverb/dsp/effects/reverb"
	"github.com/cwbudde/algo-reverb/internal/audiofile"
	"github.com/cwbudde/algo-reverb/internal/meter"
)

const defaultDevice = -1

func newLiveCmd(a *app) *cobra.Command {
	var (
		irPath    string
		inDevice  int
		outDevice int
		meterAddr string
	)

	cmd := &cobra.Command{
		Use:   "live",
		Short: "Run the reverb on an audio device until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ir, err := audiofile.Load(irPath)
			if err != nil {
				return err
			}

			if err := portaudio.Initialize(); err != nil {
				return fmt.Errorf("initialize portaudio: %w", err)
			}
			defer portaudio.Terminate()

			in, err := pickDevice(inDevice, portaudio.DefaultInputDevice)
			if err != nil {
				return err
			}
			out, err := pickDevice(outDevice, portaudio.DefaultOutputDevice)
			if err != nil {
				return err
			}

			return a.runLive(cmd.Context(), ir, in, out, meterAddr)
		},
	}

	cmd.Flags().StringVar(&irPath, "ir", "", "impulse response file (wav, mp3, ogg)")
	cmd.Flags().IntVar(&inDevice, "input-device", defaultDevice, "input device index, see 'devices'")
	cmd.Flags().IntVar(&outDevice, "output-device", defaultDevice, "output device index, see 'devices'")
	cmd.Flags().StringVar(&meterAddr, "meter-addr", "", "serve output levels over websocket on this address")
	cmd.MarkFlagRequired("ir")
	return cmd
}

func pickDevice(index int, fallback func() (*portaudio.DeviceInfo, error)) (*portaudio.DeviceInfo, error) {
	if index == defaultDevice {
		return fallback()
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(devices) {
		return nil, fmt.Errorf("invalid device index %d", index)
	}
	return devices[index], nil
}

// liveEngine renders one quantum per PortAudio callback. The callback
// buffers are exactly one block long.
type liveEngine struct {
	reverb *reverb.Reverb
	in     *block.Block
	out    *block.Block
	wet    float64
	dry    float64
	frame  int64
	meter  *meter.Server
}

func (e *liveEngine) process(in, out [][]float32) {
	dry := e.in.Channel(0)
	for i, v := range in[0] {
		dry[i] = float64(v)
	}

	e.out.AllocateChannels(len(out))
	e.reverb.Process(e.in, e.out)

	for ch, dst := range out {
		if e.out.IsNull() {
			clear(dst)
			continue
		}
		wet := e.out.Channel(ch)
		for i := range dst {
			dst[i] = float32(e.wet*wet[i] + e.dry*dry[i])
		}
	}

	if e.meter != nil {
		e.meter.Publish(meter.Measure(e.out, e.frame))
	}
	e.frame += int64(len(dry))
}

func (a *app) runLive(ctx context.Context, ir *audiofile.Audio, inDev, outDev *portaudio.DeviceInfo, meterAddr string) error {
	rate := outDev.DefaultSampleRate
	ir, err := ir.Resample(int(rate), a.cfg.ResampleOptions()...)
	if err != nil {
		return err
	}

	r, err := reverb.NewReverb(ir.Channels, a.cfg.ReverbOptions(rate, a.logger)...)
	if err != nil {
		return err
	}
	defer r.Close()

	bs := r.BlockSize()
	outChannels := min(2, outDev.MaxOutputChannels)
	engine := &liveEngine{
		reverb: r,
		in:     block.New(1, bs),
		out:    block.New(outChannels, bs),
		wet:    a.cfg.Wet,
		dry:    a.cfg.Dry,
	}

	g, ctx := errgroup.WithContext(ctx)
	if meterAddr != "" {
		engine.meter = meter.NewServer(a.logger)
		g.Go(func() error {
			return engine.meter.ListenAndServe(ctx, meterAddr)
		})
	}

	params := portaudio.LowLatencyParameters(inDev, outDev)
	params.Input.Channels = 1
	params.Output.Channels = outChannels
	params.SampleRate = rate
	params.FramesPerBuffer = bs

	stream, err := portaudio.OpenStream(params, engine.process)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	g.Go(func() error {
		if err := stream.Start(); err != nil {
			return fmt.Errorf("start stream: %w", err)
		}
		a.logger.WithFields(logrus.Fields{
			"input":   inDev.Name,
			"output":  outDev.Name,
			"rate":    rate,
			"block":   bs,
			"latency": params.Output.Latency,
		}).Info("live, press Ctrl-C to stop")

		<-ctx.Done()
		return stream.Stop()
	})

	return g.Wait()
}
