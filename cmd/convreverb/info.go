package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-reverb/dsp/effects/reverb"
	"github.com/cwbudde/algo-reverb/internal/audiofile"
	irmetrics "github.com/cwbudde/algo-reverb/measure/ir"
)

func newInfoCmd(a *app) *cobra.Command {
	var (
		irPath string
		rate   int
	)

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print the partition layout for an impulse response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ir, err := audiofile.Load(irPath)
			if err != nil {
				return err
			}
			if rate > 0 {
				if ir, err = ir.Resample(rate, a.cfg.ResampleOptions()...); err != nil {
					return err
				}
			}

			r, err := reverb.NewReverb(ir.Channels, a.cfg.ReverbOptions(float64(ir.SampleRate), a.logger)...)
			if err != nil {
				return err
			}
			defer r.Close()

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "impulse:  %d ch, %d frames, %d Hz\n", r.ImpulseChannels(), r.ImpulseLength(), ir.SampleRate)
			fmt.Fprintf(w, "scale:    %.6g\n", r.Scale())
			fmt.Fprintf(w, "block:    %d frames\n", r.BlockSize())
			fmt.Fprintf(w, "latency:  %d frames\n", r.Latency())
			fmt.Fprintf(w, "tail:     %d frames\n\n", r.TailLength())

			if err := printAcoustics(w, ir); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "stage\toffset\tlength\tfft\tpre\tpost\tmode\t")
			for i, s := range r.Stages() {
				mode := "fft"
				if s.Direct {
					mode = "direct"
				}
				if s.Background {
					mode += "/bg"
				}
				fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%s\t\n", i, s.Offset, s.Length, s.FFTSize, s.PreDelay, s.PostDelay, mode)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&irPath, "ir", "", "impulse response file (wav, mp3, ogg)")
	cmd.Flags().IntVar(&rate, "rate", 0, "resample the impulse to this rate first")
	cmd.MarkFlagRequired("ir")
	return cmd
}

// printAcoustics writes the room-acoustic metrics of every impulse channel.
func printAcoustics(w io.Writer, ir *audiofile.Audio) error {
	analyzer := irmetrics.NewAnalyzer(float64(ir.SampleRate))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ch\tonset\trt60\tedt\tc80\td50\tcenter\t")
	for ch, data := range ir.Channels {
		m, err := analyzer.Analyze(data)
		if err != nil {
			return fmt.Errorf("channel %d: %w", ch, err)
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%.1f dB\t%.2f\t%.3f s\t\n",
			ch, m.Onset, seconds(m.RT60), seconds(m.EDT), m.C80, m.D50, m.CenterTime)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// seconds formats a decay time, or "-" when it could not be measured.
func seconds(v float64) string {
	if v <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.3f s", v)
}
