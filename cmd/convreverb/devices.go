package main

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/spf13/cobra"
)

func newDevicesCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio devices for the live command",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := portaudio.Initialize(); err != nil {
				return fmt.Errorf("initialize portaudio: %w", err)
			}
			defer portaudio.Terminate()

			devices, err := portaudio.Devices()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for i, d := range devices {
				fmt.Fprintf(w, "[%d] %s (in %d, out %d, %.0f Hz, low latency %.1f ms)\n",
					i, d.Name, d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate,
					d.DefaultLowOutputLatency.Seconds()*1000)
			}
			return nil
		},
	}
}
