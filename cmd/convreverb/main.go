// Command convreverb applies convolution reverb to audio files or a live
// audio device.
//
// Usage:
//
//	convreverb render --ir hall.wav --in dry.wav --out wet.wav
//	convreverb live --ir plate.ogg --meter-addr :8080
//	convreverb info --ir hall.wav
//	convreverb devices
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(logrus.StandardLogger()).ExecuteContext(ctx); err != nil {
		logrus.Error(err)
		stop()
		os.Exit(1)
	}
}
