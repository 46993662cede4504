package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-reverb/internal/config"
)

// app carries state shared by all subcommands.
type app struct {
	logger     *logrus.Logger
	cfg        config.Config
	configPath string
	logLevel   string
	jsonLogs   bool
}

func newRootCmd(logger *logrus.Logger) *cobra.Command {
	a := &app{logger: logger, cfg: config.Default()}

	root := &cobra.Command{
		Use:           "convreverb",
		Short:         "Partitioned convolution reverb",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "TOML file with render settings")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.BoolVar(&a.jsonLogs, "json-logs", false, "log as JSON")
	flags.IntVar(&a.cfg.BlockSize, "block", a.cfg.BlockSize, "render quantum in frames (power of two)")
	flags.IntVar(&a.cfg.MaxFFTSize, "max-fft", a.cfg.MaxFFTSize, "largest partition FFT size")
	flags.IntVar(&a.cfg.Workers, "workers", a.cfg.Workers, "worker goroutines for late partitions (0 renders inline)")
	flags.BoolVar(&a.cfg.Normalize, "normalize", a.cfg.Normalize, "normalize impulse loudness")
	flags.Float64Var(&a.cfg.Wet, "wet", a.cfg.Wet, "reverb level")
	flags.Float64Var(&a.cfg.Dry, "dry", a.cfg.Dry, "direct signal level")
	flags.StringVar(&a.cfg.FFTBackend, "fft-backend", a.cfg.FFTBackend, "FFT implementation (algofft, gonum)")
	flags.StringVar(&a.cfg.ResampleQuality, "resample-quality", a.cfg.ResampleQuality, "impulse resampling quality (fast, balanced, best)")

	root.AddCommand(
		newRenderCmd(a),
		newLiveCmd(a),
		newInfoCmd(a),
		newDevicesCmd(a),
	)
	return root
}

// setup loads the config file, lets explicitly set flags override it and
// configures logging.
func (a *app) setup(cmd *cobra.Command) error {
	if a.configPath != "" {
		fromFile, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = mergeFlags(cmd, a.cfg, fromFile)
	}

	if a.logLevel != "" {
		a.cfg.LogLevel = a.logLevel
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	lvl, err := a.cfg.Level()
	if err != nil {
		return err
	}
	a.logger.SetLevel(lvl)
	a.logger.SetOutput(cmd.ErrOrStderr())
	if a.jsonLogs {
		a.logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}

// mergeFlags returns fromFile with every flag the user set on the command
// line taken from flagged.
func mergeFlags(cmd *cobra.Command, flagged, fromFile config.Config) config.Config {
	merged := fromFile
	changed := cmd.Flags().Changed

	if changed("block") {
		merged.BlockSize = flagged.BlockSize
	}
	if changed("max-fft") {
		merged.MaxFFTSize = flagged.MaxFFTSize
	}
	if changed("workers") {
		merged.Workers = flagged.Workers
	}
	if changed("normalize") {
		merged.Normalize = flagged.Normalize
	}
	if changed("wet") {
		merged.Wet = flagged.Wet
	}
	if changed("dry") {
		merged.Dry = flagged.Dry
	}
	if changed("fft-backend") {
		merged.FFTBackend = flagged.FFTBackend
	}
	if changed("resample-quality") {
		merged.ResampleQuality = flagged.ResampleQuality
	}
	if changed("bit-depth") {
		merged.BitDepth = flagged.BitDepth
	}
	return merged
}
