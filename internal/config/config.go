// Package config loads render settings for the convreverb command from TOML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-reverb/dsp/block"
	"github.com/cwbudde/algo-reverb/dsp/effects/reverb"
	"github.com/cwbudde/algo-reverb/dsp/fft"
	"github.com/cwbudde/algo-reverb/dsp/resample"
)

// ErrUnknownKey is returned when a config file contains keys this package
// does not understand.
var ErrUnknownKey = errors.New("config: unknown key")

// Config holds everything a render needs besides the file names.
type Config struct {
	BlockSize           int     `toml:"block_size"`
	MinFFTSize          int     `toml:"min_fft_size"`
	MaxFFTSize          int     `toml:"max_fft_size"`
	Workers             int     `toml:"workers"`
	BackgroundThreshold int     `toml:"background_threshold"`
	Normalize           bool    `toml:"normalize"`
	Wet                 float64 `toml:"wet"`
	Dry                 float64 `toml:"dry"`
	FFTBackend          string  `toml:"fft_backend"`
	ResampleQuality     string  `toml:"resample_quality"`
	BitDepth            int     `toml:"bit_depth"`
	LogLevel            string  `toml:"log_level"`
}

// Default returns the settings used when no file is given. Keys missing
// from a file keep these values.
func Default() Config {
	return Config{
		BlockSize:           block.DefaultSize,
		MaxFFTSize:          reverb.DefaultMaxFFTSize,
		BackgroundThreshold: reverb.DefaultBackgroundThreshold,
		Normalize:           true,
		Wet:                 1,
		Dry:                 0,
		FFTBackend:          string(fft.BackendAlgoFFT),
		ResampleQuality:     resample.QualityBalanced.String(),
		BitDepth:            24,
		LogLevel:            logrus.InfoLevel.String(),
	}
}

// Load reads path over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to path.
func Save(path string, cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// Validate checks the values that reverb construction does not.
func (c Config) Validate() error {
	if _, err := fft.ParseBackend(c.FFTBackend); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := resample.ParseQuality(c.ResampleQuality); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.BitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("config: bit_depth %d, want 16, 24 or 32", c.BitDepth)
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: negative workers %d", c.Workers)
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (logrus.Level, error) {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("config: %w", err)
	}
	return lvl, nil
}

// ReverbOptions translates the engine settings into reverb options for the
// given sample rate.
func (c Config) ReverbOptions(sampleRate float64, logger logrus.FieldLogger) []reverb.Option {
	backend, err := fft.ParseBackend(c.FFTBackend)
	if err != nil {
		// Left for the convolver to reject.
		backend = fft.BackendKind(c.FFTBackend)
	}

	opts := []reverb.Option{
		reverb.WithSampleRate(sampleRate),
		reverb.WithBlockSize(c.BlockSize),
		reverb.WithMinFFTSize(c.MinFFTSize),
		reverb.WithMaxFFTSize(c.MaxFFTSize),
		reverb.WithWorkers(c.Workers),
		reverb.WithBackgroundThreshold(c.BackgroundThreshold),
		reverb.WithFFTBackend(backend),
		reverb.WithNormalize(c.Normalize),
	}
	if logger != nil {
		opts = append(opts, reverb.WithLogger(logger))
	}
	return opts
}

// ResampleOptions returns the options for converting impulse responses to
// the render rate. An invalid quality falls back to the default.
func (c Config) ResampleOptions() []resample.Option {
	q, err := resample.ParseQuality(c.ResampleQuality)
	if err != nil {
		q = resample.QualityBalanced
	}
	return []resample.Option{resample.WithQuality(q)}
}
