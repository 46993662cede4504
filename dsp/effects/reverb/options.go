package reverb

import (
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-reverb/dsp/block"
	"github.com/cwbudde/algo-reverb/dsp/core"
	"github.com/cwbudde/algo-reverb/dsp/fft"
)

const (
	// DefaultMaxFFTSize caps the partition size of late stages.
	DefaultMaxFFTSize = 32768
	// DefaultBackgroundThreshold is the impulse offset in frames beyond which
	// stages are handed to workers, about 278 ms at 44.1 kHz.
	DefaultBackgroundThreshold = 8192 + 4096

	// maxRealtimeFFTSize caps stages convolved on the render goroutine when
	// workers take the later ones.
	maxRealtimeFFTSize = 2048
)

// Config holds construction settings for Convolver and Reverb.
type Config struct {
	core.ProcessorConfig

	// MinFFTSize is the FFT size of the leading direct stage. Its kernel,
	// MinFFTSize/2 frames, must fit in one block. Zero means 2*BlockSize.
	MinFFTSize int
	MaxFFTSize int

	RenderPhase  int
	TotalLatency int

	Workers             int
	BackgroundThreshold int

	Backend fft.BackendKind

	// Normalize scales the impulse to a common loudness (Reverb only).
	Normalize bool

	Logger logrus.FieldLogger
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the settings used when no options are given.
func DefaultConfig() Config {
	return Config{
		ProcessorConfig:     core.ApplyProcessorOptions(core.WithBlockSize(block.DefaultSize)),
		MaxFFTSize:          DefaultMaxFFTSize,
		BackgroundThreshold: DefaultBackgroundThreshold,
		Backend:             fft.BackendAlgoFFT,
		Normalize:           true,
		Logger:              logrus.StandardLogger(),
	}
}

// WithSampleRate sets the sample rate used for impulse normalization.
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *Config) {
		core.WithSampleRate(sampleRate)(&cfg.ProcessorConfig)
	}
}

// WithBlockSize sets the render quantum. It must be a power of two.
func WithBlockSize(blockSize int) Option {
	return func(cfg *Config) {
		core.WithBlockSize(blockSize)(&cfg.ProcessorConfig)
	}
}

// WithMinFFTSize sets the FFT size of the leading stage.
func WithMinFFTSize(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MinFFTSize = n
		}
	}
}

// WithMaxFFTSize caps the FFT size of late stages.
func WithMaxFFTSize(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MaxFFTSize = n
		}
	}
}

// WithRenderPhase offsets the pre-delay phase of every stage.
func WithRenderPhase(phase int) Option {
	return func(cfg *Config) {
		if phase >= 0 {
			cfg.RenderPhase = phase
		}
	}
}

// WithTotalLatency delays the whole output by n frames.
func WithTotalLatency(n int) Option {
	return func(cfg *Config) {
		if n >= 0 {
			cfg.TotalLatency = n
		}
	}
}

// WithWorkers convolves stages beyond the background threshold on n worker
// goroutines. Zero keeps everything on the calling goroutine.
func WithWorkers(n int) Option {
	return func(cfg *Config) {
		if n >= 0 {
			cfg.Workers = n
		}
	}
}

// WithBackgroundThreshold sets the impulse offset in frames beyond which
// stages go to workers.
func WithBackgroundThreshold(frames int) Option {
	return func(cfg *Config) {
		if frames >= 0 {
			cfg.BackgroundThreshold = frames
		}
	}
}

// WithFFTBackend selects the FFT implementation for all stages.
func WithFFTBackend(kind fft.BackendKind) Option {
	return func(cfg *Config) {
		cfg.Backend = kind
	}
}

// WithNormalize enables or disables impulse normalization.
func WithNormalize(enabled bool) Option {
	return func(cfg *Config) {
		cfg.Normalize = enabled
	}
}

// WithLogger sets the logger for construction diagnostics. Nothing is
// logged while rendering.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(cfg *Config) {
		if logger != nil {
			cfg.Logger = logger
		}
	}
}

// ApplyOptions applies opts to DefaultConfig.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.MinFFTSize == 0 {
		cfg.MinFFTSize = 2 * cfg.BlockSize
	}
	return cfg
}
