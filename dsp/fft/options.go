package fft

type config struct {
	backend BackendKind
}

// Option configures a Block.
type Option func(*config)

// WithBackend selects the transform implementation. Unknown kinds make New
// fail with ErrUnknownBackend.
func WithBackend(kind BackendKind) Option {
	return func(cfg *config) {
		cfg.backend = kind
	}
}

func applyOptions(opts []Option) config {
	cfg := config{backend: BackendAlgoFFT}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
