package audioio

import (
	"fmt"
	"log/slog"
)

// NewSource creates a new audio source with the given configuration.
// If cfg.Backend is BackendAuto, the miniaudio backend is selected.
func NewSource(cfg Config, logger *slog.Logger) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	backend := cfg.Backend
	if backend == BackendAuto {
		backend = BackendMalgo
	}

	logger.Info("creating audio source",
		"backend", backend,
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
		"frame_ms", cfg.FrameDuration.Milliseconds(),
	)

	switch backend {
	case BackendMock:
		return NewMockSource(cfg, logger), nil
	case BackendMalgo:
		return NewMalgoSource(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}

// NewSink creates a new audio sink with the given configuration.
// If cfg.Backend is BackendAuto, the miniaudio backend is selected.
func NewSink(cfg Config, logger *slog.Logger) (Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	backend := cfg.Backend
	if backend == BackendAuto {
		backend = BackendMalgo
	}

	logger.Info("creating audio sink",
		"backend", backend,
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
		"frame_ms", cfg.FrameDuration.Milliseconds(),
	)

	switch backend {
	case BackendMock:
		return NewMockSink(cfg, logger), nil
	case BackendMalgo:
		return NewMalgoSink(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}
