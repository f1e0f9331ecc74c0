package session

import (
	"log/slog"

	"github.com/Iggysmallz/houseofmeraal/pkg/audioio"
	"github.com/Iggysmallz/houseofmeraal/pkg/inference"
	"github.com/Iggysmallz/houseofmeraal/pkg/live"
	"github.com/Iggysmallz/houseofmeraal/pkg/playback"
)

// listeningText is the placeholder shown while the live session is
// coming up, before any transcription arrives.
const listeningText = "Listening..."

// Config configures a Controller.
type Config struct {
	// APIKey authenticates both the live session and the text path.
	APIKey string

	// SystemInstruction primes the assistant persona.
	SystemInstruction string

	// InitialMessage is inserted as the first model message when the
	// history is empty.
	InitialMessage string

	// LiveModel and Voice configure the duplex voice session.
	LiveModel string
	Voice     string

	// TextModel serves the single-turn text path.
	TextModel string

	// AudioBackend selects the device layer (auto, malgo, mock).
	AudioBackend audioio.Backend

	// Provider overrides the text-path provider. Nil builds a Gemini
	// REST provider from APIKey.
	Provider inference.Provider

	// Clock overrides the playback clock. Nil means wall time.
	Clock playback.Clock

	// Factories, overridable; nil selects the real implementations.
	NewConn   func(cfg live.Config, logger *slog.Logger) (LiveConn, error)
	NewSource func(cfg audioio.Config, logger *slog.Logger) (audioio.Source, error)
	NewSink   func(cfg audioio.Config, logger *slog.Logger) (audioio.Sink, error)
}

// DefaultConfig returns the shipped storefront configuration.
func DefaultConfig() Config {
	return Config{
		LiveModel:    live.DefaultModel,
		Voice:        live.DefaultVoice,
		TextModel:    "gemini-2.5-flash",
		AudioBackend: audioio.BackendAuto,
	}
}

func (c *Config) applyDefaults() {
	if c.LiveModel == "" {
		c.LiveModel = live.DefaultModel
	}
	if c.Voice == "" {
		c.Voice = live.DefaultVoice
	}
	if c.TextModel == "" {
		c.TextModel = "gemini-2.5-flash"
	}
	if c.AudioBackend == "" {
		c.AudioBackend = audioio.BackendAuto
	}
	if c.NewConn == nil {
		c.NewConn = func(cfg live.Config, logger *slog.Logger) (LiveConn, error) {
			return live.NewConnection(cfg, logger)
		}
	}
	if c.NewSource == nil {
		c.NewSource = func(cfg audioio.Config, logger *slog.Logger) (audioio.Source, error) {
			return audioio.NewSource(cfg, logger)
		}
	}
	if c.NewSink == nil {
		c.NewSink = func(cfg audioio.Config, logger *slog.Logger) (audioio.Sink, error) {
			return audioio.NewSink(cfg, logger)
		}
	}
}
