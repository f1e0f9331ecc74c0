package live

import (
	"errors"
	"time"
)

const (
	// DefaultEndpoint is the Gemini Live API WebSocket endpoint.
	DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

	// DefaultModel is the native-audio live model the assistant ships with.
	DefaultModel = "models/gemini-2.5-flash-native-audio-preview-09-2025"

	// DefaultVoice is the prebuilt voice used for synthesized speech.
	DefaultVoice = "Zephyr"
)

// Config holds the live connection configuration.
type Config struct {
	// APIKey is the Gemini API key. Required.
	APIKey string

	// Model is the live model resource name.
	Model string

	// Voice is the prebuilt voice name for audio responses.
	Voice string

	// SystemInstruction is the session-wide system prompt.
	SystemInstruction string

	// Endpoint overrides the WebSocket endpoint (used by tests).
	Endpoint string

	// ConnectTimeout bounds the time between dialing and the remote's
	// setup acknowledgment. Expiry fails the connection.
	ConnectTimeout time.Duration

	// SendQueueSize bounds the pre-open send queue. Sends beyond the
	// bound are rejected with ErrSendQueueFull, never dropped silently.
	SendQueueSize int

	// InputSampleRate tags outbound audio chunks. Default 16000.
	InputSampleRate int

	// OutputSampleRate is assumed for inbound audio whose mime tag
	// carries no rate. Default 24000.
	OutputSampleRate int

	// EventBuffer is the event channel capacity.
	EventBuffer int
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	return Config{
		Model:            DefaultModel,
		Voice:            DefaultVoice,
		Endpoint:         DefaultEndpoint,
		ConnectTimeout:   15 * time.Second,
		SendQueueSize:    64,
		InputSampleRate:  16000,
		OutputSampleRate: 24000,
		EventBuffer:      64,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Model == "" {
		return errors.New("live: model required")
	}
	if c.Endpoint == "" {
		return errors.New("live: endpoint required")
	}
	if c.ConnectTimeout <= 0 {
		return errors.New("live: connect timeout must be positive")
	}
	if c.SendQueueSize <= 0 {
		return errors.New("live: send queue size must be positive")
	}
	return nil
}
