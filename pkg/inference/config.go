package inference

import (
	"log/slog"
	"time"
)

// Config holds provider configuration.
type Config struct {
	// Connection
	BaseURL string // API base URL
	APIKey  string

	// Model is the default generation model.
	Model string

	// SystemInstruction primes every request with the assistant persona.
	SystemInstruction string

	// Sampling defaults
	Temperature float64
	TopP        float64
	TopK        int
	MaxTokens   int

	// Timeout bounds each request.
	Timeout time.Duration

	// Observability
	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
		Model:       "gemini-2.5-flash",
		Temperature: 0.7,
		TopP:        0.95,
		TopK:        64,
		Timeout:     30 * time.Second,
		Logger:      slog.Default(),
	}
}

// Apply applies options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Option is a functional option for configuring providers.
type Option func(*Config)

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithModel sets the generation model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithSystemInstruction sets the assistant persona.
func WithSystemInstruction(text string) Option {
	return func(c *Config) { c.SystemInstruction = text }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) { c.Temperature = t }
}

// WithMaxTokens caps the reply length.
func WithMaxTokens(n int) Option {
	return func(c *Config) { c.MaxTokens = n }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}
