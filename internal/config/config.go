// Package config provides environment configuration helpers for the
// assistant commands. A .env file in the working directory is honored
// so local development matches the deployed environment.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Defaults for the assistant process.
const (
	DefaultPort     = "8080"
	DefaultLogLevel = "info"
)

// Load reads a .env file if one is present. Missing files are not an
// error; real environment variables always win over .env entries.
func Load() {
	_ = godotenv.Load()
}

// APIKey returns the Gemini API key from GEMINI_API_KEY.
// An empty string means no credential is configured.
func APIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

// Port returns the HTTP listen port from PORT or the default.
func Port() string {
	if p := os.Getenv("PORT"); p != "" {
		return p
	}
	return DefaultPort
}

// LogLevel returns the log level from LOG_LEVEL or the default.
func LogLevel() string {
	if l := os.Getenv("LOG_LEVEL"); l != "" {
		return l
	}
	return DefaultLogLevel
}

// LogFormat returns the log format override from LOG_FORMAT
// ("json" or "text"). Empty means the logger picks by environment.
func LogFormat() string {
	return os.Getenv("LOG_FORMAT")
}

// AudioBackend returns the audio backend override from AUDIO_BACKEND.
// Empty means automatic platform detection.
func AudioBackend() string {
	return os.Getenv("AUDIO_BACKEND")
}
