// Package audioio provides cross-platform audio capture and playback
// for the voice assistant.
//
// This package supports multiple backends:
//   - malgo (miniaudio) - Production use on desktop platforms
//   - Mock - CI/Testing without hardware
//
// The backend is selected automatically based on platform, or can be
// explicitly specified via configuration.
package audioio

import (
	"fmt"
	"time"
)

// Backend represents the audio backend type.
type Backend string

const (
	// BackendAuto automatically selects the best available backend.
	BackendAuto Backend = "auto"
	// BackendMalgo uses the miniaudio library for audio I/O.
	BackendMalgo Backend = "malgo"
	// BackendMock uses a mock implementation for testing.
	BackendMock Backend = "mock"
)

// Config holds audio configuration.
type Config struct {
	// Backend specifies which audio backend to use.
	// Default: "auto" (selects best available for platform)
	Backend Backend `json:"backend"`

	// SampleRate is the audio sample rate in Hz.
	// Capture runs at 16000 and playback at 24000 in the shipped
	// configuration; the Gemini Live wire format requires both.
	SampleRate int `json:"sample_rate"`

	// Channels is the number of audio channels.
	// Default: 1 (mono)
	Channels int `json:"channels"`

	// FrameDuration is the size of each audio frame.
	// Default: 20ms (320 samples at 16kHz)
	FrameDuration time.Duration `json:"frame_duration"`

	// Device is the platform-specific device identifier.
	// Empty selects the system default.
	Device string `json:"device"`
}

// CaptureConfig returns a Config with defaults for microphone capture.
func CaptureConfig() Config {
	return Config{
		Backend:       BackendAuto,
		SampleRate:    16000, // Gemini Live input rate
		Channels:      1,
		FrameDuration: 20 * time.Millisecond,
	}
}

// PlaybackConfig returns a Config with defaults for speaker playback.
func PlaybackConfig() Config {
	return Config{
		Backend:       BackendAuto,
		SampleRate:    24000, // Gemini Live output rate
		Channels:      1,
		FrameDuration: 20 * time.Millisecond,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", c.Channels)
	}
	if c.FrameDuration <= 0 {
		return fmt.Errorf("frame_duration must be positive, got %v", c.FrameDuration)
	}
	return nil
}

// FrameSize returns the number of samples per frame per channel.
func (c *Config) FrameSize() int {
	return int(float64(c.SampleRate) * c.FrameDuration.Seconds())
}

// FrameBytes returns the size of a frame in bytes (int16 samples).
func (c *Config) FrameBytes() int {
	return c.FrameSize() * c.Channels * 2
}
