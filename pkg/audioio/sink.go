package audioio

import (
	"context"
	"io"
)

// Sink plays audio to a speaker or other output device.
// A sink owns exclusive access to its device between Start and Stop.
type Sink interface {
	// Start begins audio playback.
	// After calling Start, audio can be written via Write.
	Start(ctx context.Context) error

	// Stop halts audio playback and releases the device.
	// It is safe to call Stop multiple times.
	Stop() error

	// Write sends an audio chunk to the output device.
	Write(ctx context.Context, chunk Chunk) error

	// Clear discards all buffered audio immediately.
	// Use this to interrupt playback (e.g., when the user speaks).
	Clear() error

	// Config returns the current audio configuration.
	Config() Config

	// Name returns the backend name (e.g., "malgo", "mock").
	Name() string

	// Close releases all resources.
	// After Close, the sink cannot be restarted.
	io.Closer
}
