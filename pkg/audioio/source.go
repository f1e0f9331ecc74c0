package audioio

import (
	"context"
	"io"
)

// Source captures audio from a microphone or other input device.
// A source owns exclusive access to its device between Start and Stop.
type Source interface {
	// Start begins audio capture.
	// After calling Start, audio chunks are available via Read or Stream.
	Start(ctx context.Context) error

	// Stop halts audio capture and releases the device.
	// It is safe to call Stop multiple times.
	Stop() error

	// Read reads the next audio chunk, blocking if necessary.
	// Returns io.EOF when the source is stopped.
	Read(ctx context.Context) (Chunk, error)

	// Stream returns a channel that receives audio chunks.
	// The channel is closed when the source is stopped.
	Stream() <-chan Chunk

	// Config returns the current audio configuration.
	Config() Config

	// Name returns the backend name (e.g., "malgo", "mock").
	Name() string

	// Close releases all resources.
	// After Close, the source cannot be restarted.
	io.Closer
}
