package live

import "errors"

// Common errors returned by the live connection.
var (
	// ErrMissingAPIKey is returned when no credential is configured.
	ErrMissingAPIKey = errors.New("live: missing API key")

	// ErrAlreadyStarted is returned when Connect is called on a
	// connection that already left the idle state.
	ErrAlreadyStarted = errors.New("live: connection already started")

	// ErrNotConnected is returned when sending on a connection that is
	// neither open nor connecting.
	ErrNotConnected = errors.New("live: connection not open")

	// ErrSendQueueFull is returned when a send issued before the open
	// transition would exceed the pre-open queue bound.
	ErrSendQueueFull = errors.New("live: pre-open send queue full")

	// ErrConnectTimeout is returned when the remote never acknowledges
	// the session setup within the configured window.
	ErrConnectTimeout = errors.New("live: timed out waiting for session open")
)
