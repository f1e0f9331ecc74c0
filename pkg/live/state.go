package live

// State represents the connection lifecycle state.
type State int

const (
	// StateIdle indicates Connect has not been called.
	StateIdle State = iota
	// StateConnecting indicates the dial/setup handshake is in flight.
	StateConnecting
	// StateOpen indicates the remote acknowledged setup; sends are live.
	StateOpen
	// StateClosing indicates a close was initiated and is draining.
	StateClosing
	// StateClosed indicates the connection is fully shut down.
	StateClosed
	// StateError indicates a transport or protocol failure.
	StateError
)

// String returns a human-readable connection state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
