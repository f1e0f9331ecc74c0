package session

import "fmt"

// ErrorKind classifies a session failure.
type ErrorKind string

const (
	// KindCredential means no or invalid auth, detected before any
	// network attempt.
	KindCredential ErrorKind = "credential"
	// KindDevice means a microphone or speaker could not be acquired
	// or was revoked mid-session.
	KindDevice ErrorKind = "device"
	// KindNetwork means the connection failed or was lost.
	KindNetwork ErrorKind = "network"
	// KindProtocol means the remote sent something unusable.
	KindProtocol ErrorKind = "protocol"
	// KindValidation means required input was missing on the text path.
	KindValidation ErrorKind = "validation"
)

// SessionError is the structured failure surfaced to UI banners. The
// same failure also lands in the chat history as a model message so
// the user sees it without leaving the conversation.
type SessionError struct {
	Kind        ErrorKind
	Message     string
	Recoverable bool
	Err         error
}

// Error implements the error interface.
func (e *SessionError) Error() string {
	return fmt.Sprintf("session [%s]: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *SessionError) Unwrap() error {
	return e.Err
}

func newSessionError(kind ErrorKind, recoverable bool, err error) *SessionError {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &SessionError{Kind: kind, Message: msg, Recoverable: recoverable, Err: err}
}
