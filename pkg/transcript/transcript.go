// Package transcript merges streaming transcription deltas into
// whole-turn text. The service transcribes both directions of a live
// session but with different delta semantics: user-speech deltas carry
// the full recognition so far and replace the previous value, while
// model-speech deltas are incremental and append.
package transcript

import (
	"strings"
	"sync"
)

// Aggregator accumulates one turn of transcription for each direction.
// Safe for concurrent use.
type Aggregator struct {
	mu    sync.Mutex
	user  string
	model strings.Builder
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// AddUser records a user-speech delta, replacing any previous value,
// and returns the current user transcript.
func (a *Aggregator) AddUser(text string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.user = text
	return a.user
}

// AddModel appends a model-speech delta and returns the accumulated
// model transcript.
func (a *Aggregator) AddModel(text string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.model.WriteString(text)
	return a.model.String()
}

// User returns the user transcript accumulated so far this turn.
func (a *Aggregator) User() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user
}

// Model returns the model transcript accumulated so far this turn.
func (a *Aggregator) Model() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model.String()
}

// ResetModel clears only the model side. Used when the model turn is
// interrupted: the partial utterance stays in history but later deltas
// belong to a fresh response.
func (a *Aggregator) ResetModel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.model.Reset()
}

// Reset clears both sides at a turn boundary and returns the final
// transcripts of the completed turn.
func (a *Aggregator) Reset() (user, model string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	user, model = a.user, a.model.String()
	a.user = ""
	a.model.Reset()
	return user, model
}
