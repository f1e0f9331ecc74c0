// Package chat holds the conversation history shared by the voice
// session and the web gateway. Messages stream: a model reply is
// appended once and then edited in place as transcription deltas
// arrive, until its turn completes and the message freezes.
package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one entry in the conversation.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`

	// Streaming marks a message still receiving in-place edits.
	Streaming bool `json:"streaming,omitempty"`
}

// History is an ordered, observable message log. Safe for concurrent
// use. Subscribers receive a full snapshot after every mutation.
type History struct {
	mu       sync.Mutex
	messages []Message
	subs     map[chan []Message]struct{}
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{
		subs: make(map[chan []Message]struct{}),
	}
}

// Append adds a message and returns its generated id.
func (h *History) Append(role Role, text string, streaming bool) string {
	msg := Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
		Streaming: streaming,
	}

	h.mu.Lock()
	h.messages = append(h.messages, msg)
	snapshot := h.snapshotLocked()
	h.mu.Unlock()

	h.notify(snapshot)
	return msg.ID
}

// Update edits the message with the given id in place. It returns
// false when no such message exists.
func (h *History) Update(id string, fn func(*Message)) bool {
	h.mu.Lock()
	var found bool
	for i := range h.messages {
		if h.messages[i].ID == id {
			fn(&h.messages[i])
			found = true
			break
		}
	}
	var snapshot []Message
	if found {
		snapshot = h.snapshotLocked()
	}
	h.mu.Unlock()

	if found {
		h.notify(snapshot)
	}
	return found
}

// SetText replaces a message's text, keeping its streaming flag.
func (h *History) SetText(id, text string) bool {
	return h.Update(id, func(m *Message) { m.Text = text })
}

// Freeze clears a message's streaming flag; no further in-place edits
// should target it.
func (h *History) Freeze(id string) bool {
	return h.Update(id, func(m *Message) { m.Streaming = false })
}

// Messages returns a copy of the full history in order.
func (h *History) Messages() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

// Len returns the number of messages.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

// Subscribe registers for snapshots after each mutation. The returned
// cancel func must be called to release the subscription. Slow
// subscribers miss intermediate snapshots rather than block writers.
func (h *History) Subscribe() (<-chan []Message, func()) {
	ch := make(chan []Message, 1)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *History) snapshotLocked() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

func (h *History) notify(snapshot []Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- snapshot:
		default:
			// Replace the stale pending snapshot with the fresh one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}
