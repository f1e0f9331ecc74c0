package inference

import (
	"context"
	"sync"
)

// Mock is a scripted provider for testing. It replays queued replies
// in order, or a fixed reply when the queue is empty.
type Mock struct {
	mu       sync.Mutex
	replies  []string
	fallback string
	err      error
	requests []*Request
}

// NewMock creates a mock provider with a fixed fallback reply.
func NewMock(fallback string) *Mock {
	return &Mock{fallback: fallback}
}

// QueueReply adds a reply to be returned before the fallback.
func (m *Mock) QueueReply(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, text)
}

// FailWith makes every subsequent call return err.
func (m *Mock) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Generate returns the next scripted reply.
func (m *Mock) Generate(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if m.err != nil {
		return nil, m.err
	}

	text := m.fallback
	if len(m.replies) > 0 {
		text = m.replies[0]
		m.replies = m.replies[1:]
	}

	return &Response{
		Text:         text,
		FinishReason: "stop",
		Model:        "mock",
	}, nil
}

// Health always succeeds unless FailWith was set.
func (m *Mock) Health(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Close is a no-op.
func (m *Mock) Close() error {
	return nil
}

// Requests returns every request seen so far.
func (m *Mock) Requests() []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Verify Mock implements Provider at compile time.
var _ Provider = (*Mock)(nil)
