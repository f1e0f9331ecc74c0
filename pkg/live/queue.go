package live

import "sync"

// sendQueue is the bounded FIFO holding sends issued before the open
// transition. Pushes beyond the bound are rejected; the queue is
// drained atomically when the connection opens so queued sends are
// never reordered relative to each other or to later sends.
type sendQueue struct {
	mu    sync.Mutex
	limit int
	items []clientMessage
}

func newSendQueue(limit int) *sendQueue {
	return &sendQueue{limit: limit}
}

func (q *sendQueue) push(msg clientMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.limit {
		return ErrSendQueueFull
	}
	q.items = append(q.items, msg)
	return nil
}

// drain takes every queued message, oldest first.
func (q *sendQueue) drain() []clientMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

func (q *sendQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
