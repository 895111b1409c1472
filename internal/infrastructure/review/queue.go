package review

import (
	"sync"
	"time"

	"creditflow/internal/domain/flow"
)

// Entry is a credit flow that terminated in failedPendingReview and now
// waits for a human decision. Entries are never retried automatically.
type Entry struct {
	FlowID  string
	Context flow.Context
	Reason  string
	At      time.Time
}

// Handler is notified synchronously for every entry pushed to the queue.
type Handler func(entry Entry)

// Queue is a bounded in-memory holding area for flows needing manual review.
type Queue struct {
	mu         sync.RWMutex
	entries    []Entry
	handlers   []Handler
	maxEntries int
}

const defaultMaxEntries = 10000

func NewQueue() *Queue {
	return &Queue{maxEntries: defaultMaxEntries}
}

// Push appends an entry, dropping the oldest one when the queue is full, and
// notifies subscribers.
func (q *Queue) Push(entry Entry) {
	q.mu.Lock()
	if entry.At.IsZero() {
		entry.At = time.Now()
	}
	q.entries = append(q.entries, entry)
	if len(q.entries) > q.maxEntries {
		q.entries = q.entries[1:]
	}
	handlers := append([]Handler(nil), q.handlers...)
	q.mu.Unlock()

	for _, h := range handlers {
		h(entry)
	}
}

// Subscribe registers a handler for future entries.
func (q *Queue) Subscribe(h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, h)
}

// List returns a copy of the pending entries, oldest first.
func (q *Queue) List() []Entry {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return append([]Entry(nil), q.entries...)
}

// Len returns the number of pending entries.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}
