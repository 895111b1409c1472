package eventbus

import (
	"context"
	"sync"
)

// MemoryPublisher keeps published transition events in memory, for tests and
// for running the demo without a broker.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []TransitionEvent
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(_ context.Context, event TransitionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *MemoryPublisher) Close() error {
	return nil
}

// Events returns a copy of everything published so far.
func (p *MemoryPublisher) Events() []TransitionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]TransitionEvent(nil), p.events...)
}
