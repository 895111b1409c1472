package metrics

import "sync"

// Counter names bumped by the credit flow machine on terminal entry.
const (
	CounterFlowsSucceeded     = "flows_succeeded"
	CounterFlowsRolledBack    = "flows_rolled_back"
	CounterFlowsPendingReview = "flows_pending_review"
)

// Collector defines the interface for metrics collection
type Collector interface {
	IncrementCounter(name string)
	GetCounter(name string) int64
}

// InMemoryCollector is a process-local Collector.
type InMemoryCollector struct {
	counters map[string]int64
	mu       sync.RWMutex
}

func NewInMemoryCollector() *InMemoryCollector {
	return &InMemoryCollector{
		counters: make(map[string]int64),
	}
}

func (c *InMemoryCollector) IncrementCounter(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[name]++
}

func (c *InMemoryCollector) GetCounter(name string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counters[name]
}
