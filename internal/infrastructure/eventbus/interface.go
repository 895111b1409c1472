package eventbus

import (
	"context"
	"time"

	"creditflow/internal/domain/flow"
)

// TransitionEvent records one state change of a credit flow instance. The
// sequence of events published for a flow mirrors its state history.
type TransitionEvent struct {
	FlowID string     `json:"flowId"`
	UserID string     `json:"userId"`
	From   flow.State `json:"from"`
	To     flow.State `json:"to"`
	At     time.Time  `json:"at"`
}

// Publisher defines the interface for the transition audit stream. Publish
// failures never affect the outcome of a flow; the machine logs and moves on.
type Publisher interface {
	// Publish emits a transition event
	Publish(ctx context.Context, event TransitionEvent) error
	// Close closes the publisher
	Close() error
}
