package creditflow

import (
	"context"
	"time"

	"creditflow/internal/common/logger"
	"creditflow/internal/common/metrics"
	"creditflow/internal/domain/flow"
	"creditflow/internal/infrastructure/eventbus"

	"github.com/google/uuid"
)

// Handler is one unit of saga work: it receives a context snapshot and
// returns the partial context to merge on success. Handlers never transition
// state themselves; the machine does all bookkeeping.
type Handler func(ctx context.Context, fc flow.Context) (*flow.StepResult, error)

// Handlers binds a handler to every invoking and terminal state of the flow.
type Handlers struct {
	Start                       Handler
	ProcessPayment              Handler
	ExchangeCrypto              Handler
	ProcessWithdraw             Handler
	RollbackFromPaymentFailure  Handler
	RollbackFromCryptoFailure   Handler
	RollbackFromWithdrawFailure Handler
	OnSuccess                   Handler
	OnFailure                   Handler
}

func (h Handlers) byState() map[flow.State]Handler {
	return map[flow.State]Handler{
		flow.StateStarting:                     h.Start,
		flow.StateProcessingPayment:            h.ProcessPayment,
		flow.StateExchangingCrypto:             h.ExchangeCrypto,
		flow.StateProcessingWithdraw:           h.ProcessWithdraw,
		flow.StatePaymentFailed:                h.RollbackFromPaymentFailure,
		flow.StateCryptoFailed:                 h.RollbackFromCryptoFailure,
		flow.StateWithdrawFailed:               h.RollbackFromWithdrawFailure,
		flow.StateSucceeded:                    h.OnSuccess,
		flow.StateFailedWithSuccessfulRollback: h.OnFailure,
		flow.StateFailedPendingReview:          h.OnFailure,
	}
}

// Machine drives one credit flow from idle to a terminal state by
// interpreting the transition table in the domain package. One machine per
// invocation; it is not reused.
type Machine struct {
	handlers  map[flow.State]Handler
	logger    logger.Logger
	publisher eventbus.Publisher
	collector metrics.Collector
	now       func() time.Time
}

// NewMachine binds the given handlers. publisher and collector may be nil.
func NewMachine(handlers Handlers, l logger.Logger, publisher eventbus.Publisher, collector metrics.Collector) *Machine {
	return &Machine{
		handlers:  handlers.byState(),
		logger:    l,
		publisher: publisher,
		collector: collector,
		now:       time.Now,
	}
}

// SetClock overrides the machine clock, for tests.
func (m *Machine) SetClock(now func() time.Time) {
	m.now = now
}

// Run sends the start event and processes transitions until a terminal
// state's action has finished. The returned context is the snapshot handed
// to the last terminal action, flags included.
//
// The bookkeeping order per transition is part of the contract: exiting an
// invoking or transient state appends that state to the history; entering
// any state refreshes CurrentState and LastUpdated; terminal states append
// themselves on entry since they are never exited. Idle has no bookkeeping
// and never appears in the history.
func (m *Machine) Run(ctx context.Context, userID string, amount float64) flow.Context {
	fc := flow.Context{
		FlowID:       uuid.New().String(),
		UserID:       userID,
		Amount:       amount,
		CurrentState: flow.StateIdle,
		LastUpdated:  m.now(),
	}

	state := flow.Table[flow.StateIdle].OnDone
	for {
		m.enter(ctx, &fc, state)
		transition := flow.Table[state]

		switch transition.Kind {
		case flow.KindTransient:
			state = transition.Always

		case flow.KindInvoking:
			snapshot := fc.Snapshot()
			result, err := m.handlers[state](ctx, snapshot)
			if err != nil {
				fc.Err = err
				state = transition.OnError
			} else {
				fc.Apply(result)
				state = transition.OnDone
			}

		case flow.KindTerminal:
			snapshot := fc.Snapshot()
			_, err := m.handlers[state](ctx, snapshot)
			if err != nil && transition.OnError != "" {
				fc.Err = err
				state = transition.OnError
				continue
			}
			m.count(snapshot.CurrentState)
			return snapshot
		}
	}
}

// enter performs the exit bookkeeping of the state being left and the entry
// bookkeeping of next, then publishes the transition.
func (m *Machine) enter(ctx context.Context, fc *flow.Context, next flow.State) {
	from := fc.CurrentState
	// Terminal states were appended on entry already and have no exit;
	// idle is never recorded at all.
	if from != flow.StateIdle && !from.IsTerminal() {
		fc.StateHistory = append(fc.StateHistory, from)
	}
	fc.CurrentState = next
	fc.LastUpdated = m.now()
	if next.IsTerminal() {
		fc.StateHistory = append(fc.StateHistory, next)
	}

	if m.publisher == nil {
		return
	}
	event := eventbus.TransitionEvent{
		FlowID: fc.FlowID,
		UserID: fc.UserID,
		From:   from,
		To:     next,
		At:     fc.LastUpdated,
	}
	if err := m.publisher.Publish(ctx, event); err != nil {
		m.logger.Warn("Failed to publish transition event",
			logger.Field{Key: "flow_id", Value: fc.FlowID},
			logger.Field{Key: "to_state", Value: next},
			logger.Field{Key: "error", Value: err},
		)
	}
}

func (m *Machine) count(terminal flow.State) {
	if m.collector == nil {
		return
	}
	switch terminal {
	case flow.StateSucceeded:
		m.collector.IncrementCounter(metrics.CounterFlowsSucceeded)
	case flow.StateFailedWithSuccessfulRollback:
		m.collector.IncrementCounter(metrics.CounterFlowsRolledBack)
	case flow.StateFailedPendingReview:
		m.collector.IncrementCounter(metrics.CounterFlowsPendingReview)
	}
}
