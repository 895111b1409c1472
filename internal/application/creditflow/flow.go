package creditflow

import (
	"context"
	"errors"

	"creditflow/internal/common/logger"
	"creditflow/internal/common/metrics"
	"creditflow/internal/domain/flow"
	"creditflow/internal/infrastructure/eventbus"
	"creditflow/internal/infrastructure/review"
)

var (
	// ErrFlowFailed signals a step failed and every compensation ran.
	ErrFlowFailed = errors.New("credit flow failed, rollback complete")
	// ErrFlowPendingReview signals a compensation or terminal action failed;
	// the flow was parked for manual review.
	ErrFlowPendingReview = errors.New("credit flow failed, pending manual review")
)

// CreditFlow is the synchronous entry point of the saga. It builds one
// machine per invocation and resolves once a terminal state settles.
type CreditFlow struct {
	actions   Actions
	logger    logger.Logger
	publisher eventbus.Publisher
	collector metrics.Collector
	reviews   *review.Queue
}

// NewCreditFlow wires the facade. publisher, collector and reviews may be
// nil when the corresponding concern is not wanted.
func NewCreditFlow(actions Actions, l logger.Logger, publisher eventbus.Publisher, collector metrics.Collector, reviews *review.Queue) *CreditFlow {
	return &CreditFlow{
		actions:   actions,
		logger:    l,
		publisher: publisher,
		collector: collector,
		reviews:   reviews,
	}
}

// Run executes one credit flow for (userID, amount) and blocks until the
// machine settles. The final context is returned on every path; err is nil
// only when the terminal state is succeeded. Callers distinguish the failure
// variants by the recorded terminal state (or by the sentinel error).
func (f *CreditFlow) Run(ctx context.Context, userID string, amount float64) (flow.Context, error) {
	machine := NewMachine(Handlers{
		Start:                       f.actions.Start,
		ProcessPayment:              f.actions.ProcessPayment,
		ExchangeCrypto:              f.actions.ExchangeCrypto,
		ProcessWithdraw:             f.actions.ProcessWithdraw,
		RollbackFromPaymentFailure:  f.actions.RollbackFromPaymentFailure,
		RollbackFromCryptoFailure:   f.actions.RollbackFromCryptoFailure,
		RollbackFromWithdrawFailure: f.actions.RollbackFromWithdrawFailure,
		OnSuccess:                   f.actions.OnSuccess,
		OnFailure:                   f.actions.OnFailure,
	}, f.logger, f.publisher, f.collector)

	final := machine.Run(ctx, userID, amount)

	switch final.CurrentState {
	case flow.StateSucceeded:
		f.logger.Info("Credit flow succeeded",
			logger.Field{Key: "flow_id", Value: final.FlowID},
			logger.Field{Key: "transaction_id", Value: final.TransactionID},
		)
		return final, nil

	case flow.StateFailedPendingReview:
		f.logger.Error("Credit flow parked for manual review",
			logger.Field{Key: "flow_id", Value: final.FlowID},
			logger.Field{Key: "transaction_id", Value: final.TransactionID},
			logger.Field{Key: "error", Value: final.Err},
		)
		if f.reviews != nil {
			reason := ""
			if final.Err != nil {
				reason = final.Err.Error()
			}
			f.reviews.Push(review.Entry{
				FlowID:  final.FlowID,
				Context: final,
				Reason:  reason,
				At:      final.LastUpdated,
			})
		}
		return final, ErrFlowPendingReview

	default:
		f.logger.Warn("Credit flow failed, rollback complete",
			logger.Field{Key: "flow_id", Value: final.FlowID},
			logger.Field{Key: "transaction_id", Value: final.TransactionID},
			logger.Field{Key: "error", Value: final.Err},
		)
		return final, ErrFlowFailed
	}
}
