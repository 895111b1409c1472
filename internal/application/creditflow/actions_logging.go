package creditflow

import (
	"context"

	"creditflow/internal/common/logger"
	"creditflow/internal/domain/flow"
)

// ActionsWithLogging decorates an Actions implementation with structured
// logging around every step. It never alters results or errors; wrapping is
// plain composition over the inner value.
type ActionsWithLogging struct {
	next   Actions
	logger logger.Logger
}

func NewActionsWithLogging(next Actions, l logger.Logger) *ActionsWithLogging {
	return &ActionsWithLogging{next: next, logger: l}
}

func (a *ActionsWithLogging) Start(ctx context.Context, fc flow.Context) (*flow.StepResult, error) {
	return a.logged(fc, "start credit flow")(a.next.Start(ctx, fc))
}

func (a *ActionsWithLogging) ProcessPayment(ctx context.Context, fc flow.Context) (*flow.StepResult, error) {
	return a.logged(fc, "process payment")(a.next.ProcessPayment(ctx, fc))
}

func (a *ActionsWithLogging) ExchangeCrypto(ctx context.Context, fc flow.Context) (*flow.StepResult, error) {
	return a.logged(fc, "exchange crypto")(a.next.ExchangeCrypto(ctx, fc))
}

func (a *ActionsWithLogging) ProcessWithdraw(ctx context.Context, fc flow.Context) (*flow.StepResult, error) {
	return a.logged(fc, "process withdraw")(a.next.ProcessWithdraw(ctx, fc))
}

func (a *ActionsWithLogging) RollbackFromPaymentFailure(ctx context.Context, fc flow.Context) (*flow.StepResult, error) {
	return a.logged(fc, "rollback from payment failure")(a.next.RollbackFromPaymentFailure(ctx, fc))
}

func (a *ActionsWithLogging) RollbackFromCryptoFailure(ctx context.Context, fc flow.Context) (*flow.StepResult, error) {
	return a.logged(fc, "rollback from crypto failure")(a.next.RollbackFromCryptoFailure(ctx, fc))
}

func (a *ActionsWithLogging) RollbackFromWithdrawFailure(ctx context.Context, fc flow.Context) (*flow.StepResult, error) {
	return a.logged(fc, "rollback from withdraw failure")(a.next.RollbackFromWithdrawFailure(ctx, fc))
}

func (a *ActionsWithLogging) OnSuccess(ctx context.Context, fc flow.Context) (*flow.StepResult, error) {
	return a.logged(fc, "finish credit flow")(a.next.OnSuccess(ctx, fc))
}

func (a *ActionsWithLogging) OnFailure(ctx context.Context, fc flow.Context) (*flow.StepResult, error) {
	return a.logged(fc, "fail credit flow")(a.next.OnFailure(ctx, fc))
}

// logged returns a pass-through that logs the outcome of a step.
func (a *ActionsWithLogging) logged(fc flow.Context, step string) func(*flow.StepResult, error) (*flow.StepResult, error) {
	return func(result *flow.StepResult, err error) (*flow.StepResult, error) {
		fields := []logger.Field{
			{Key: "flow_id", Value: fc.FlowID},
			{Key: "user_id", Value: fc.UserID},
			{Key: "state", Value: fc.CurrentState},
		}
		if err != nil {
			a.logger.Error("Failed to "+step, append(fields, logger.Field{Key: "error", Value: err})...)
		} else {
			a.logger.Debug("Completed "+step, fields...)
		}
		return result, err
	}
}
