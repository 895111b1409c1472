package gateway

import (
	"context"
	"time"

	"creditflow/internal/domain/flow"
)

const (
	// defaultRetryCount is the number of extra attempts after the first.
	defaultRetryCount = 2
	defaultBackoff    = 100 * time.Millisecond
)

// PaymentGatewayWithRetries decorates a PaymentGateway with retry logic.
// Only timeout-kind provider failures are retried; everything else surfaces
// immediately as a step failure. Backoff doubles per attempt.
type PaymentGatewayWithRetries struct {
	next    PaymentGateway
	retries int
	backoff time.Duration
}

func NewPaymentGatewayWithRetries(next PaymentGateway) *PaymentGatewayWithRetries {
	return &PaymentGatewayWithRetries{
		next:    next,
		retries: defaultRetryCount,
		backoff: defaultBackoff,
	}
}

// SetBackoff overrides the initial backoff delay, for tests.
func (g *PaymentGatewayWithRetries) SetBackoff(d time.Duration) {
	g.backoff = d
}

func (g *PaymentGatewayWithRetries) Charge(ctx context.Context, customerID string, amount float64) (*flow.PaymentResult, error) {
	return retryCall(ctx, g, func() (*flow.PaymentResult, error) {
		return g.next.Charge(ctx, customerID, amount)
	})
}

func (g *PaymentGatewayWithRetries) Refund(ctx context.Context, paymentID string) (*flow.RefundResult, error) {
	return retryCall(ctx, g, func() (*flow.RefundResult, error) {
		return g.next.Refund(ctx, paymentID)
	})
}

func (g *PaymentGatewayWithRetries) Payout(ctx context.Context, amount float64, pixKey string) (*flow.PayoutResult, error) {
	return retryCall(ctx, g, func() (*flow.PayoutResult, error) {
		return g.next.Payout(ctx, amount, pixKey)
	})
}

func retryCall[T any](ctx context.Context, g *PaymentGatewayWithRetries, call func() (T, error)) (T, error) {
	var zero T
	backoff := g.backoff
	for attempt := 0; ; attempt++ {
		result, err := call()
		if err == nil {
			return result, nil
		}
		if !IsTimeout(err) || attempt >= g.retries {
			return zero, err
		}
		if backoff > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
			backoff *= 2
		}
	}
}
