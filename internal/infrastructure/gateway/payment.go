package gateway

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"creditflow/internal/domain/flow"

	"github.com/google/uuid"
)

const (
	defaultMinLatency = 50 * time.Millisecond
	defaultMaxLatency = 100 * time.Millisecond

	statusSuccess = "success"
)

// SimulatedPaymentGateway stands in for the real payment provider: fixed
// successful responses after a randomized delay, with per-operation failure
// injection for exercising the rollback paths.
type SimulatedPaymentGateway struct {
	mu         sync.Mutex
	minLatency time.Duration
	maxLatency time.Duration
	chargeErr  error
	refundErr  error
	payoutErr  error
}

func NewSimulatedPaymentGateway() *SimulatedPaymentGateway {
	return &SimulatedPaymentGateway{
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
	}
}

// SetLatency overrides the simulated provider delay bounds.
func (g *SimulatedPaymentGateway) SetLatency(min, max time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.minLatency, g.maxLatency = min, max
}

// FailCharges makes Charge return err until reset with nil.
func (g *SimulatedPaymentGateway) FailCharges(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.chargeErr = err
}

// FailRefunds makes Refund return err until reset with nil.
func (g *SimulatedPaymentGateway) FailRefunds(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refundErr = err
}

// FailPayouts makes Payout return err until reset with nil.
func (g *SimulatedPaymentGateway) FailPayouts(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payoutErr = err
}

func (g *SimulatedPaymentGateway) Charge(ctx context.Context, customerID string, amount float64) (*flow.PaymentResult, error) {
	if err := g.roundTrip(ctx, func() error { return g.chargeErr }); err != nil {
		return nil, err
	}
	return &flow.PaymentResult{
		IdempotencyKey: IdempotencyKey(map[string]string{
			"customerId": customerID,
			"amount":     formatAmount(amount),
		}),
		CustomerID: customerID,
		Amount:     amount,
		PaymentID:  uuid.New().String(),
		Status:     statusSuccess,
	}, nil
}

func (g *SimulatedPaymentGateway) Refund(ctx context.Context, paymentID string) (*flow.RefundResult, error) {
	if err := g.roundTrip(ctx, func() error { return g.refundErr }); err != nil {
		return nil, err
	}
	return &flow.RefundResult{
		PaymentID: paymentID,
		RefundID:  uuid.New().String(),
		Status:    statusSuccess,
	}, nil
}

func (g *SimulatedPaymentGateway) Payout(ctx context.Context, amount float64, pixKey string) (*flow.PayoutResult, error) {
	if err := g.roundTrip(ctx, func() error { return g.payoutErr }); err != nil {
		return nil, err
	}
	return &flow.PayoutResult{
		IdempotencyKey: IdempotencyKey(map[string]string{
			"amount": formatAmount(amount),
			"pixKey": pixKey,
		}),
		PixKey: pixKey,
		Amount: amount,
		PixID:  uuid.New().String(),
		Status: statusSuccess,
	}, nil
}

func (g *SimulatedPaymentGateway) roundTrip(ctx context.Context, injected func() error) error {
	g.mu.Lock()
	err := injected()
	min, max := g.minLatency, g.maxLatency
	g.mu.Unlock()

	if err := simulateLatency(ctx, min, max); err != nil {
		return err
	}
	return err
}

func simulateLatency(ctx context.Context, min, max time.Duration) error {
	delay := min
	if max > min {
		delay += time.Duration(rand.Int63n(int64(max - min)))
	}
	if delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
