package creditflow

import (
	"context"
	"errors"
	"testing"

	"creditflow/internal/common/logger"
	"creditflow/internal/common/metrics"
	"creditflow/internal/domain/flow"
	"creditflow/internal/infrastructure/eventbus"
	"creditflow/internal/infrastructure/gateway"
	"creditflow/internal/infrastructure/review"
	"creditflow/internal/infrastructure/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHarness wires the facade over the in-memory backends with the
// simulated latency turned off.
type testHarness struct {
	flow      *CreditFlow
	store     *store.MemoryStore
	payments  *gateway.SimulatedPaymentGateway
	crypto    *gateway.SimulatedCryptoGateway
	publisher *eventbus.MemoryPublisher
	collector *metrics.InMemoryCollector
	reviews   *review.Queue
}

func newTestHarness() *testHarness {
	memStore := store.NewMemoryStore()
	memStore.SetLatency(0, 0)
	payments := gateway.NewSimulatedPaymentGateway()
	payments.SetLatency(0, 0)
	crypto := gateway.NewSimulatedCryptoGateway()
	crypto.SetLatency(0, 0)

	publisher := eventbus.NewMemoryPublisher()
	collector := metrics.NewInMemoryCollector()
	reviews := review.NewQueue()

	actions := NewFlowActions(memStore, payments, crypto)
	return &testHarness{
		flow:      NewCreditFlow(actions, logger.NewNop(), publisher, collector, reviews),
		store:     memStore,
		payments:  payments,
		crypto:    crypto,
		publisher: publisher,
		collector: collector,
		reviews:   reviews,
	}
}

func TestCreditFlow_HappyPath(t *testing.T) {
	h := newTestHarness()

	final, err := h.flow.Run(context.Background(), "some-user-id", 100)

	require.NoError(t, err)
	assert.Equal(t, flow.StateSucceeded, final.CurrentState)
	assert.True(t, final.IsSuccess)
	assert.False(t, final.IsError)
	assert.NoError(t, final.Err)
	assert.Equal(t, happyPathHistory, final.StateHistory)

	require.NotNil(t, final.Payment)
	assert.Equal(t, "some-customer-id", final.Payment.CustomerID)
	require.NotNil(t, final.CryptoSale)
	// The buy and sell rates are reciprocal, so the round trip returns the
	// charged amount.
	assert.InDelta(t, 100, final.CryptoSale.FundsAmount, 1e-9)
	require.NotNil(t, final.Withdraw)
	assert.Equal(t, "some-pix-key", final.Withdraw.PixKey)
	assert.Nil(t, final.Refund)

	details := h.store.Details(final.TransactionID)
	require.NotNil(t, details)
	assert.Contains(t, details, "payment")
	assert.Contains(t, details, "cryptoPurchase")
	assert.Contains(t, details, "cryptoSale")
	assert.Contains(t, details, "withdraw")
	assert.Equal(t, "success", details["overallStatus"])

	assert.Zero(t, h.reviews.Len())
	assert.Len(t, h.publisher.Events(), len(happyPathHistory))
}

func TestCreditFlow_PaymentFailureRollsBack(t *testing.T) {
	h := newTestHarness()
	h.payments.FailCharges(errors.New("card declined"))

	final, err := h.flow.Run(context.Background(), "some-user-id", 100)

	assert.ErrorIs(t, err, ErrFlowFailed)
	assert.Equal(t, flow.StateFailedWithSuccessfulRollback, final.CurrentState)
	assert.True(t, final.IsError)
	assert.EqualError(t, final.Err, "card declined")

	details := h.store.Details(final.TransactionID)
	require.NotNil(t, details)
	assert.Equal(t, "success", details["rollbackPayment"])
	assert.NotContains(t, details, "rollbackCrypto")
	assert.NotContains(t, details, "rollbackWithdraw")
	assert.Equal(t, "failure", details["overallStatus"])
	assert.Nil(t, final.Refund)
}

func TestCreditFlow_CryptoFailureRefundsPayment(t *testing.T) {
	h := newTestHarness()
	h.crypto.FailBuys(errors.New("exchange unavailable"))

	final, err := h.flow.Run(context.Background(), "some-user-id", 100)

	assert.ErrorIs(t, err, ErrFlowFailed)
	assert.Equal(t, flow.StateFailedWithSuccessfulRollback, final.CurrentState)

	require.NotNil(t, final.Payment)
	require.NotNil(t, final.Refund)
	assert.Equal(t, final.Payment.PaymentID, final.Refund.PaymentID)

	details := h.store.Details(final.TransactionID)
	require.NotNil(t, details)
	assert.Equal(t, "success", details["rollbackCrypto"])
	assert.Equal(t, "success", details["rollbackPayment"])
	assert.NotContains(t, details, "rollbackWithdraw")
}

func TestCreditFlow_WithdrawFailureUnwindsEverything(t *testing.T) {
	h := newTestHarness()
	h.payments.FailPayouts(errors.New("bank offline"))

	final, err := h.flow.Run(context.Background(), "some-user-id", 100)

	assert.ErrorIs(t, err, ErrFlowFailed)
	assert.Equal(t, flow.StateFailedWithSuccessfulRollback, final.CurrentState)
	// Results gathered before the failure survive the rollback.
	assert.NotNil(t, final.Payment)
	assert.NotNil(t, final.CryptoPurchase)
	assert.NotNil(t, final.CryptoSale)
	assert.Nil(t, final.Withdraw)
	assert.NotNil(t, final.Refund)

	details := h.store.Details(final.TransactionID)
	require.NotNil(t, details)
	assert.Equal(t, "success", details["rollbackWithdraw"])
	assert.Equal(t, "success", details["rollbackCrypto"])
	assert.Equal(t, "success", details["rollbackPayment"])
	assert.Equal(t, "failure", details["overallStatus"])
}

func TestCreditFlow_RollbackFailureParksForReview(t *testing.T) {
	h := newTestHarness()
	h.payments.FailPayouts(errors.New("bank offline"))
	h.payments.FailRefunds(errors.New("refund rejected"))

	final, err := h.flow.Run(context.Background(), "some-user-id", 100)

	assert.ErrorIs(t, err, ErrFlowPendingReview)
	assert.Equal(t, flow.StateFailedPendingReview, final.CurrentState)
	assert.True(t, final.IsError)
	assert.EqualError(t, final.Err, "refund rejected")

	require.Equal(t, 1, h.reviews.Len())
	entry := h.reviews.List()[0]
	assert.Equal(t, final.FlowID, entry.FlowID)
	assert.Equal(t, "refund rejected", entry.Reason)
	assert.Equal(t, flow.StateFailedPendingReview, entry.Context.CurrentState)
}

func TestCreditFlow_StartFailureSkipsCompensations(t *testing.T) {
	h := newTestHarness()
	h.store.FailWith(errors.New("db down"))

	final, err := h.flow.Run(context.Background(), "some-user-id", 100)

	assert.ErrorIs(t, err, ErrFlowFailed)
	assert.Equal(t, flow.StateFailedWithSuccessfulRollback, final.CurrentState)
	assert.Empty(t, final.TransactionID)
	assert.Equal(t,
		[]flow.State{flow.StateStarting, flow.StateFailedWithSuccessfulRollback},
		final.StateHistory)
}

func TestCreditFlow_CountsOutcomes(t *testing.T) {
	h := newTestHarness()

	_, err := h.flow.Run(context.Background(), "some-user-id", 100)
	require.NoError(t, err)

	h.payments.FailCharges(errors.New("card declined"))
	_, err = h.flow.Run(context.Background(), "some-user-id", 100)
	assert.ErrorIs(t, err, ErrFlowFailed)

	assert.Equal(t, int64(1), h.collector.GetCounter(metrics.CounterFlowsSucceeded))
	assert.Equal(t, int64(1), h.collector.GetCounter(metrics.CounterFlowsRolledBack))
}
