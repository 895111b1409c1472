package creditflow

import (
	"context"
	"errors"

	"creditflow/internal/domain/flow"
	"creditflow/internal/infrastructure/gateway"
	"creditflow/internal/infrastructure/store"
)

// cryptoAsset is the fixed-denomination asset the exchange round trip uses.
const cryptoAsset = "BTC"

// Transaction fields persisted as the flow progresses.
const (
	fieldPayment          = "payment"
	fieldCryptoPurchase   = "cryptoPurchase"
	fieldCryptoSale       = "cryptoSale"
	fieldWithdraw         = "withdraw"
	fieldRollbackPayment  = "rollbackPayment"
	fieldRollbackCrypto   = "rollbackCrypto"
	fieldRollbackWithdraw = "rollbackWithdraw"
	fieldOverallStatus    = "overallStatus"

	markerSuccess = "success"
	markerFailure = "failure"
)

// ErrNothingToRefund is returned when a crypto rollback runs without a
// recorded payment to refund. It routes the flow to human review instead of
// pretending the rollback succeeded.
var ErrNothingToRefund = errors.New("no payment recorded to refund")

// Actions is the set of step handlers a credit flow machine is bound to.
type Actions interface {
	Start(ctx context.Context, fc flow.Context) (*flow.StepResult, error)
	ProcessPayment(ctx context.Context, fc flow.Context) (*flow.StepResult, error)
	ExchangeCrypto(ctx context.Context, fc flow.Context) (*flow.StepResult, error)
	ProcessWithdraw(ctx context.Context, fc flow.Context) (*flow.StepResult, error)
	RollbackFromPaymentFailure(ctx context.Context, fc flow.Context) (*flow.StepResult, error)
	RollbackFromCryptoFailure(ctx context.Context, fc flow.Context) (*flow.StepResult, error)
	RollbackFromWithdrawFailure(ctx context.Context, fc flow.Context) (*flow.StepResult, error)
	OnSuccess(ctx context.Context, fc flow.Context) (*flow.StepResult, error)
	OnFailure(ctx context.Context, fc flow.Context) (*flow.StepResult, error)
}

// FlowActions implements Actions over the persistence and provider
// collaborators. It holds no per-flow state; everything it needs arrives in
// the context snapshot.
type FlowActions struct {
	store    store.TransactionStore
	payments gateway.PaymentGateway
	crypto   gateway.CryptoGateway
}

func NewFlowActions(s store.TransactionStore, payments gateway.PaymentGateway, crypto gateway.CryptoGateway) *FlowActions {
	return &FlowActions{store: s, payments: payments, crypto: crypto}
}

// Start loads the user profile and registers the credit transaction, so the
// transaction ID exists before any gateway call is made.
func (a *FlowActions) Start(ctx context.Context, fc flow.Context) (*flow.StepResult, error) {
	userInfo, err := a.store.GetUserInfo(ctx, fc.UserID)
	if err != nil {
		return nil, err
	}
	transaction, err := a.store.RegisterTransaction(ctx, fc.UserID, fc.Amount)
	if err != nil {
		return nil, err
	}
	return &flow.StepResult{UserInfo: userInfo, TransactionID: transaction.ID}, nil
}

// ProcessPayment charges the user's payment identity and persists the result.
func (a *FlowActions) ProcessPayment(ctx context.Context, fc flow.Context) (*flow.StepResult, error) {
	payment, err := a.payments.Charge(ctx, fc.UserInfo.GatewayCustomerID, fc.Amount)
	if err != nil {
		return nil, err
	}
	if _, err := a.store.UpdateTransaction(ctx, fc.TransactionID, map[string]interface{}{
		fieldPayment: payment,
	}); err != nil {
		return nil, err
	}
	return &flow.StepResult{Payment: payment}, nil
}

// ExchangeCrypto purchases the asset with the charged funds and immediately
// sells it back. The sale depends on the purchase output, so the legs run
// sequentially, each persisted on its own.
func (a *FlowActions) ExchangeCrypto(ctx context.Context, fc flow.Context) (*flow.StepResult, error) {
	purchase, err := a.purchaseCrypto(ctx, fc)
	if err != nil {
		return nil, err
	}
	sale, err := a.sellCrypto(ctx, fc, purchase)
	if err != nil {
		return nil, err
	}
	return &flow.StepResult{CryptoPurchase: purchase, CryptoSale: sale}, nil
}

func (a *FlowActions) purchaseCrypto(ctx context.Context, fc flow.Context) (*flow.CryptoTrade, error) {
	purchase, err := a.crypto.Buy(ctx, cryptoAsset, fc.Amount)
	if err != nil {
		return nil, err
	}
	if _, err := a.store.UpdateTransaction(ctx, fc.TransactionID, map[string]interface{}{
		fieldCryptoPurchase: purchase,
	}); err != nil {
		return nil, err
	}
	return purchase, nil
}

func (a *FlowActions) sellCrypto(ctx context.Context, fc flow.Context, purchase *flow.CryptoTrade) (*flow.CryptoTrade, error) {
	sale, err := a.crypto.Sell(ctx, purchase.Asset, purchase.AssetAmount)
	if err != nil {
		return nil, err
	}
	if _, err := a.store.UpdateTransaction(ctx, fc.TransactionID, map[string]interface{}{
		fieldCryptoSale: sale,
	}); err != nil {
		return nil, err
	}
	return sale, nil
}

// ProcessWithdraw transfers the amount to the user's payout key and persists
// the result.
func (a *FlowActions) ProcessWithdraw(ctx context.Context, fc flow.Context) (*flow.StepResult, error) {
	withdraw, err := a.payments.Payout(ctx, fc.Amount, fc.UserInfo.PixKey)
	if err != nil {
		return nil, err
	}
	if _, err := a.store.UpdateTransaction(ctx, fc.TransactionID, map[string]interface{}{
		fieldWithdraw: withdraw,
	}); err != nil {
		return nil, err
	}
	return &flow.StepResult{Withdraw: withdraw}, nil
}

// RollbackFromPaymentFailure records the rollback marker. The charge never
// succeeded, so there is nothing to reverse at the provider.
func (a *FlowActions) RollbackFromPaymentFailure(ctx context.Context, fc flow.Context) (*flow.StepResult, error) {
	if _, err := a.store.UpdateTransaction(ctx, fc.TransactionID, map[string]interface{}{
		fieldRollbackPayment: markerSuccess,
	}); err != nil {
		return nil, err
	}
	return nil, nil
}

// RollbackFromCryptoFailure refunds the charge, records its own marker, and
// then unwinds the payment step as well.
func (a *FlowActions) RollbackFromCryptoFailure(ctx context.Context, fc flow.Context) (*flow.StepResult, error) {
	if fc.Payment == nil {
		return nil, ErrNothingToRefund
	}
	refund, err := a.payments.Refund(ctx, fc.Payment.PaymentID)
	if err != nil {
		return nil, err
	}
	if _, err := a.store.UpdateTransaction(ctx, fc.TransactionID, map[string]interface{}{
		fieldRollbackCrypto: markerSuccess,
	}); err != nil {
		return nil, err
	}
	if _, err := a.RollbackFromPaymentFailure(ctx, fc); err != nil {
		return nil, err
	}
	return &flow.StepResult{Refund: refund}, nil
}

// RollbackFromWithdrawFailure records its own marker and then unwinds the
// crypto step, which in turn unwinds the payment step. A withdraw failure
// implies everything before it has to go.
func (a *FlowActions) RollbackFromWithdrawFailure(ctx context.Context, fc flow.Context) (*flow.StepResult, error) {
	if _, err := a.store.UpdateTransaction(ctx, fc.TransactionID, map[string]interface{}{
		fieldRollbackWithdraw: markerSuccess,
	}); err != nil {
		return nil, err
	}
	return a.RollbackFromCryptoFailure(ctx, fc)
}

// OnSuccess records the final overall status.
func (a *FlowActions) OnSuccess(ctx context.Context, fc flow.Context) (*flow.StepResult, error) {
	if _, err := a.store.UpdateTransaction(ctx, fc.TransactionID, map[string]interface{}{
		fieldOverallStatus: markerSuccess,
	}); err != nil {
		return nil, err
	}
	return nil, nil
}

// OnFailure records the final overall status. A flow that failed before the
// transaction was registered has nothing to record.
func (a *FlowActions) OnFailure(ctx context.Context, fc flow.Context) (*flow.StepResult, error) {
	if fc.TransactionID == "" {
		return nil, nil
	}
	if _, err := a.store.UpdateTransaction(ctx, fc.TransactionID, map[string]interface{}{
		fieldOverallStatus: markerFailure,
	}); err != nil {
		return nil, err
	}
	return nil, nil
}
