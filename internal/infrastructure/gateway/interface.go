package gateway

import (
	"context"
	"errors"

	"creditflow/internal/domain/flow"
)

// PaymentGateway is the payment provider collaborator.
type PaymentGateway interface {
	// Charge bills the customer's payment identity for amount.
	Charge(ctx context.Context, customerID string, amount float64) (*flow.PaymentResult, error)

	// Refund reverses a previously succeeded charge. The provider performs
	// at most one refund per payment ID.
	Refund(ctx context.Context, paymentID string) (*flow.RefundResult, error)

	// Payout transfers amount to the given pix key.
	Payout(ctx context.Context, amount float64, pixKey string) (*flow.PayoutResult, error)
}

// CryptoGateway is the crypto exchange collaborator.
type CryptoGateway interface {
	// Buy purchases as much of asset as fundsAmount affords.
	Buy(ctx context.Context, asset string, fundsAmount float64) (*flow.CryptoTrade, error)

	// Sell converts assetAmount of asset back to funds.
	Sell(ctx context.Context, asset string, assetAmount float64) (*flow.CryptoTrade, error)
}

// Error codes reported by providers.
const (
	CodeTimeout = "timeout"
)

// Error is a provider-level failure carrying the provider's error code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// IsTimeout reports whether err is a timeout-kind provider failure, the only
// kind the retry decorator retries.
func IsTimeout(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Code == CodeTimeout
}
