package flow

// UserProfile is the user record the persistence layer returns for a flow's
// user. GatewayCustomerID identifies the user at the payment provider and
// PixKey is the payout destination.
type UserProfile struct {
	UserID            string `json:"userId"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	GatewayCustomerID string `json:"gatewayCustomerId"`
	PixKey            string `json:"pixKey"`
}

// TransactionRecord is the persisted credit transaction keyed by ID.
type TransactionRecord struct {
	ID     string  `json:"id"`
	UserID string  `json:"userId"`
	Amount float64 `json:"amount"`
}

// PaymentResult is the payment provider's response to a charge.
type PaymentResult struct {
	IdempotencyKey string  `json:"idempotencyKey"`
	CustomerID     string  `json:"customerId"`
	Amount         float64 `json:"amount"`
	PaymentID      string  `json:"paymentId"`
	Status         string  `json:"status"`
}

// RefundResult is the payment provider's response to a refund.
type RefundResult struct {
	PaymentID string `json:"paymentId"`
	RefundID  string `json:"refundId"`
	Status    string `json:"status"`
}

// CryptoTrade is one leg of the crypto exchange, either a purchase of
// AssetAmount with FundsAmount or a sale back the other way.
type CryptoTrade struct {
	Asset       string  `json:"asset"`
	FundsAmount float64 `json:"fundsAmount"`
	AssetAmount float64 `json:"assetAmount"`
	Status      string  `json:"status"`
}

// PayoutResult is the payment provider's response to a bank transfer.
type PayoutResult struct {
	IdempotencyKey string  `json:"idempotencyKey"`
	PixKey         string  `json:"pixKey"`
	Amount         float64 `json:"amount"`
	PixID          string  `json:"pixId"`
	Status         string  `json:"status"`
}
