package flow

import (
	"errors"
	"time"
)

// ErrUnknown is the sentinel a handler snapshot carries when the flow is in
// a failure state but no concrete error payload was recorded.
var ErrUnknown = errors.New("unknown error")

// Context is the single record threaded through one credit flow run. One
// instance exists per orchestration; it lives until a terminal state is
// reached and is never shared across concurrent flows.
//
// The step-result fields accumulate as steps succeed. Merging is additive: a
// later step never erases an earlier step's result.
type Context struct {
	FlowID string  `json:"flowId"`
	UserID string  `json:"userId"`
	Amount float64 `json:"amount"`

	CurrentState State     `json:"currentState"`
	StateHistory []State   `json:"stateHistory"`
	LastUpdated  time.Time `json:"lastUpdated"`

	// IsSuccess and IsError are derived from CurrentState when a snapshot
	// is built; at a terminal state exactly one of them is true.
	IsSuccess bool  `json:"isSuccess"`
	IsError   bool  `json:"isError"`
	Err       error `json:"-"`

	UserInfo       *UserProfile   `json:"userInfo,omitempty"`
	TransactionID  string         `json:"transactionId,omitempty"`
	Payment        *PaymentResult `json:"payment,omitempty"`
	CryptoPurchase *CryptoTrade   `json:"cryptoPurchase,omitempty"`
	CryptoSale     *CryptoTrade   `json:"cryptoSale,omitempty"`
	Withdraw       *PayoutResult  `json:"withdraw,omitempty"`
	Refund         *RefundResult  `json:"refund,omitempty"`
}

// StepResult is the partial context a step handler returns on success. Only
// non-zero fields are merged into the running context.
type StepResult struct {
	UserInfo       *UserProfile
	TransactionID  string
	Payment        *PaymentResult
	CryptoPurchase *CryptoTrade
	CryptoSale     *CryptoTrade
	Withdraw       *PayoutResult
	Refund         *RefundResult
}

// Apply merges a step result into the context.
func (c *Context) Apply(r *StepResult) {
	if r == nil {
		return
	}
	if r.UserInfo != nil {
		c.UserInfo = r.UserInfo
	}
	if r.TransactionID != "" {
		c.TransactionID = r.TransactionID
	}
	if r.Payment != nil {
		c.Payment = r.Payment
	}
	if r.CryptoPurchase != nil {
		c.CryptoPurchase = r.CryptoPurchase
	}
	if r.CryptoSale != nil {
		c.CryptoSale = r.CryptoSale
	}
	if r.Withdraw != nil {
		c.Withdraw = r.Withdraw
	}
	if r.Refund != nil {
		c.Refund = r.Refund
	}
}

// Snapshot returns the copy of the context handed to a step handler. The
// derived flags are recomputed from the state being entered: IsError when the
// state name contains "failed", IsSuccess when it contains "succeeded". While
// IsError is true the snapshot always carries a non-nil error, falling back
// to ErrUnknown; otherwise the error is cleared.
func (c *Context) Snapshot() Context {
	snap := *c
	snap.StateHistory = append([]State(nil), c.StateHistory...)
	snap.IsError = c.CurrentState.IsFailure()
	snap.IsSuccess = c.CurrentState.IsSuccess()
	if snap.IsError {
		if snap.Err == nil {
			snap.Err = ErrUnknown
		}
	} else {
		snap.Err = nil
	}
	return snap
}
