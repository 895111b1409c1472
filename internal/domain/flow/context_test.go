package flow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContext_ApplyIsAdditive(t *testing.T) {
	c := Context{UserID: "user-1", Amount: 100}

	c.Apply(&StepResult{
		UserInfo:      &UserProfile{UserID: "user-1", Name: "John Doe"},
		TransactionID: "tx-1",
	})
	c.Apply(&StepResult{
		Payment: &PaymentResult{PaymentID: "pay-1", Status: "success"},
	})
	c.Apply(&StepResult{
		CryptoPurchase: &CryptoTrade{Asset: "BTC", AssetAmount: 0.01},
		CryptoSale:     &CryptoTrade{Asset: "BTC", FundsAmount: 100},
	})
	c.Apply(&StepResult{
		Withdraw: &PayoutResult{PixID: "pix-1"},
	})

	// Every earlier result is still there.
	assert.Equal(t, "John Doe", c.UserInfo.Name)
	assert.Equal(t, "tx-1", c.TransactionID)
	assert.Equal(t, "pay-1", c.Payment.PaymentID)
	assert.Equal(t, 0.01, c.CryptoPurchase.AssetAmount)
	assert.Equal(t, float64(100), c.CryptoSale.FundsAmount)
	assert.Equal(t, "pix-1", c.Withdraw.PixID)
}

func TestContext_ApplyIgnoresNilAndZeroFields(t *testing.T) {
	c := Context{TransactionID: "tx-1", Payment: &PaymentResult{PaymentID: "pay-1"}}

	c.Apply(nil)
	c.Apply(&StepResult{})

	assert.Equal(t, "tx-1", c.TransactionID)
	assert.Equal(t, "pay-1", c.Payment.PaymentID)
}

func TestContext_SnapshotDerivesFlags(t *testing.T) {
	stepErr := errors.New("card declined")

	tests := []struct {
		name          string
		state         State
		err           error
		wantIsError   bool
		wantIsSuccess bool
		wantErr       error
	}{
		{
			name:  "invoking state carries no flags",
			state: StateProcessingPayment,
		},
		{
			name:  "compensation state clears the error from the snapshot",
			state: StatePaymentFailed,
			err:   stepErr,
		},
		{
			name:        "failure terminal keeps the recorded error",
			state:       StateFailedWithSuccessfulRollback,
			err:         stepErr,
			wantIsError: true,
			wantErr:     stepErr,
		},
		{
			name:        "failure terminal falls back to the unknown error sentinel",
			state:       StateFailedPendingReview,
			wantIsError: true,
			wantErr:     ErrUnknown,
		},
		{
			name:          "succeeded state clears the error",
			state:         StateSucceeded,
			err:           stepErr,
			wantIsSuccess: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Context{CurrentState: tt.state, Err: tt.err}
			snap := c.Snapshot()

			assert.Equal(t, tt.wantIsError, snap.IsError)
			assert.Equal(t, tt.wantIsSuccess, snap.IsSuccess)
			assert.Equal(t, tt.wantErr, snap.Err)
		})
	}
}

func TestContext_SnapshotCopiesHistory(t *testing.T) {
	c := Context{
		CurrentState: StateProcessingPayment,
		StateHistory: []State{StateStarting},
	}
	snap := c.Snapshot()
	snap.StateHistory = append(snap.StateHistory, StateProcessingPayment)

	assert.Equal(t, []State{StateStarting}, c.StateHistory)
	assert.Equal(t, []State{StateStarting, StateProcessingPayment}, snap.StateHistory)
}
