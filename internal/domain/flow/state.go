package flow

import "strings"

// State identifies a node in the credit flow state machine.
type State string

const (
	// StateIdle is the initial state, before the flow has been started.
	StateIdle State = "idle"
	// StateStarting registers the transaction and loads the user profile.
	StateStarting State = "starting"
	// StateProcessingPayment charges the user through the payment gateway.
	StateProcessingPayment State = "processingPayment"
	// StatePaymentProcessed is a transient checkpoint after a successful charge.
	StatePaymentProcessed State = "paymentProcessed"
	// StateExchangingCrypto runs the crypto purchase/sale round trip.
	StateExchangingCrypto State = "exchangingCrypto"
	// StateCryptoExchanged is a transient checkpoint after the exchange.
	StateCryptoExchanged State = "cryptoExchanged"
	// StateProcessingWithdraw pays the proceeds out to the user.
	StateProcessingWithdraw State = "processingWithdraw"
	// StateWithdrawProcessed is a transient checkpoint after the payout.
	StateWithdrawProcessed State = "withdrawProcessed"
	// StatePaymentFailed compensates for a failed charge.
	StatePaymentFailed State = "paymentFailed"
	// StateCryptoFailed compensates for a failed exchange.
	StateCryptoFailed State = "cryptoFailed"
	// StateWithdrawFailed compensates for a failed payout.
	StateWithdrawFailed State = "withdrawFailed"
	// StateSucceeded indicates the flow completed successfully.
	StateSucceeded State = "succeeded"
	// StateFailedWithSuccessfulRollback indicates a step failed and every
	// compensation ran to completion.
	StateFailedWithSuccessfulRollback State = "failedWithSuccessfulRollback"
	// StateFailedPendingReview indicates a compensation itself failed and a
	// human has to review the flow. It is never retried automatically.
	StateFailedPendingReview State = "failedPendingReview"
)

// Kind classifies how the machine driver treats a state.
type Kind int

const (
	// KindInitial marks the idle state. It invokes nothing and is never
	// recorded in the state history.
	KindInitial Kind = iota
	// KindInvoking states run their bound step handler and branch on the
	// handler outcome.
	KindInvoking
	// KindTransient states invoke nothing and hop to their Always target.
	// They exist to force a discrete history entry between steps.
	KindTransient
	// KindTerminal states run their bound handler and end the flow.
	KindTerminal
)

// Transition describes where the machine goes once a state completes.
type Transition struct {
	Kind    Kind
	OnDone  State // target when the bound handler succeeds
	OnError State // target when the bound handler fails (empty: stay terminal)
	Always  State // unconditional target, transient states only
}

// Table is the full transition table of the credit flow. The machine driver
// interprets it; states never transition themselves.
var Table = map[State]Transition{
	StateIdle:               {Kind: KindInitial, OnDone: StateStarting},
	StateStarting:           {Kind: KindInvoking, OnDone: StateProcessingPayment, OnError: StateFailedWithSuccessfulRollback},
	StateProcessingPayment:  {Kind: KindInvoking, OnDone: StatePaymentProcessed, OnError: StatePaymentFailed},
	StatePaymentProcessed:   {Kind: KindTransient, Always: StateExchangingCrypto},
	StateExchangingCrypto:   {Kind: KindInvoking, OnDone: StateCryptoExchanged, OnError: StateCryptoFailed},
	StateCryptoExchanged:    {Kind: KindTransient, Always: StateProcessingWithdraw},
	StateProcessingWithdraw: {Kind: KindInvoking, OnDone: StateWithdrawProcessed, OnError: StateWithdrawFailed},
	StateWithdrawProcessed:  {Kind: KindTransient, Always: StateSucceeded},
	StatePaymentFailed:      {Kind: KindInvoking, OnDone: StateFailedWithSuccessfulRollback, OnError: StateFailedPendingReview},
	StateCryptoFailed:       {Kind: KindInvoking, OnDone: StateFailedWithSuccessfulRollback, OnError: StateFailedPendingReview},
	StateWithdrawFailed:     {Kind: KindInvoking, OnDone: StateFailedWithSuccessfulRollback, OnError: StateFailedPendingReview},

	StateSucceeded:                    {Kind: KindTerminal, OnError: StateFailedPendingReview},
	StateFailedWithSuccessfulRollback: {Kind: KindTerminal, OnError: StateFailedPendingReview},
	StateFailedPendingReview:          {Kind: KindTerminal},
}

// IsTerminal returns true if the flow does not transition past s.
func (s State) IsTerminal() bool {
	return Table[s].Kind == KindTerminal
}

// IsFailure reports whether s is a failure state for flag derivation. The
// match is case-exact: only the terminal states beginning with "failed"
// qualify. The compensation states (paymentFailed and friends) do not, so
// rollback handlers run with a clean error slate.
func (s State) IsFailure() bool {
	return strings.Contains(string(s), "failed")
}

// IsSuccess reports whether s is the success terminal state.
func (s State) IsSuccess() bool {
	return strings.Contains(string(s), "succeeded")
}
