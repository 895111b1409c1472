package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"creditflow/internal/domain/flow"

	"github.com/puzpuzpuz/xsync/v3"
)

// IdempotencyKey fingerprints a call's semantic parameters together with the
// current UTC hour, so identical retried calls within the same hour collapse
// to one side effect.
func IdempotencyKey(params map[string]string) string {
	return IdempotencyKeyAt(time.Now(), params)
}

// IdempotencyKeyAt is IdempotencyKey with an explicit clock, for tests.
func IdempotencyKeyAt(t time.Time, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		parts = append(parts, k+":"+params[k])
	}

	t = t.UTC()
	parts = append(parts, fmt.Sprintf("%d-%d-%d-%d", t.Year(), int(t.Month()), t.Day(), t.Hour()))

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// RecordStore holds the idempotency records the decorator consults before
// calling the provider. One store may be shared by every concurrent flow in
// the process; reads and writes are serialized per key, so concurrent
// identical requests produce exactly one provider call. Construct a fresh
// store per test or per process and discard it explicitly; there is no
// package-level instance.
type RecordStore struct {
	payments *callRecords[*flow.PaymentResult]
	payouts  *callRecords[*flow.PayoutResult]
}

func NewRecordStore() *RecordStore {
	return &RecordStore{
		payments: newCallRecords[*flow.PaymentResult](),
		payouts:  newCallRecords[*flow.PayoutResult](),
	}
}

// callRecords memoizes successful call results per idempotency key. A failed
// call is forgotten so a later retry reaches the provider again.
type callRecords[T any] struct {
	entries *xsync.MapOf[string, *callRecord[T]]
}

type callRecord[T any] struct {
	once  sync.Once
	value T
	err   error
}

func newCallRecords[T any]() *callRecords[T] {
	return &callRecords[T]{entries: xsync.NewMapOf[string, *callRecord[T]]()}
}

func (r *callRecords[T]) do(key string, call func() (T, error)) (T, error) {
	rec, _ := r.entries.LoadOrStore(key, &callRecord[T]{})
	rec.once.Do(func() {
		rec.value, rec.err = call()
	})
	if rec.err != nil {
		r.forget(key, rec)
	}
	return rec.value, rec.err
}

func (r *callRecords[T]) forget(key string, rec *callRecord[T]) {
	r.entries.Compute(key, func(current *callRecord[T], loaded bool) (*callRecord[T], bool) {
		if loaded && current == rec {
			return nil, true
		}
		return current, false
	})
}

// PaymentGatewayWithIdempotency decorates a PaymentGateway so that Charge
// and Payout are memoized by idempotency key. Refund passes through: the
// provider already performs at most one refund per payment ID.
type PaymentGatewayWithIdempotency struct {
	next  PaymentGateway
	store *RecordStore
	now   func() time.Time
}

func NewPaymentGatewayWithIdempotency(next PaymentGateway, store *RecordStore) *PaymentGatewayWithIdempotency {
	return &PaymentGatewayWithIdempotency{next: next, store: store, now: time.Now}
}

// SetClock overrides the clock used for key bucketing, for tests.
func (g *PaymentGatewayWithIdempotency) SetClock(now func() time.Time) {
	g.now = now
}

func (g *PaymentGatewayWithIdempotency) Charge(ctx context.Context, customerID string, amount float64) (*flow.PaymentResult, error) {
	key := IdempotencyKeyAt(g.now(), map[string]string{
		"customerId": customerID,
		"amount":     formatAmount(amount),
	})
	return g.store.payments.do(key, func() (*flow.PaymentResult, error) {
		return g.next.Charge(ctx, customerID, amount)
	})
}

func (g *PaymentGatewayWithIdempotency) Refund(ctx context.Context, paymentID string) (*flow.RefundResult, error) {
	return g.next.Refund(ctx, paymentID)
}

func (g *PaymentGatewayWithIdempotency) Payout(ctx context.Context, amount float64, pixKey string) (*flow.PayoutResult, error) {
	key := IdempotencyKeyAt(g.now(), map[string]string{
		"amount": formatAmount(amount),
		"pixKey": pixKey,
	})
	return g.store.payouts.do(key, func() (*flow.PayoutResult, error) {
		return g.next.Payout(ctx, amount, pixKey)
	})
}
