package store

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"creditflow/internal/domain/flow"

	"github.com/google/uuid"
)

const (
	defaultMinLatency = 50 * time.Millisecond
	defaultMaxLatency = 100 * time.Millisecond
)

// MemoryStore is a simulated persistence backend: it answers with fixed
// profile data and keeps transaction records in memory, after a randomized
// delay that mimics a database round trip.
type MemoryStore struct {
	mu           sync.Mutex
	transactions map[string]*record
	minLatency   time.Duration
	maxLatency   time.Duration
	err          error
}

type record struct {
	userID  string
	amount  float64
	details map[string]interface{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transactions: make(map[string]*record),
		minLatency:   defaultMinLatency,
		maxLatency:   defaultMaxLatency,
	}
}

// SetLatency overrides the simulated round-trip delay bounds. Zero disables
// the delay entirely.
func (m *MemoryStore) SetLatency(min, max time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.minLatency, m.maxLatency = min, max
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (m *MemoryStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MemoryStore) GetUserInfo(ctx context.Context, userID string) (*flow.UserProfile, error) {
	if err := m.roundTrip(ctx); err != nil {
		return nil, err
	}
	return &flow.UserProfile{
		UserID:            userID,
		Name:              "John Doe",
		Email:             "john.doe@example.com",
		GatewayCustomerID: "some-customer-id",
		PixKey:            "some-pix-key",
	}, nil
}

func (m *MemoryStore) RegisterTransaction(ctx context.Context, userID string, amount float64) (*flow.TransactionRecord, error) {
	if err := m.roundTrip(ctx); err != nil {
		return nil, err
	}
	id := uuid.New().String()
	m.mu.Lock()
	m.transactions[id] = &record{
		userID:  userID,
		amount:  amount,
		details: make(map[string]interface{}),
	}
	m.mu.Unlock()
	return &flow.TransactionRecord{ID: id, UserID: userID, Amount: amount}, nil
}

func (m *MemoryStore) UpdateTransaction(ctx context.Context, id string, fields map[string]interface{}) (*flow.TransactionRecord, error) {
	if err := m.roundTrip(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.transactions[id]
	if !ok {
		return nil, fmt.Errorf("transaction not found: %s", id)
	}
	for k, v := range fields {
		rec.details[k] = v
	}
	return &flow.TransactionRecord{ID: id, UserID: rec.userID, Amount: rec.amount}, nil
}

// Details returns a copy of the accumulated fields of a transaction, for
// tests and the demo binary.
func (m *MemoryStore) Details(id string) map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.transactions[id]
	if !ok {
		return nil
	}
	out := make(map[string]interface{}, len(rec.details))
	for k, v := range rec.details {
		out[k] = v
	}
	return out
}

func (m *MemoryStore) roundTrip(ctx context.Context) error {
	m.mu.Lock()
	err := m.err
	min, max := m.minLatency, m.maxLatency
	m.mu.Unlock()

	if err != nil {
		return err
	}
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
