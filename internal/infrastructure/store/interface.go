package store

import (
	"context"

	"creditflow/internal/domain/flow"
)

// TransactionStore is the persistence collaborator of the credit flow. It
// must be safe for repeated UpdateTransaction calls with the same fields.
type TransactionStore interface {
	// GetUserInfo loads the profile of the user requesting credit.
	GetUserInfo(ctx context.Context, userID string) (*flow.UserProfile, error)

	// RegisterTransaction creates a new credit transaction keyed by
	// (userID, amount) and returns the record with its assigned ID.
	RegisterTransaction(ctx context.Context, userID string, amount float64) (*flow.TransactionRecord, error)

	// UpdateTransaction merges the given fields into the transaction record.
	// Earlier fields are never removed.
	UpdateTransaction(ctx context.Context, id string, fields map[string]interface{}) (*flow.TransactionRecord, error)
}
