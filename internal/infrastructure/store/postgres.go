package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"creditflow/internal/domain/flow"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	selectUserQuery = `
		SELECT user_id, name, email, gateway_customer_id, pix_key
		FROM users
		WHERE user_id = $1
	`

	insertTransactionQuery = `
		INSERT INTO credit_transactions (id, user_id, amount, details, created_at, updated_at)
		VALUES ($1, $2, $3, '{}'::jsonb, $4, $4)
	`

	// details merge is idempotent: re-applying the same fields leaves the
	// record unchanged.
	updateTransactionQuery = `
		UPDATE credit_transactions
		SET details = details || $2::jsonb, updated_at = $3
		WHERE id = $1
		RETURNING user_id, amount
	`
)

// PostgresStore records credit transactions and their state transitions in
// PostgreSQL. Step results accumulate in a JSONB details column.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(connString string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) GetUserInfo(ctx context.Context, userID string) (*flow.UserProfile, error) {
	var profile flow.UserProfile
	err := s.db.QueryRowContext(ctx, selectUserQuery, userID).Scan(
		&profile.UserID,
		&profile.Name,
		&profile.Email,
		&profile.GatewayCustomerID,
		&profile.PixKey,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %s", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &profile, nil
}

func (s *PostgresStore) RegisterTransaction(ctx context.Context, userID string, amount float64) (*flow.TransactionRecord, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, insertTransactionQuery, id, userID, amount, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to register transaction: %w", err)
	}
	return &flow.TransactionRecord{ID: id, UserID: userID, Amount: amount}, nil
}

func (s *PostgresStore) UpdateTransaction(ctx context.Context, id string, fields map[string]interface{}) (*flow.TransactionRecord, error) {
	details, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction fields: %w", err)
	}

	rec := flow.TransactionRecord{ID: id}
	err = s.db.QueryRowContext(ctx, updateTransactionQuery, id, details, time.Now()).
		Scan(&rec.UserID, &rec.Amount)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}
	return &rec, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
