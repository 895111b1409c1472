package review

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	insertReviewQuery = `
		INSERT INTO review_log (
			review_id, flow_id, transaction_id, user_id, terminal_state,
			reason, flow_context, resolved, occurred_at, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, FALSE, $8, $9
		)
	`

	selectUnresolvedQuery = `
		SELECT review_id, flow_id, transaction_id, user_id, terminal_state,
		       reason, flow_context, occurred_at, created_at
		FROM review_log
		WHERE resolved = FALSE
		ORDER BY created_at DESC
		LIMIT $1
	`

	updateResolvedQuery = `
		UPDATE review_log
		SET resolved = TRUE, resolved_at = NOW()
		WHERE review_id = $1
	`
)

// LogRecord is a persisted review entry as read back from the log.
type LogRecord struct {
	ReviewID      uuid.UUID
	FlowID        string
	TransactionID string
	UserID        string
	TerminalState string
	Reason        string
	FlowContext   []byte
	OccurredAt    time.Time
	CreatedAt     time.Time
}

// PostgresLog persists review entries so flows parked for manual review
// survive the process. The full flow context is stored as JSON alongside the
// searchable columns.
type PostgresLog struct {
	db *sql.DB
}

func NewPostgresLog(connString string) (*PostgresLog, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresLog{db: db}, nil
}

// Persist writes one review entry. Wire it as a queue subscriber to capture
// every parked flow.
func (l *PostgresLog) Persist(ctx context.Context, entry Entry) error {
	flowContext, err := json.Marshal(entry.Context)
	if err != nil {
		return fmt.Errorf("failed to serialize flow context: %w", err)
	}

	occurredAt := entry.At
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	_, err = l.db.ExecContext(ctx, insertReviewQuery,
		uuid.New(),
		entry.FlowID,
		entry.Context.TransactionID,
		entry.Context.UserID,
		string(entry.Context.CurrentState),
		entry.Reason,
		flowContext,
		occurredAt,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to persist review entry: %w", err)
	}
	return nil
}

// ListUnresolved returns up to limit entries still awaiting a decision,
// newest first.
func (l *PostgresLog) ListUnresolved(ctx context.Context, limit int) ([]LogRecord, error) {
	rows, err := l.db.QueryContext(ctx, selectUnresolvedQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unresolved reviews: %w", err)
	}
	defer rows.Close()

	var records []LogRecord
	for rows.Next() {
		var rec LogRecord
		var flowContext sql.NullString

		err := rows.Scan(
			&rec.ReviewID,
			&rec.FlowID,
			&rec.TransactionID,
			&rec.UserID,
			&rec.TerminalState,
			&rec.Reason,
			&flowContext,
			&rec.OccurredAt,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review entry: %w", err)
		}
		if flowContext.Valid {
			rec.FlowContext = []byte(flowContext.String)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read review entries: %w", err)
	}
	return records, nil
}

// MarkResolved flags an entry as handled by an operator.
func (l *PostgresLog) MarkResolved(ctx context.Context, reviewID uuid.UUID) error {
	_, err := l.db.ExecContext(ctx, updateResolvedQuery, reviewID)
	if err != nil {
		return fmt.Errorf("failed to mark review as resolved: %w", err)
	}
	return nil
}

func (l *PostgresLog) Close() error {
	return l.db.Close()
}
