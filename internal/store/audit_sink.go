package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/protocol-bank/custody-engine/internal/audit"
)

// AuditSink persists audit.Events to an append-only Postgres table
// through a raw database/sql handle, the same driver-registration and
// parameterized-insert idiom as
// webhook-handler/internal/store/store.go's WebhookStore.SaveWebhook.
// It deliberately bypasses gorm: these rows are write-once and never
// read back through a model, so a hand-written insert is a better fit
// than a migrated model.
type AuditSink struct {
	db *sql.DB
}

// NewAuditSink opens its own database/sql connection against dsn,
// separate from the gorm handle Open returns, and ensures the audit_log
// table exists.
func NewAuditSink(ctx context.Context, dsn string) (*AuditSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open audit sink: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("store: ping audit sink: %w", err)
	}
	const schema = `
		CREATE TABLE IF NOT EXISTS audit_log (
			id UUID PRIMARY KEY,
			event_type TEXT NOT NULL,
			wallet_id TEXT,
			principal TEXT,
			operation_id BIGINT,
			result TEXT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate audit sink: %w", err)
	}
	return &AuditSink{db: db}, nil
}

// Record appends one audit event as a new row, satisfying audit.Sink.
func (s *AuditSink) Record(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("store: marshal audit event: %w", err)
	}
	const query = `
		INSERT INTO audit_log (id, event_type, wallet_id, principal, operation_id, result, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.NewString(), event.EventType, event.WalletID, event.Principal,
		event.OperationID, event.Result, payload, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("store: insert audit event: %w", err)
	}
	return nil
}

// Close releases the underlying database/sql connection.
func (s *AuditSink) Close() error {
	return s.db.Close()
}
