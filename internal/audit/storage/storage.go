package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/marketplace-ledger/internal/ledger"
	"github.com/jmoiron/sqlx"
)

// Storage handles all database operations for the audit-service.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance.
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// RecordEvent inserts one payment event into the audit log. Redelivered
// events hit the event_id primary key and are skipped; the bool reports
// whether a row was actually written.
func (s *Storage) RecordEvent(ctx context.Context, event *ledger.PaymentEvent) (bool, error) {
	query := `
		INSERT INTO audit_log (
			event_id, kind, job_id, client_id, contractor_id, amount, occurred_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		ON CONFLICT (event_id) DO NOTHING
	`

	res, err := s.db.ExecContext(
		ctx,
		query,
		event.EventID,
		event.Kind,
		event.JobID,
		event.ClientID,
		event.ContractorID,
		event.Amount,
		event.OccurredAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to record event: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		s.logger.Warn("Duplicate payment event skipped",
			slog.String("event_id", event.EventID),
			slog.String("kind", event.Kind),
		)
		return false, nil
	}

	return true, nil
}
