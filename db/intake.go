// ABOUTME: Intake log repository
// ABOUTME: Remembers which external messages were already imported as requests
package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type IntakeLogRepository struct {
	db *sql.DB
}

func NewIntakeLogRepository(db *sql.DB) *IntakeLogRepository {
	return &IntakeLogRepository{db: db}
}

// Seen reports whether the message identified by source/sourceID was imported.
func (r *IntakeLogRepository) Seen(ctx context.Context, source, sourceID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM intake_log WHERE source = ? AND source_id = ?
	`, source, sourceID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Record links an imported message to the request it produced.
// Recording the same message twice is a no-op.
func (r *IntakeLogRepository) Record(ctx context.Context, source, sourceID string, requestID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO intake_log (source, source_id, request_id, imported_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(source, source_id) DO NOTHING
	`, source, sourceID, requestID.String(), time.Now().UTC())
	return err
}
