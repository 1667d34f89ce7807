// ABOUTME: RFQ repository
// ABOUTME: Records RFQ dispatch batches and supplier responses
package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/victor-4502/naova-mvp-sub002/models"
)

type RFQRepository struct {
	db *sql.DB
}

func NewRFQRepository(db *sql.DB) *RFQRepository {
	return &RFQRepository{db: db}
}

// CreateBatch inserts all RFQs of one dispatch in a single transaction.
func (r *RFQRepository) CreateBatch(ctx context.Context, rfqs []*models.RFQ) error {
	if len(rfqs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for _, q := range rfqs {
		if q.ID == uuid.Nil {
			q.ID = uuid.New()
		}
		if q.Status == "" {
			q.Status = models.RFQStatusSent
		}
		q.SentAt = now

		_, err := tx.ExecContext(ctx, `
			INSERT INTO rfqs (id, request_id, supplier_id, batch_id, status, sent_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, q.ID.String(), q.RequestID.String(), q.SupplierID.String(), q.BatchID, q.Status, q.SentAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListByRequest returns RFQs for a request, oldest first.
func (r *RFQRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*models.RFQ, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, request_id, supplier_id, batch_id, status, sent_at
		FROM rfqs
		WHERE request_id = ?
		ORDER BY sent_at ASC, id ASC
	`, requestID.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	rfqs := make([]*models.RFQ, 0)
	for rows.Next() {
		var q models.RFQ
		if err := rows.Scan(&q.ID, &q.RequestID, &q.SupplierID, &q.BatchID, &q.Status, &q.SentAt); err != nil {
			return nil, err
		}
		rfqs = append(rfqs, &q)
	}

	return rfqs, rows.Err()
}

// markResponded flags the supplier's RFQs for a request as answered.
// It is not an error if the supplier was never sent an RFQ.
func markResponded(ctx context.Context, ex execer, requestID, supplierID uuid.UUID) error {
	_, err := ex.ExecContext(ctx, `
		UPDATE rfqs SET status = ?
		WHERE request_id = ? AND supplier_id = ? AND status = ?
	`, models.RFQStatusResponded, requestID.String(), supplierID.String(), models.RFQStatusSent)
	return err
}
