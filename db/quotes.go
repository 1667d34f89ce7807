// ABOUTME: Quote repository
// ABOUTME: Stores supplier quotes; a new quote supersedes the supplier's previous one
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/victor-4502/naova-mvp-sub002/models"
)

type QuoteRepository struct {
	db *sql.DB
}

func NewQuoteRepository(db *sql.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

const quoteColumns = `id, request_id, supplier_id, items, subtotal, taxes, shipping, total, currency, valid_until, delivery_days, terms, superseded_by, created_at`

// Create stores q and marks any earlier active quote from the same supplier
// for the same request as superseded by it.
func (r *QuoteRepository) Create(ctx context.Context, q *models.Quote) error {
	return r.store(ctx, q, false)
}

// Record is Create for a supplier's answer to an RFQ: in the same
// transaction the supplier's RFQs are marked responded and the request
// moves to quotes_received.
func (r *QuoteRepository) Record(ctx context.Context, q *models.Quote) error {
	return r.store(ctx, q, true)
}

func (r *QuoteRepository) store(ctx context.Context, q *models.Quote, answer bool) error {
	if q == nil || q.RequestID == uuid.Nil || q.SupplierID == uuid.Nil {
		return ErrInvalidRequest
	}

	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	q.CreatedAt = time.Now().UTC()
	q.SupersededBy = nil

	items, err := json.Marshal(q.Items)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		UPDATE quotes SET superseded_by = ?
		WHERE request_id = ? AND supplier_id = ? AND superseded_by IS NULL
	`, q.ID.String(), q.RequestID.String(), q.SupplierID.String())
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO quotes (`+quoteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?)
	`, q.ID.String(), q.RequestID.String(), q.SupplierID.String(), string(items),
		q.Subtotal, q.Taxes, q.Shipping, q.Total, q.Currency, q.ValidUntil,
		q.DeliveryDays, nullString(q.Terms), q.CreatedAt)
	if err != nil {
		return err
	}

	if answer {
		if err := markResponded(ctx, tx, q.RequestID, q.SupplierID); err != nil {
			return err
		}
		if err := setRequestStatus(ctx, tx, q.RequestID, models.RequestQuotesReceived, models.StageQuoting, q.CreatedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *QuoteRepository) Get(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = ?`, id.String())

	q, err := scanQuote(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

// ListActiveByRequest returns quotes that have not been superseded, oldest first.
func (r *QuoteRepository) ListActiveByRequest(ctx context.Context, requestID uuid.UUID) ([]*models.Quote, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+quoteColumns+`
		FROM quotes
		WHERE request_id = ? AND superseded_by IS NULL
		ORDER BY created_at ASC
	`, requestID.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	quotes := make([]*models.Quote, 0)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}

	return quotes, rows.Err()
}

func scanQuote(s scanner) (*models.Quote, error) {
	q := &models.Quote{}
	var items string
	var terms, supersededBy sql.NullString

	err := s.Scan(
		&q.ID,
		&q.RequestID,
		&q.SupplierID,
		&items,
		&q.Subtotal,
		&q.Taxes,
		&q.Shipping,
		&q.Total,
		&q.Currency,
		&q.ValidUntil,
		&q.DeliveryDays,
		&terms,
		&supersededBy,
		&q.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(items), &q.Items); err != nil {
		return nil, err
	}
	q.Terms = terms.String
	if supersededBy.Valid {
		id, err := uuid.Parse(supersededBy.String)
		if err == nil {
			q.SupersededBy = &id
		}
	}

	return q, nil
}
