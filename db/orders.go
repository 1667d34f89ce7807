// ABOUTME: Purchase order and timeline repository
// ABOUTME: Status changes update the order row and append a timeline event in one transaction
package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/victor-4502/naova-mvp-sub002/models"
)

// OrderFilter narrows List. Zero values mean "no filter".
type OrderFilter struct {
	ClientID *string
	Status   models.POStatus
	Limit    int
}

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, request_id, quote_id, supplier_id, client_id, status, total, currency, payment_status, expected_delivery, delivered_at, estimated_completion, created_at, updated_at`

// Create inserts the order and its first timeline event. The order's
// Timeline is replaced with that single event.
func (r *OrderRepository) Create(ctx context.Context, po *models.PurchaseOrder, description string) error {
	return r.create(ctx, po, description, false)
}

// Place is Create plus moving the order's request to ordered, committed
// together so a request is never ordered without its order or the reverse.
func (r *OrderRepository) Place(ctx context.Context, po *models.PurchaseOrder, description string) error {
	return r.create(ctx, po, description, true)
}

func (r *OrderRepository) create(ctx context.Context, po *models.PurchaseOrder, description string, markOrdered bool) error {
	if po == nil || po.RequestID == uuid.Nil || po.QuoteID == uuid.Nil || po.ClientID == "" {
		return ErrInvalidRequest
	}

	if po.ID == uuid.Nil {
		po.ID = uuid.New()
	}
	if po.Status == "" {
		po.Status = models.POApprovedByClient
	}
	if po.PaymentStatus == "" {
		po.PaymentStatus = models.PaymentPending
	}
	now := time.Now().UTC()
	po.CreatedAt = now
	po.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO purchase_orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, po.ID.String(), po.RequestID.String(), po.QuoteID.String(), po.SupplierID.String(), po.ClientID,
		po.Status, po.Total, po.Currency, po.PaymentStatus, po.ExpectedDelivery, po.DeliveredAt,
		po.EstimatedCompletion, po.CreatedAt, po.UpdatedAt)
	if err != nil {
		return err
	}

	event, err := insertEvent(ctx, tx, po.ID, po.Status, description, nil, now)
	if err != nil {
		return err
	}

	if markOrdered {
		if err := setRequestStatus(ctx, tx, po.RequestID, models.RequestOrdered, models.StageOrdered, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	po.Timeline = []models.POTimelineEvent{*event}
	return nil
}

// Get loads an order with its timeline, oldest event first.
func (r *OrderRepository) Get(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id = ?`, id.String())

	po, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	timeline, err := r.Timeline(ctx, id)
	if err != nil {
		return nil, err
	}
	po.Timeline = timeline

	return po, nil
}

// GetByRequest returns the order created for a request.
func (r *OrderRepository) GetByRequest(ctx context.Context, requestID uuid.UUID) (*models.PurchaseOrder, error) {
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, `SELECT id FROM purchase_orders WHERE request_id = ?`, requestID.String()).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Timeline returns the events of an order ordered by creation time.
func (r *OrderRepository) Timeline(ctx context.Context, orderID uuid.UUID) ([]models.POTimelineEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, status, description, metadata, created_at
		FROM po_timeline_events
		WHERE order_id = ?
		ORDER BY created_at ASC, id ASC
	`, orderID.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	events := make([]models.POTimelineEvent, 0)
	for rows.Next() {
		var e models.POTimelineEvent
		var description sql.NullString
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Status, &description, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Description = description.String
		events = append(events, e)
	}

	return events, rows.Err()
}

// List returns orders without timelines, newest first.
func (r *OrderRepository) List(ctx context.Context, filter OrderFilter) ([]*models.PurchaseOrder, error) {
	var where []string
	var args []interface{}

	if filter.ClientID != nil {
		where = append(where, "client_id = ?")
		args = append(args, *filter.ClientID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}

	query := `SELECT ` + orderColumns + ` FROM purchase_orders`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orders := make([]*models.PurchaseOrder, 0)
	for rows.Next() {
		po, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, po)
	}

	return orders, rows.Err()
}

// UpdateStatus writes the new status and appends one timeline event.
// There is no compare-and-swap on the previous status: the last writer wins.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.POStatus, description string, metadata models.Metadata) (*models.POTimelineEvent, error) {
	now := time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	query := `UPDATE purchase_orders SET status = ?, updated_at = ? WHERE id = ?`
	args := []interface{}{status, now, id.String()}
	if status == models.PODelivered {
		query = `UPDATE purchase_orders SET status = ?, updated_at = ?, delivered_at = ? WHERE id = ?`
		args = []interface{}{status, now, now, id.String()}
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	event, err := insertEvent(ctx, tx, id, status, description, metadata, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return event, nil
}

// UpdatePaymentStatus changes the independent payment status.
func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE purchase_orders SET payment_status = ?, updated_at = ? WHERE id = ?
	`, status, time.Now().UTC(), id.String())
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertEvent(ctx context.Context, tx execer, orderID uuid.UUID, status models.POStatus, description string, metadata models.Metadata, at time.Time) (*models.POTimelineEvent, error) {
	event := &models.POTimelineEvent{
		ID:          ulid.Make().String(),
		OrderID:     orderID,
		Status:      status,
		Description: description,
		Metadata:    metadata,
		CreatedAt:   at,
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO po_timeline_events (id, order_id, status, description, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, event.ID, orderID.String(), status, nullString(description), metadata, at)
	if err != nil {
		return nil, err
	}

	return event, nil
}

func scanOrder(s scanner) (*models.PurchaseOrder, error) {
	po := &models.PurchaseOrder{}

	err := s.Scan(
		&po.ID,
		&po.RequestID,
		&po.QuoteID,
		&po.SupplierID,
		&po.ClientID,
		&po.Status,
		&po.Total,
		&po.Currency,
		&po.PaymentStatus,
		&po.ExpectedDelivery,
		&po.DeliveredAt,
		&po.EstimatedCompletion,
		&po.CreatedAt,
		&po.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return po, nil
}
