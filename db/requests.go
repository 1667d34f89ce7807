// ABOUTME: Request repository for the procurement pipeline
// ABOUTME: Handles request creation, stage/status updates, filtered listing and derived specs
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/victor-4502/naova-mvp-sub002/models"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrInvalidRequest = errors.New("invalid request")
)

// RequestFilter narrows List. Zero values mean "no filter".
type RequestFilter struct {
	ClientID      *string
	Stage         models.PipelineStage
	ExcludeStages []models.PipelineStage
	Limit         int
}

// RequestRepository provides persistence for buyer requests.
type RequestRepository struct {
	db *sql.DB
}

func NewRequestRepository(db *sql.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

const requestColumns = `id, source, client_id, status, stage, raw_content, normalized_content, category, urgency, created_at, updated_at`

// Create inserts a request, filling in id, timestamps and defaults.
func (r *RequestRepository) Create(ctx context.Context, req *models.Request) error {
	if req == nil || req.ClientID == "" || req.RawContent == "" {
		return ErrInvalidRequest
	}

	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.Status == "" {
		req.Status = models.RequestNew
	}
	if req.Stage == "" {
		req.Stage = models.StageNew
	}
	if req.Urgency == "" {
		req.Urgency = models.UrgencyNormal
	}

	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO requests (id, source, client_id, status, stage, raw_content, normalized_content, category, urgency, seq, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM requests), ?, ?)
	`, req.ID.String(), req.Source, req.ClientID, req.Status, req.Stage, req.RawContent,
		nullString(req.NormalizedContent), nullString(req.Category), req.Urgency, req.CreatedAt, req.UpdatedAt)

	return err
}

// Get retrieves a request by ID.
func (r *RequestRepository) Get(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = ?`, id.String())

	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

// UpdateStage sets the pipeline stage of a single request.
func (r *RequestRepository) UpdateStage(ctx context.Context, id uuid.UUID, stage models.PipelineStage) error {
	return r.exec(ctx, `UPDATE requests SET stage = ?, updated_at = ? WHERE id = ?`,
		stage, time.Now().UTC(), id.String())
}

// UpdateStatus sets status and stage together.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.RequestStatus, stage models.PipelineStage) error {
	return setRequestStatus(ctx, r.db, id, status, stage, time.Now().UTC())
}

// setRequestStatus runs on the pool or inside another repository's transaction.
func setRequestStatus(ctx context.Context, ex execer, id uuid.UUID, status models.RequestStatus, stage models.PipelineStage, at time.Time) error {
	result, err := ex.ExecContext(ctx, `UPDATE requests SET status = ?, stage = ?, updated_at = ? WHERE id = ?`,
		status, stage, at, id.String())
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

// UpdateClassification stores the normalization output on the request row.
func (r *RequestRepository) UpdateClassification(ctx context.Context, id uuid.UUID, normalized, category string) error {
	return r.exec(ctx, `UPDATE requests SET normalized_content = ?, category = ?, updated_at = ? WHERE id = ?`,
		nullString(normalized), nullString(category), time.Now().UTC(), id.String())
}

// List returns requests in creation order.
func (r *RequestRepository) List(ctx context.Context, filter RequestFilter) ([]*models.Request, error) {
	var where []string
	var args []interface{}

	if filter.ClientID != nil {
		where = append(where, "client_id = ?")
		args = append(args, *filter.ClientID)
	}
	if filter.Stage != "" {
		where = append(where, "stage = ?")
		args = append(args, filter.Stage)
	}
	if len(filter.ExcludeStages) > 0 {
		placeholders := make([]string, len(filter.ExcludeStages))
		for i, s := range filter.ExcludeStages {
			placeholders[i] = "?"
			args = append(args, s)
		}
		where = append(where, "stage NOT IN ("+strings.Join(placeholders, ", ")+")")
	}

	query := `SELECT ` + requestColumns + ` FROM requests`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY seq ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	requests := make([]*models.Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return requests, nil
}

// SaveSpec upserts the derived spec for a request.
func (r *RequestRepository) SaveSpec(ctx context.Context, spec *models.RequestSpec) error {
	if spec == nil || spec.RequestID == uuid.Nil {
		return ErrInvalidRequest
	}
	spec.CreatedAt = time.Now().UTC()

	missing, err := json.Marshal(spec.MissingFields)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO request_specs (request_id, fields, completeness, missing_fields, is_valid, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(request_id) DO UPDATE SET
			fields = excluded.fields,
			completeness = excluded.completeness,
			missing_fields = excluded.missing_fields,
			is_valid = excluded.is_valid,
			created_at = excluded.created_at
	`, spec.RequestID.String(), spec.Fields, spec.Completeness, string(missing), spec.IsValid, spec.CreatedAt)

	return err
}

// GetSpec returns the stored spec for a request.
func (r *RequestRepository) GetSpec(ctx context.Context, requestID uuid.UUID) (*models.RequestSpec, error) {
	spec := &models.RequestSpec{}
	var missing sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT request_id, fields, completeness, missing_fields, is_valid, created_at
		FROM request_specs WHERE request_id = ?
	`, requestID.String()).Scan(&spec.RequestID, &spec.Fields, &spec.Completeness, &missing, &spec.IsValid, &spec.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if missing.Valid && missing.String != "" {
		if err := json.Unmarshal([]byte(missing.String), &spec.MissingFields); err != nil {
			return nil, err
		}
	}

	return spec, nil
}

func (r *RequestRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(s scanner) (*models.Request, error) {
	req := &models.Request{}
	var normalized, category sql.NullString

	err := s.Scan(
		&req.ID,
		&req.Source,
		&req.ClientID,
		&req.Status,
		&req.Stage,
		&req.RawContent,
		&normalized,
		&category,
		&req.Urgency,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.NormalizedContent = normalized.String
	req.Category = category.String
	return req, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
