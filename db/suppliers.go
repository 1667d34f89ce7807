// ABOUTME: Supplier repository
// ABOUTME: Stores suppliers with their category tags and finds candidates for an RFQ
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/victor-4502/naova-mvp-sub002/models"
)

type SupplierRepository struct {
	db *sql.DB
}

func NewSupplierRepository(db *sql.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

func (r *SupplierRepository) Create(ctx context.Context, s *models.Supplier) error {
	if s == nil || strings.TrimSpace(s.Name) == "" {
		return ErrInvalidRequest
	}

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now().UTC()
	if s.Categories == nil {
		s.Categories = []string{}
	}
	for i, c := range s.Categories {
		s.Categories[i] = strings.ToLower(strings.TrimSpace(c))
	}

	categories, err := json.Marshal(s.Categories)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO suppliers (id, name, email, phone, categories, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.ID.String(), s.Name, nullString(s.Email), nullString(s.Phone), string(categories), s.Active, s.CreatedAt)

	return err
}

func (r *SupplierRepository) Get(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, categories, active, created_at
		FROM suppliers WHERE id = ?
	`, id.String())

	s, err := scanSupplier(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// List returns all suppliers ordered by name.
func (r *SupplierRepository) List(ctx context.Context) ([]*models.Supplier, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, phone, categories, active, created_at
		FROM suppliers
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	suppliers := make([]*models.Supplier, 0)
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, s)
	}

	return suppliers, rows.Err()
}

// FindByCategory returns active suppliers tagged with category.
// Categories are stored as a JSON array so the match happens here rather than in SQL.
func (r *SupplierRepository) FindByCategory(ctx context.Context, category string) ([]*models.Supplier, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	category = strings.ToLower(strings.TrimSpace(category))
	matches := make([]*models.Supplier, 0)
	for _, s := range all {
		if s.Active && s.ServesCategory(category) {
			matches = append(matches, s)
		}
	}
	return matches, nil
}

func scanSupplier(sc scanner) (*models.Supplier, error) {
	s := &models.Supplier{}
	var email, phone sql.NullString
	var categories string

	if err := sc.Scan(&s.ID, &s.Name, &email, &phone, &categories, &s.Active, &s.CreatedAt); err != nil {
		return nil, err
	}

	s.Email = email.String
	s.Phone = phone.String
	if err := json.Unmarshal([]byte(categories), &s.Categories); err != nil {
		return nil, err
	}
	return s, nil
}
