// ABOUTME: Data models for the procurement pipeline
// ABOUTME: Defines Request, RequestSpec, Supplier, RFQ, Quote, PurchaseOrder and timeline events
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Request struct {
	ID                uuid.UUID     `json:"id"`
	Source            RequestSource `json:"source"`
	ClientID          string        `json:"client_id"`
	Status            RequestStatus `json:"status"`
	Stage             PipelineStage `json:"stage"`
	RawContent        string        `json:"raw_content"`
	NormalizedContent string        `json:"normalized_content,omitempty"`
	Category          string        `json:"category,omitempty"`
	Urgency           Urgency       `json:"urgency"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// RequestSpec is the structured form derived from a request's raw content.
type RequestSpec struct {
	RequestID     uuid.UUID `json:"request_id"`
	Fields        Metadata  `json:"fields"`
	Completeness  float64   `json:"completeness"`
	MissingFields []string  `json:"missing_fields,omitempty"`
	IsValid       bool      `json:"is_valid"`
	CreatedAt     time.Time `json:"created_at"`
}

type Supplier struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Categories []string  `json:"categories"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// ServesCategory reports whether the supplier is tagged with category.
func (s *Supplier) ServesCategory(category string) bool {
	for _, c := range s.Categories {
		if c == category {
			return true
		}
	}
	return false
}

type RFQ struct {
	ID         uuid.UUID `json:"id"`
	RequestID  uuid.UUID `json:"request_id"`
	SupplierID uuid.UUID `json:"supplier_id"`
	BatchID    string    `json:"batch_id"`
	Status     string    `json:"status"`
	SentAt     time.Time `json:"sent_at"`
}

type QuoteItem struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	Unit        string `json:"unit,omitempty"`
	UnitPrice   int64  `json:"unit_price"` // in cents
}

// LineTotal is quantity times unit price, in cents.
func (i QuoteItem) LineTotal() int64 {
	return i.Quantity * i.UnitPrice
}

// Quote amounts are in cents of Currency.
type Quote struct {
	ID           uuid.UUID   `json:"id"`
	RequestID    uuid.UUID   `json:"request_id"`
	SupplierID   uuid.UUID   `json:"supplier_id"`
	Items        []QuoteItem `json:"items"`
	Subtotal     int64       `json:"subtotal"`
	Taxes        int64       `json:"taxes"`
	Shipping     int64       `json:"shipping"`
	Total        int64       `json:"total"`
	Currency     string      `json:"currency"`
	ValidUntil   *time.Time  `json:"valid_until,omitempty"`
	DeliveryDays int         `json:"delivery_days"`
	Terms        string      `json:"terms,omitempty"`
	SupersededBy *uuid.UUID  `json:"superseded_by,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Expired reports whether the validity window closed before now.
func (q *Quote) Expired(now time.Time) bool {
	return q.ValidUntil != nil && q.ValidUntil.Before(now)
}

type PurchaseOrder struct {
	ID                  uuid.UUID         `json:"id"`
	RequestID           uuid.UUID         `json:"request_id"`
	QuoteID             uuid.UUID         `json:"quote_id"`
	SupplierID          uuid.UUID         `json:"supplier_id"`
	ClientID            string            `json:"client_id"`
	Status              POStatus          `json:"status"`
	Total               int64             `json:"total"` // in cents
	Currency            string            `json:"currency"`
	PaymentStatus       PaymentStatus     `json:"payment_status"`
	ExpectedDelivery    *time.Time        `json:"expected_delivery,omitempty"`
	DeliveredAt         *time.Time        `json:"delivered_at,omitempty"`
	EstimatedCompletion *time.Time        `json:"estimated_completion,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
	Timeline            []POTimelineEvent `json:"timeline,omitempty"`
}

// POTimelineEvent is an append-only record of a status change.
type POTimelineEvent struct {
	ID          string    `json:"id"`
	OrderID     uuid.UUID `json:"order_id"`
	Status      POStatus  `json:"status"`
	Description string    `json:"description,omitempty"`
	Metadata    Metadata  `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Metadata is a free-form JSON document passed through untouched.
type Metadata map[string]any

// Value implements driver.Valuer; nil maps are stored as NULL.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("metadata: unsupported scan type %T", src)
	}
	if len(raw) == 0 || string(raw) == "null" {
		*m = nil
		return nil
	}
	out := Metadata{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*m = out
	return nil
}
