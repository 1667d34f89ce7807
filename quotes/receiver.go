// ABOUTME: Intake of supplier quotes
// ABOUTME: Validates the payload shape and arithmetic before storing and moving the request to quotes_received
package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sirupsen/logrus"

	"github.com/victor-4502/naova-mvp-sub002/apperr"
	"github.com/victor-4502/naova-mvp-sub002/db"
	"github.com/victor-4502/naova-mvp-sub002/models"
)

type QuoteStore interface {
	// Record stores q, marks the supplier's RFQs responded and moves the
	// request to quotes_received atomically.
	Record(ctx context.Context, q *models.Quote) error
	Get(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	ListActiveByRequest(ctx context.Context, requestID uuid.UUID) ([]*models.Quote, error)
}

type RequestStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Request, error)
}

type SupplierStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
}

// Submission is the wire form of a supplier quote. Amounts are in minor units.
type Submission struct {
	SupplierID   string           `json:"supplier_id"`
	Items        []SubmissionItem `json:"items"`
	Subtotal     int64            `json:"subtotal"`
	Taxes        int64            `json:"taxes"`
	Shipping     int64            `json:"shipping"`
	Total        int64            `json:"total"`
	Currency     string           `json:"currency"`
	ValidUntil   string           `json:"valid_until,omitempty"`
	DeliveryDays int              `json:"delivery_days"`
	Terms        string           `json:"terms,omitempty"`
}

type SubmissionItem struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	Unit        string `json:"unit,omitempty"`
	UnitPrice   int64  `json:"unit_price"`
}

const submissionSchema = `{
	"type": "object",
	"required": ["supplier_id", "items", "subtotal", "total", "currency"],
	"properties": {
		"supplier_id": {"type": "string", "minLength": 1},
		"items": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["description", "quantity", "unit_price"],
				"properties": {
					"description": {"type": "string", "minLength": 1},
					"quantity": {"type": "integer", "minimum": 1},
					"unit": {"type": "string"},
					"unit_price": {"type": "integer", "minimum": 0}
				},
				"additionalProperties": false
			}
		},
		"subtotal": {"type": "integer", "minimum": 0},
		"taxes": {"type": "integer", "minimum": 0},
		"shipping": {"type": "integer", "minimum": 0},
		"total": {"type": "integer", "minimum": 0},
		"currency": {"type": "string", "pattern": "^[A-Za-z]{3}$"},
		"valid_until": {"type": "string"},
		"delivery_days": {"type": "integer", "minimum": 0},
		"terms": {"type": "string"}
	},
	"additionalProperties": false
}`

// Request statuses in which a quote is still welcome.
var acceptingStatuses = map[models.RequestStatus]bool{
	models.RequestRFQSent:        true,
	models.RequestQuotesReceived: true,
	models.RequestQuotesCompared: true,
	models.RequestSentToClient:   true,
}

type Receiver struct {
	quotes    QuoteStore
	requests  RequestStore
	suppliers SupplierStore
	schema    *jsonschema.Schema
	log       *logrus.Entry
}

func NewReceiver(quotes QuoteStore, requests RequestStore, suppliers SupplierStore, logger *logrus.Logger) (*Receiver, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("quote.json", strings.NewReader(submissionSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("quote.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &Receiver{
		quotes:    quotes,
		requests:  requests,
		suppliers: suppliers,
		schema:    schema,
		log:       logger.WithField("component", "quotes"),
	}, nil
}

// Receive stores a quote for requestID from a raw JSON payload. A later quote
// from the same supplier supersedes the earlier one.
func (r *Receiver) Receive(ctx context.Context, requestID uuid.UUID, payload []byte) (*models.Quote, error) {
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, apperr.Invalid("quote payload is not valid JSON: %v", err)
	}
	if err := r.schema.Validate(doc); err != nil {
		return nil, apperr.Invalid("quote payload does not match schema: %v", err)
	}

	var sub Submission
	if err := json.Unmarshal(payload, &sub); err != nil {
		return nil, apperr.Invalid("decode quote: %v", err)
	}

	supplierID, err := uuid.Parse(sub.SupplierID)
	if err != nil {
		return nil, apperr.Invalid("invalid supplier_id %q", sub.SupplierID)
	}

	q, err := sub.toQuote(requestID, supplierID)
	if err != nil {
		return nil, err
	}

	req, err := r.requests.Get(ctx, requestID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("request %s not found", requestID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get request")
	}
	if !acceptingStatuses[req.Status] {
		return nil, apperr.Invalid("request %s is %s and no longer accepts quotes", requestID, req.Status)
	}

	if _, err := r.suppliers.Get(ctx, supplierID); errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("supplier %s not found", supplierID)
	} else if err != nil {
		return nil, errors.Wrap(err, "get supplier")
	}

	if err := r.quotes.Record(ctx, q); err != nil {
		return nil, errors.Wrap(err, "record quote")
	}

	r.log.WithFields(logrus.Fields{
		"request_id":  requestID,
		"supplier_id": supplierID,
		"quote_id":    q.ID,
		"total":       money.New(q.Total, q.Currency).Display(),
	}).Info("quote received")

	return q, nil
}

// toQuote checks that line items add up to the subtotal and that subtotal,
// taxes and shipping add up to the total.
func (s Submission) toQuote(requestID, supplierID uuid.UUID) (*models.Quote, error) {
	code := strings.ToUpper(s.Currency)
	if money.GetCurrency(code) == nil {
		return nil, apperr.Invalid("unknown currency %q", s.Currency)
	}

	sum := money.New(0, code)
	items := make([]models.QuoteItem, len(s.Items))
	for i, it := range s.Items {
		items[i] = models.QuoteItem{Description: it.Description, Quantity: it.Quantity, Unit: it.Unit, UnitPrice: it.UnitPrice}
		line := money.New(items[i].LineTotal(), code)
		var err error
		if sum, err = sum.Add(line); err != nil {
			return nil, errors.Wrap(err, "sum items")
		}
	}

	subtotal := money.New(s.Subtotal, code)
	if ok, err := sum.Equals(subtotal); err != nil {
		return nil, errors.Wrap(err, "compare subtotal")
	} else if !ok {
		return nil, apperr.Invalid("items sum to %s but subtotal is %s", sum.Display(), subtotal.Display())
	}

	total, err := subtotal.Add(money.New(s.Taxes, code))
	if err != nil {
		return nil, errors.Wrap(err, "add taxes")
	}
	if total, err = total.Add(money.New(s.Shipping, code)); err != nil {
		return nil, errors.Wrap(err, "add shipping")
	}
	declared := money.New(s.Total, code)
	if ok, err := total.Equals(declared); err != nil {
		return nil, errors.Wrap(err, "compare total")
	} else if !ok {
		return nil, apperr.Invalid("subtotal, taxes and shipping come to %s but total is %s", total.Display(), declared.Display())
	}

	q := &models.Quote{
		RequestID:    requestID,
		SupplierID:   supplierID,
		Items:        items,
		Subtotal:     s.Subtotal,
		Taxes:        s.Taxes,
		Shipping:     s.Shipping,
		Total:        s.Total,
		Currency:     code,
		DeliveryDays: s.DeliveryDays,
		Terms:        s.Terms,
	}

	if s.ValidUntil != "" {
		until, err := parseDate(s.ValidUntil)
		if err != nil {
			return nil, apperr.Invalid("invalid valid_until %q", s.ValidUntil)
		}
		q.ValidUntil = &until
	}

	return q, nil
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, err
	}
	// A bare date stays valid through the end of that day.
	return t.Add(24*time.Hour - time.Second).UTC(), nil
}
