// ABOUTME: Quote MCP tools
// ABOUTME: Implements receive_quote, compare_quotes and accept_quote
package handlers

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/victor-4502/naova-mvp-sub002/apperr"
	"github.com/victor-4502/naova-mvp-sub002/auth"
	"github.com/victor-4502/naova-mvp-sub002/db"
	"github.com/victor-4502/naova-mvp-sub002/models"
	"github.com/victor-4502/naova-mvp-sub002/quotes"
)

type QuoteItemInput struct {
	Description string `json:"description" jsonschema:"Line description"`
	Quantity    int64  `json:"quantity" jsonschema:"Units quoted"`
	Unit        string `json:"unit,omitempty" jsonschema:"Unit of measure"`
	UnitPrice   int64  `json:"unit_price" jsonschema:"Price per unit in cents"`
}

type ReceiveQuoteInput struct {
	RequestID    string           `json:"request_id" jsonschema:"Request the quote answers (required)"`
	SupplierID   string           `json:"supplier_id" jsonschema:"Quoting supplier ID (required)"`
	Items        []QuoteItemInput `json:"items" jsonschema:"Quoted lines (at least one)"`
	Subtotal     int64            `json:"subtotal" jsonschema:"Sum of line totals in cents"`
	Taxes        int64            `json:"taxes,omitempty" jsonschema:"Taxes in cents"`
	Shipping     int64            `json:"shipping,omitempty" jsonschema:"Shipping in cents"`
	Total        int64            `json:"total" jsonschema:"Subtotal plus taxes and shipping in cents"`
	Currency     string           `json:"currency" jsonschema:"ISO 4217 currency code"`
	ValidUntil   string           `json:"valid_until,omitempty" jsonschema:"Last day the quote holds (YYYY-MM-DD or RFC3339)"`
	DeliveryDays int              `json:"delivery_days" jsonschema:"Days from order to delivery"`
	Terms        string           `json:"terms,omitempty" jsonschema:"Payment or delivery terms"`
}

type QuoteInput struct {
	QuoteID string `json:"quote_id" jsonschema:"Quote ID (required)"`
}

type QuoteOutput struct {
	ID           string  `json:"id"`
	RequestID    string  `json:"request_id"`
	SupplierID   string  `json:"supplier_id"`
	Total        int64   `json:"total"`
	Currency     string  `json:"currency"`
	DeliveryDays int     `json:"delivery_days"`
	ValidUntil   *string `json:"valid_until,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

type RankedOutput struct {
	Rank             int         `json:"rank"`
	Best             bool        `json:"best"`
	Quote            QuoteOutput `json:"quote"`
	Total            string      `json:"total"`
	SavingsVsHighest int64       `json:"savings_vs_highest"`
}

type ComparisonOutput struct {
	RequestID string         `json:"request_id"`
	Currency  string         `json:"currency,omitempty"`
	Spread    int64          `json:"spread"`
	Ranking   []RankedOutput `json:"ranking"`
	Expired   []string       `json:"expired,omitempty"`
}

type OrderOutput struct {
	ID               string  `json:"id"`
	RequestID        string  `json:"request_id"`
	QuoteID          string  `json:"quote_id"`
	SupplierID       string  `json:"supplier_id"`
	ClientID         string  `json:"client_id"`
	Status           string  `json:"status"`
	Total            int64   `json:"total"`
	Currency         string  `json:"currency"`
	PaymentStatus    string  `json:"payment_status"`
	ExpectedDelivery *string `json:"expected_delivery,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

func (h *Handlers) ReceiveQuote(ctx context.Context, _ *mcp.CallToolRequest, input ReceiveQuoteInput) (*mcp.CallToolResult, QuoteOutput, error) {
	if err := h.authorize(ctx, auth.ObjQuotes, auth.ActCreate); err != nil {
		return nil, QuoteOutput{}, err
	}
	requestID, err := parseID("request_id", input.RequestID)
	if err != nil {
		return nil, QuoteOutput{}, err
	}

	sub := quotes.Submission{
		SupplierID:   input.SupplierID,
		Items:        make([]quotes.SubmissionItem, 0, len(input.Items)),
		Subtotal:     input.Subtotal,
		Taxes:        input.Taxes,
		Shipping:     input.Shipping,
		Total:        input.Total,
		Currency:     input.Currency,
		ValidUntil:   input.ValidUntil,
		DeliveryDays: input.DeliveryDays,
		Terms:        input.Terms,
	}
	for _, it := range input.Items {
		sub.Items = append(sub.Items, quotes.SubmissionItem(it))
	}
	payload, err := json.Marshal(sub)
	if err != nil {
		return nil, QuoteOutput{}, errors.Wrap(err, "encode quote")
	}

	q, err := h.app.Receiver.Receive(ctx, requestID, payload)
	if err != nil {
		return nil, QuoteOutput{}, err
	}
	return nil, quoteToOutput(q), nil
}

func (h *Handlers) CompareQuotes(ctx context.Context, _ *mcp.CallToolRequest, input RequestInput) (*mcp.CallToolResult, ComparisonOutput, error) {
	if err := h.authorize(ctx, auth.ObjQuotes, auth.ActRead); err != nil {
		return nil, ComparisonOutput{}, err
	}
	requestID, err := parseID("request_id", input.RequestID)
	if err != nil {
		return nil, ComparisonOutput{}, err
	}
	if _, err := h.ownRequest(ctx, requestID); err != nil {
		return nil, ComparisonOutput{}, err
	}

	cmp, err := h.app.Comparator.Compare(ctx, requestID)
	if err != nil {
		return nil, ComparisonOutput{}, err
	}
	return nil, comparisonToOutput(cmp), nil
}

func (h *Handlers) AcceptQuote(ctx context.Context, _ *mcp.CallToolRequest, input QuoteInput) (*mcp.CallToolResult, OrderOutput, error) {
	if err := h.authorize(ctx, auth.ObjQuotes, auth.ActAccept); err != nil {
		return nil, OrderOutput{}, err
	}
	quoteID, err := parseID("quote_id", input.QuoteID)
	if err != nil {
		return nil, OrderOutput{}, err
	}

	q, err := h.app.Quotes.Get(ctx, quoteID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, OrderOutput{}, apperr.NotFound("quote %s not found", quoteID)
	}
	if err != nil {
		return nil, OrderOutput{}, errors.Wrap(err, "get quote")
	}
	req, err := h.app.Pipeline.GetRequest(ctx, q.RequestID)
	if err != nil {
		return nil, OrderOutput{}, err
	}
	if err := h.app.Authorizer.CheckVisible(h.id, req.ClientID, "quote", quoteID); err != nil {
		return nil, OrderOutput{}, err
	}

	po, err := h.app.Creator.CreateFromQuote(ctx, quoteID)
	if err != nil {
		return nil, OrderOutput{}, err
	}
	return nil, orderToOutput(po), nil
}

func quoteToOutput(q *models.Quote) QuoteOutput {
	return QuoteOutput{
		ID:           q.ID.String(),
		RequestID:    q.RequestID.String(),
		SupplierID:   q.SupplierID.String(),
		Total:        q.Total,
		Currency:     q.Currency,
		DeliveryDays: q.DeliveryDays,
		ValidUntil:   formatTimePtr(q.ValidUntil),
		CreatedAt:    formatTime(q.CreatedAt),
	}
}

func comparisonToOutput(cmp *quotes.Comparison) ComparisonOutput {
	out := ComparisonOutput{
		RequestID: cmp.RequestID.String(),
		Currency:  cmp.Currency,
		Spread:    cmp.Spread,
		Ranking:   make([]RankedOutput, 0, len(cmp.Ranking)),
	}
	for _, r := range cmp.Ranking {
		out.Ranking = append(out.Ranking, RankedOutput{
			Rank:             r.Rank,
			Best:             r.Best,
			Quote:            quoteToOutput(r.Quote),
			Total:            r.Total,
			SavingsVsHighest: r.Savings,
		})
	}
	out.Expired = idStrings(cmp.Expired)
	return out
}

func orderToOutput(po *models.PurchaseOrder) OrderOutput {
	return OrderOutput{
		ID:               po.ID.String(),
		RequestID:        po.RequestID.String(),
		QuoteID:          po.QuoteID.String(),
		SupplierID:       po.SupplierID.String(),
		ClientID:         po.ClientID,
		Status:           string(po.Status),
		Total:            po.Total,
		Currency:         po.Currency,
		PaymentStatus:    string(po.PaymentStatus),
		ExpectedDelivery: formatTimePtr(po.ExpectedDelivery),
		CreatedAt:        formatTime(po.CreatedAt),
	}
}

func idStrings(ids []uuid.UUID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
