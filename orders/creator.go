// ABOUTME: Turns a client-accepted quote into a purchase order
// ABOUTME: Opens the order at approved_by_client and moves the request to ordered
package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/victor-4502/naova-mvp-sub002/apperr"
	"github.com/victor-4502/naova-mvp-sub002/db"
	"github.com/victor-4502/naova-mvp-sub002/models"
)

type QuoteStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Quote, error)
}

type RequestStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Request, error)
}

type OrderStore interface {
	// Place inserts the order and moves its request to ordered in one commit.
	Place(ctx context.Context, po *models.PurchaseOrder, description string) error
	GetByRequest(ctx context.Context, requestID uuid.UUID) (*models.PurchaseOrder, error)
}

// Request statuses from which a client can accept a quote.
var acceptable = map[models.RequestStatus]bool{
	models.RequestQuotesReceived:   true,
	models.RequestQuotesCompared:   true,
	models.RequestSentToClient:     true,
	models.RequestApprovedByClient: true,
}

type Creator struct {
	quotes   QuoteStore
	requests RequestStore
	orders   OrderStore
	now      func() time.Time
	log      *logrus.Entry
}

func NewCreator(quotes QuoteStore, requests RequestStore, orders OrderStore, logger *logrus.Logger) *Creator {
	return &Creator{
		quotes:   quotes,
		requests: requests,
		orders:   orders,
		now:      time.Now,
		log:      logger.WithField("component", "orders"),
	}
}

// CreateFromQuote accepts quoteID on behalf of the client. A request gets at
// most one purchase order.
func (c *Creator) CreateFromQuote(ctx context.Context, quoteID uuid.UUID) (*models.PurchaseOrder, error) {
	q, err := c.quotes.Get(ctx, quoteID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("quote %s not found", quoteID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get quote")
	}

	now := c.now().UTC()
	if q.SupersededBy != nil {
		return nil, apperr.Invalid("quote %s was superseded by %s", quoteID, *q.SupersededBy)
	}
	if q.Expired(now) {
		return nil, apperr.Invalid("quote %s expired on %s", quoteID, q.ValidUntil.Format("2006-01-02"))
	}

	req, err := c.requests.Get(ctx, q.RequestID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("request %s not found", q.RequestID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get request")
	}

	existing, err := c.orders.GetByRequest(ctx, req.ID)
	switch {
	case err == nil:
		return nil, apperr.Invalid("request %s already has purchase order %s", req.ID, existing.ID)
	case !errors.Is(err, db.ErrNotFound):
		return nil, errors.Wrap(err, "check existing order")
	}

	if !acceptable[req.Status] {
		return nil, apperr.Invalid("request %s is %s; quotes cannot be accepted", req.ID, req.Status)
	}

	po := &models.PurchaseOrder{
		RequestID:  req.ID,
		QuoteID:    q.ID,
		SupplierID: q.SupplierID,
		ClientID:   req.ClientID,
		Status:     models.POApprovedByClient,
		Total:      q.Total,
		Currency:   q.Currency,
	}
	if q.DeliveryDays > 0 {
		eta := now.AddDate(0, 0, q.DeliveryDays)
		po.ExpectedDelivery = &eta
		po.EstimatedCompletion = &eta
	}

	if err := c.orders.Place(ctx, po, fmt.Sprintf("Client accepted quote %s", q.ID)); err != nil {
		return nil, errors.Wrap(err, "place order")
	}

	c.log.WithFields(logrus.Fields{
		"request_id": req.ID,
		"quote_id":   q.ID,
		"order_id":   po.ID,
		"client_id":  po.ClientID,
	}).Info("purchase order created")

	return po, nil
}
