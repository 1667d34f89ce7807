// ABOUTME: Sends requests for quotation to suppliers that serve a request's category
// ABOUTME: One RFQ per supplier, grouped under a shared batch id
package rfq

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/victor-4502/naova-mvp-sub002/apperr"
	"github.com/victor-4502/naova-mvp-sub002/models"
	"github.com/victor-4502/naova-mvp-sub002/notify"
)

type SupplierFinder interface {
	FindByCategory(ctx context.Context, category string) ([]*models.Supplier, error)
}

type Store interface {
	CreateBatch(ctx context.Context, rfqs []*models.RFQ) error
}

// Batch is the result of one dispatch.
type Batch struct {
	ID        string        `json:"batch_id"`
	RequestID uuid.UUID     `json:"request_id"`
	RFQs      []*models.RFQ `json:"rfqs"`
}

type Dispatcher struct {
	suppliers SupplierFinder
	rfqs      Store
	notifier  notify.Notifier
	log       *logrus.Entry
}

func NewDispatcher(suppliers SupplierFinder, rfqs Store, notifier notify.Notifier, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		suppliers: suppliers,
		rfqs:      rfqs,
		notifier:  notifier,
		log:       logger.WithField("component", "rfq"),
	}
}

// Dispatch records and sends RFQs for req. A batch with no RFQs means no
// active supplier serves the category; nothing is written in that case.
func (d *Dispatcher) Dispatch(ctx context.Context, req *models.Request) (*Batch, error) {
	if req.Category == "" {
		return nil, apperr.Invalid("request %s has no category", req.ID)
	}

	suppliers, err := d.suppliers.FindByCategory(ctx, req.Category)
	if err != nil {
		return nil, errors.Wrap(err, "find suppliers")
	}

	batch := &Batch{ID: ulid.Make().String(), RequestID: req.ID, RFQs: []*models.RFQ{}}
	if len(suppliers) == 0 {
		d.log.WithFields(logrus.Fields{
			"request_id": req.ID,
			"category":   req.Category,
		}).Warn("no suppliers for category")
		return batch, nil
	}

	for _, s := range suppliers {
		batch.RFQs = append(batch.RFQs, &models.RFQ{
			RequestID:  req.ID,
			SupplierID: s.ID,
			BatchID:    batch.ID,
		})
	}

	if err := d.rfqs.CreateBatch(ctx, batch.RFQs); err != nil {
		return nil, errors.Wrap(err, "record rfqs")
	}

	for _, s := range suppliers {
		if d.notifier == nil {
			break
		}
		if err := d.notifier.RFQSent(ctx, s, req, batch.ID); err != nil {
			d.log.WithError(err).WithField("supplier_id", s.ID).Warn("rfq notification failed")
		}
	}

	d.log.WithFields(logrus.Fields{
		"request_id": req.ID,
		"batch_id":   batch.ID,
		"suppliers":  len(suppliers),
	}).Info("rfqs dispatched")

	return batch, nil
}
