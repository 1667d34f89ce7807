// ABOUTME: Outbound notifications to suppliers and clients
// ABOUTME: Delivery is fire-and-forget; callers log failures and carry on
package notify

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/victor-4502/naova-mvp-sub002/models"
)

// Notifier delivers RFQs to suppliers and order updates to clients.
type Notifier interface {
	RFQSent(ctx context.Context, supplier *models.Supplier, req *models.Request, batchID string) error
	OrderStatusChanged(ctx context.Context, po *models.PurchaseOrder, event *models.POTimelineEvent) error
}

// LogNotifier writes notifications to the log instead of a mail or chat gateway.
type LogNotifier struct {
	log *logrus.Entry
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{log: logger.WithField("component", "notify")}
}

func (n *LogNotifier) RFQSent(_ context.Context, supplier *models.Supplier, req *models.Request, batchID string) error {
	n.log.WithFields(logrus.Fields{
		"supplier_id": supplier.ID,
		"supplier":    supplier.Name,
		"email":       supplier.Email,
		"request_id":  req.ID,
		"category":    req.Category,
		"batch_id":    batchID,
	}).Info("rfq sent to supplier")
	return nil
}

func (n *LogNotifier) OrderStatusChanged(_ context.Context, po *models.PurchaseOrder, event *models.POTimelineEvent) error {
	n.log.WithFields(logrus.Fields{
		"order_id":  po.ID,
		"client_id": po.ClientID,
		"status":    event.Status,
		"event_id":  event.ID,
	}).Info("order status update sent to client")
	return nil
}

// Recorder keeps every notification in memory. Useful in tests and dry runs.
type Recorder struct {
	mu     sync.Mutex
	RFQs   []RFQNotice
	Orders []OrderNotice
	Err    error
}

type RFQNotice struct {
	SupplierID string
	RequestID  string
	BatchID    string
}

type OrderNotice struct {
	OrderID string
	Status  models.POStatus
}

func (r *Recorder) RFQSent(_ context.Context, supplier *models.Supplier, req *models.Request, batchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.RFQs = append(r.RFQs, RFQNotice{SupplierID: supplier.ID.String(), RequestID: req.ID.String(), BatchID: batchID})
	return r.Err
}

func (r *Recorder) OrderStatusChanged(_ context.Context, po *models.PurchaseOrder, event *models.POTimelineEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Orders = append(r.Orders, OrderNotice{OrderID: po.ID.String(), Status: event.Status})
	return r.Err
}

// OrderNotices returns a snapshot of recorded order notifications.
func (r *Recorder) OrderNotices() []OrderNotice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]OrderNotice, len(r.Orders))
	copy(out, r.Orders)
	return out
}

// RFQNotices returns a snapshot of recorded RFQ notifications.
func (r *Recorder) RFQNotices() []RFQNotice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RFQNotice, len(r.RFQs))
	copy(out, r.RFQs)
	return out
}
