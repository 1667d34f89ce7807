// ABOUTME: XLSX export of the pipeline and purchase orders
// ABOUTME: One sheet per concern, optionally scoped to a single client
package export

import (
	"context"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/victor-4502/naova-mvp-sub002/db"
	"github.com/victor-4502/naova-mvp-sub002/models"
)

const (
	pipelineSheet = "Pipeline"
	ordersSheet   = "Orders"
)

type RequestLister interface {
	List(ctx context.Context, filter db.RequestFilter) ([]*models.Request, error)
}

type OrderLister interface {
	List(ctx context.Context, filter db.OrderFilter) ([]*models.PurchaseOrder, error)
}

type Service struct {
	requests RequestLister
	orders   OrderLister
	log      *logrus.Entry
}

func NewService(requests RequestLister, orders OrderLister, logger *logrus.Logger) *Service {
	return &Service{requests: requests, orders: orders, log: logger.WithField("component", "export")}
}

// WorkbookXLSX returns a workbook with the pipeline and order sheets. A nil
// clientID exports every client.
func (s *Service) WorkbookXLSX(ctx context.Context, clientID *string) ([]byte, error) {
	start := time.Now()

	requests, err := s.requests.List(ctx, db.RequestFilter{ClientID: clientID})
	if err != nil {
		return nil, errors.Wrap(err, "list requests")
	}
	orders, err := s.orders.List(ctx, db.OrderFilter{ClientID: clientID})
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", pipelineSheet); err != nil {
		return nil, errors.Wrap(err, "rename sheet")
	}
	if _, err := f.NewSheet(ordersSheet); err != nil {
		return nil, errors.Wrap(err, "add orders sheet")
	}

	if err := writePipeline(f, requests); err != nil {
		return nil, err
	}
	if err := writeOrders(f, orders); err != nil {
		return nil, err
	}

	index, _ := f.GetSheetIndex(pipelineSheet)
	f.SetActiveSheet(index)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "xlsx write")
	}

	s.log.WithFields(logrus.Fields{
		"requests":   len(requests),
		"orders":     len(orders),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("workbook exported")

	return buf.Bytes(), nil
}

type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) row(row int, values ...any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(w.sheet, cell, &values)
}

func writePipeline(f *excelize.File, requests []*models.Request) error {
	w := &sheetWriter{f: f, sheet: pipelineSheet}
	w.row(1, "Request ID", "Client", "Stage", "Status", "Category", "Urgency", "Source", "Request", "Created")
	for i, r := range requests {
		text := r.NormalizedContent
		if text == "" {
			text = r.RawContent
		}
		w.row(i+2, r.ID.String(), r.ClientID, string(r.Stage), string(r.Status), r.Category,
			string(r.Urgency), string(r.Source), truncate(text, 140), r.CreatedAt.Format("2006-01-02"))
	}
	if w.err != nil {
		return errors.Wrap(w.err, "write pipeline sheet")
	}

	_ = f.SetColWidth(pipelineSheet, "A", "A", 38)
	_ = f.SetColWidth(pipelineSheet, "B", "G", 16)
	_ = f.SetColWidth(pipelineSheet, "H", "H", 60)
	_ = f.SetColWidth(pipelineSheet, "I", "I", 12)
	return nil
}

func writeOrders(f *excelize.File, orders []*models.PurchaseOrder) error {
	w := &sheetWriter{f: f, sheet: ordersSheet}
	w.row(1, "Order ID", "Client", "Status", "Payment", "Total", "Currency", "Expected Delivery", "Delivered", "Created")
	for i, po := range orders {
		w.row(i+2, po.ID.String(), po.ClientID, string(po.Status), string(po.PaymentStatus),
			money.New(po.Total, po.Currency).Display(), po.Currency,
			dateOrBlank(po.ExpectedDelivery), dateOrBlank(po.DeliveredAt), po.CreatedAt.Format("2006-01-02"))
	}
	if w.err != nil {
		return errors.Wrap(w.err, "write orders sheet")
	}

	_ = f.SetColWidth(ordersSheet, "A", "A", 38)
	_ = f.SetColWidth(ordersSheet, "B", "D", 20)
	_ = f.SetColWidth(ordersSheet, "E", "I", 16)
	return nil
}

func dateOrBlank(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
