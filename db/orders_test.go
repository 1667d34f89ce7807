// ABOUTME: Tests for suppliers, RFQs, quotes and purchase orders
// ABOUTME: Covers supersede semantics, timeline ordering and not-found handling
package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victor-4502/naova-mvp-sub002/models"
)

type fixture struct {
	db        *sql.DB
	requests  *RequestRepository
	suppliers *SupplierRepository
	rfqs      *RFQRepository
	quotes    *QuoteRepository
	orders    *OrderRepository
}

func newFixture(t *testing.T) *fixture {
	db := setupTestDB(t)
	return &fixture{
		db:        db,
		requests:  NewRequestRepository(db),
		suppliers: NewSupplierRepository(db),
		rfqs:      NewRFQRepository(db),
		quotes:    NewQuoteRepository(db),
		orders:    NewOrderRepository(db),
	}
}

func (f *fixture) supplier(t *testing.T, name string, categories ...string) *models.Supplier {
	t.Helper()
	s := &models.Supplier{Name: name, Email: name + "@example.com", Categories: categories, Active: true}
	require.NoError(t, f.suppliers.Create(context.Background(), s))
	return s
}

func (f *fixture) quote(t *testing.T, requestID, supplierID uuid.UUID, total int64) *models.Quote {
	t.Helper()
	q := &models.Quote{
		RequestID:  requestID,
		SupplierID: supplierID,
		Items:      []models.QuoteItem{{Description: "item", Quantity: 1, UnitPrice: total}},
		Subtotal:   total,
		Total:      total,
		Currency:   "USD",
	}
	require.NoError(t, f.quotes.Create(context.Background(), q))
	return q
}

func TestSupplierRepositoryFindByCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.supplier(t, "Beta Office", "Furniture", "office")
	f.supplier(t, "Alpha Tech", "electronics")
	inactive := &models.Supplier{Name: "Gamma", Categories: []string{"furniture"}}
	require.NoError(t, f.suppliers.Create(ctx, inactive))

	all, err := f.suppliers.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Alpha Tech", all[0].Name)

	matches, err := f.suppliers.FindByCategory(ctx, " FURNITURE ")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Beta Office", matches[0].Name)
	assert.Equal(t, []string{"furniture", "office"}, matches[0].Categories)

	_, err = f.suppliers.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.suppliers.Create(ctx, &models.Supplier{Name: "  "}), ErrInvalidRequest)
}

func TestRFQRepositoryBatchAndRespond(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := createTestRequest(t, f.requests, "acme", "need desks")
	s1 := f.supplier(t, "One", "furniture")
	s2 := f.supplier(t, "Two", "furniture")

	batch := []*models.RFQ{
		{RequestID: req.ID, SupplierID: s1.ID, BatchID: "batch-1"},
		{RequestID: req.ID, SupplierID: s2.ID, BatchID: "batch-1"},
	}
	require.NoError(t, f.rfqs.CreateBatch(ctx, batch))
	require.NoError(t, f.rfqs.CreateBatch(ctx, nil))

	require.NoError(t, markResponded(ctx, f.db, req.ID, s1.ID))
	require.NoError(t, markResponded(ctx, f.db, req.ID, uuid.New()))

	rfqs, err := f.rfqs.ListByRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, rfqs, 2)

	statuses := map[uuid.UUID]string{}
	for _, r := range rfqs {
		assert.Equal(t, "batch-1", r.BatchID)
		statuses[r.SupplierID] = r.Status
	}
	assert.Equal(t, models.RFQStatusResponded, statuses[s1.ID])
	assert.Equal(t, models.RFQStatusSent, statuses[s2.ID])
}

func TestQuoteRepositorySupersede(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := createTestRequest(t, f.requests, "acme", "need desks")
	s1 := f.supplier(t, "One", "furniture")
	s2 := f.supplier(t, "Two", "furniture")

	first := f.quote(t, req.ID, s1.ID, 10000)
	other := f.quote(t, req.ID, s2.ID, 12000)
	revised := f.quote(t, req.ID, s1.ID, 9000)

	active, err := f.quotes.ListActiveByRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, other.ID, active[0].ID)
	assert.Equal(t, revised.ID, active[1].ID)
	assert.Len(t, active[1].Items, 1)

	old, err := f.quotes.Get(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, old.SupersededBy)
	assert.Equal(t, revised.ID, *old.SupersededBy)

	_, err = f.quotes.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuoteRepositoryValidUntilRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := createTestRequest(t, f.requests, "acme", "need desks")
	s := f.supplier(t, "One", "furniture")

	until := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	q := &models.Quote{RequestID: req.ID, SupplierID: s.ID, Total: 500, Subtotal: 500, Currency: "USD", ValidUntil: &until, DeliveryDays: 3, Terms: "net 30"}
	require.NoError(t, f.quotes.Create(ctx, q))

	got, err := f.quotes.Get(ctx, q.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ValidUntil)
	assert.True(t, until.Equal(*got.ValidUntil))
	assert.Equal(t, 3, got.DeliveryDays)
	assert.Equal(t, "net 30", got.Terms)
}

func createTestOrder(t *testing.T, f *fixture) *models.PurchaseOrder {
	t.Helper()
	req := createTestRequest(t, f.requests, "acme", "need desks")
	s := f.supplier(t, "One-"+req.ID.String()[:8], "furniture")
	q := f.quote(t, req.ID, s.ID, 25000)

	po := &models.PurchaseOrder{
		RequestID:  req.ID,
		QuoteID:    q.ID,
		SupplierID: s.ID,
		ClientID:   req.ClientID,
		Total:      q.Total,
		Currency:   q.Currency,
	}
	require.NoError(t, f.orders.Create(context.Background(), po, "Quote accepted"))
	return po
}

func TestOrderRepositoryCreateWritesInitialEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	po := createTestOrder(t, f)
	assert.Equal(t, models.POApprovedByClient, po.Status)
	assert.Equal(t, models.PaymentPending, po.PaymentStatus)
	require.Len(t, po.Timeline, 1)

	got, err := f.orders.Get(ctx, po.ID)
	require.NoError(t, err)
	require.Len(t, got.Timeline, 1)
	assert.Equal(t, models.POApprovedByClient, got.Timeline[0].Status)
	assert.Equal(t, "Quote accepted", got.Timeline[0].Description)
	assert.Equal(t, int64(25000), got.Total)

	byReq, err := f.orders.GetByRequest(ctx, po.RequestID)
	require.NoError(t, err)
	assert.Equal(t, po.ID, byReq.ID)

	dup := *po
	dup.ID = uuid.Nil
	assert.Error(t, f.orders.Create(ctx, &dup, ""), "one order per request")
}

func TestOrderRepositoryUpdateStatusAppendsTimeline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po := createTestOrder(t, f)

	for _, next := range []models.POStatus{models.POCreated, models.POPaymentPending, models.POPaymentReceived, models.POSupplierConfirmed, models.POInTransit, models.PODelivered} {
		event, err := f.orders.UpdateStatus(ctx, po.ID, next, "advanced", models.Metadata{"by": "ops"})
		require.NoError(t, err)
		assert.Equal(t, next, event.Status)
		assert.NotEmpty(t, event.ID)
	}

	got, err := f.orders.Get(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PODelivered, got.Status)
	assert.NotNil(t, got.DeliveredAt)
	require.Len(t, got.Timeline, 7)
	for i, e := range got.Timeline {
		assert.Equal(t, models.POStatusChain()[i], e.Status)
	}
	assert.Nil(t, got.Timeline[0].Metadata)
	assert.Equal(t, "ops", got.Timeline[1].Metadata["by"])

	_, err = f.orders.UpdateStatus(ctx, uuid.New(), models.POCancelled, "", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	timeline, err := f.orders.Timeline(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, timeline)
}

func TestOrderRepositoryListAndPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := createTestOrder(t, f)
	second := createTestOrder(t, f)
	_, err := f.orders.UpdateStatus(ctx, second.ID, models.POCancelled, "client withdrew", nil)
	require.NoError(t, err)

	all, err := f.orders.List(ctx, OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	cancelled, err := f.orders.List(ctx, OrderFilter{Status: models.POCancelled})
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, second.ID, cancelled[0].ID)

	other := "globex"
	none, err := f.orders.List(ctx, OrderFilter{ClientID: &other})
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, f.orders.UpdatePaymentStatus(ctx, first.ID, models.PaymentPaid))
	got, err := f.orders.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, models.POApprovedByClient, got.Status, "payment status is independent")

	assert.ErrorIs(t, f.orders.UpdatePaymentStatus(ctx, uuid.New(), models.PaymentPaid), ErrNotFound)
}

func TestIntakeLogRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := NewIntakeLogRepository(f.db)

	seen, err := repo.Seen(ctx, "gmail", "msg-1")
	require.NoError(t, err)
	assert.False(t, seen)

	id := uuid.New()
	require.NoError(t, repo.Record(ctx, "gmail", "msg-1", id))
	require.NoError(t, repo.Record(ctx, "gmail", "msg-1", id))

	seen, err = repo.Seen(ctx, "gmail", "msg-1")
	require.NoError(t, err)
	assert.True(t, seen)
}

// failRequestUpdates makes every later UPDATE on requests abort.
func failRequestUpdates(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(`CREATE TRIGGER fail_request_update BEFORE UPDATE ON requests
		BEGIN SELECT RAISE(ABORT, 'disk full'); END`)
	require.NoError(t, err)
}

func TestQuoteRepositoryRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := createTestRequest(t, f.requests, "acme", "need desks")
	require.NoError(t, f.requests.UpdateStatus(ctx, req.ID, models.RequestRFQSent, models.StageQuoting))
	s := f.supplier(t, "One", "furniture")
	require.NoError(t, f.rfqs.CreateBatch(ctx, []*models.RFQ{{RequestID: req.ID, SupplierID: s.ID, BatchID: "b1"}}))

	q := &models.Quote{RequestID: req.ID, SupplierID: s.ID, Subtotal: 500, Total: 500, Currency: "USD"}
	require.NoError(t, f.quotes.Record(ctx, q))

	got, err := f.requests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestQuotesReceived, got.Status)

	rfqs, err := f.rfqs.ListByRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RFQStatusResponded, rfqs[0].Status)
}

func TestQuoteRepositoryRecordRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := createTestRequest(t, f.requests, "acme", "need desks")
	require.NoError(t, f.requests.UpdateStatus(ctx, req.ID, models.RequestRFQSent, models.StageQuoting))
	s := f.supplier(t, "One", "furniture")
	require.NoError(t, f.rfqs.CreateBatch(ctx, []*models.RFQ{{RequestID: req.ID, SupplierID: s.ID, BatchID: "b1"}}))
	first := f.quote(t, req.ID, s.ID, 800)

	failRequestUpdates(t, f.db)

	revised := &models.Quote{RequestID: req.ID, SupplierID: s.ID, Subtotal: 700, Total: 700, Currency: "USD"}
	require.Error(t, f.quotes.Record(ctx, revised))

	active, err := f.quotes.ListActiveByRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, first.ID, active[0].ID)

	_, err = f.quotes.Get(ctx, revised.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	rfqs, err := f.rfqs.ListByRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RFQStatusSent, rfqs[0].Status)

	got, err := f.requests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestRFQSent, got.Status)
}

func TestOrderRepositoryPlace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := createTestRequest(t, f.requests, "acme", "need desks")
	s := f.supplier(t, "One", "furniture")
	q := f.quote(t, req.ID, s.ID, 1000)

	po := &models.PurchaseOrder{RequestID: req.ID, QuoteID: q.ID, SupplierID: s.ID, ClientID: "acme", Total: 1000, Currency: "USD"}
	require.NoError(t, f.orders.Place(ctx, po, "accepted"))

	got, err := f.requests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestOrdered, got.Status)
	assert.Equal(t, models.StageOrdered, got.Stage)

	stored, err := f.orders.GetByRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, po.ID, stored.ID)
	assert.Len(t, stored.Timeline, 1)
}

func TestOrderRepositoryPlaceRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := createTestRequest(t, f.requests, "acme", "need desks")
	s := f.supplier(t, "One", "furniture")
	q := f.quote(t, req.ID, s.ID, 1000)

	failRequestUpdates(t, f.db)

	po := &models.PurchaseOrder{RequestID: req.ID, QuoteID: q.ID, SupplierID: s.ID, ClientID: "acme", Total: 1000, Currency: "USD"}
	require.Error(t, f.orders.Place(ctx, po, "accepted"))

	_, err := f.orders.GetByRequest(ctx, req.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var events int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM po_timeline_events WHERE order_id = ?`, po.ID.String()).Scan(&events))
	assert.Zero(t, events)
}
