// ABOUTME: Test helpers that open an in-memory database and seed procurement records
// ABOUTME: Shared by service, handler and web tests
package dbtest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/victor-4502/naova-mvp-sub002/db"
	"github.com/victor-4502/naova-mvp-sub002/models"
)

// Open returns an in-memory database closed when the test ends.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func Request(t *testing.T, database *sql.DB, clientID, content string) *models.Request {
	t.Helper()

	req := &models.Request{Source: models.SourceWeb, ClientID: clientID, RawContent: content}
	require.NoError(t, db.NewRequestRepository(database).Create(context.Background(), req))
	return req
}

func Supplier(t *testing.T, database *sql.DB, name string, categories ...string) *models.Supplier {
	t.Helper()

	s := &models.Supplier{Name: name, Email: name + "@example.com", Categories: categories, Active: true}
	require.NoError(t, db.NewSupplierRepository(database).Create(context.Background(), s))
	return s
}

// Quote stores a single-line quote whose total equals its subtotal.
func Quote(t *testing.T, database *sql.DB, requestID, supplierID uuid.UUID, total int64, deliveryDays int) *models.Quote {
	t.Helper()

	q := &models.Quote{
		RequestID:    requestID,
		SupplierID:   supplierID,
		Items:        []models.QuoteItem{{Description: "line", Quantity: 1, UnitPrice: total}},
		Subtotal:     total,
		Total:        total,
		Currency:     "USD",
		DeliveryDays: deliveryDays,
	}
	require.NoError(t, db.NewQuoteRepository(database).Create(context.Background(), q))
	return q
}

// Order creates a request, supplier, quote and order for clientID, then walks
// the order forward until it reaches status.
func Order(t *testing.T, database *sql.DB, clientID string, status models.POStatus) *models.PurchaseOrder {
	t.Helper()
	ctx := context.Background()

	req := Request(t, database, clientID, "order fixture")
	s := Supplier(t, database, "supplier-"+req.ID.String()[:8], "general")
	q := Quote(t, database, req.ID, s.ID, 10000, 5)

	orders := db.NewOrderRepository(database)
	po := &models.PurchaseOrder{
		RequestID:  req.ID,
		QuoteID:    q.ID,
		SupplierID: s.ID,
		ClientID:   clientID,
		Total:      q.Total,
		Currency:   q.Currency,
	}
	require.NoError(t, orders.Create(ctx, po, "Quote accepted"))

	if status == models.POCancelled {
		_, err := orders.UpdateStatus(ctx, po.ID, models.POCancelled, "fixture", nil)
		require.NoError(t, err)
	} else {
		for po.Status != status {
			next, ok := models.NextPOStatus(po.Status)
			require.True(t, ok, "status %s is not reachable", status)
			_, err := orders.UpdateStatus(ctx, po.ID, next, "fixture", nil)
			require.NoError(t, err)
			po.Status = next
		}
	}

	got, err := orders.Get(ctx, po.ID)
	require.NoError(t, err)
	return got
}
