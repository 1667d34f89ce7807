// ABOUTME: Tests for RFQ dispatch to matching suppliers
package rfq

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victor-4502/naova-mvp-sub002/apperr"
	"github.com/victor-4502/naova-mvp-sub002/db"
	"github.com/victor-4502/naova-mvp-sub002/db/dbtest"
	"github.com/victor-4502/naova-mvp-sub002/models"
	"github.com/victor-4502/naova-mvp-sub002/notify"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestDispatchSendsToMatchingSuppliers(t *testing.T) {
	database := dbtest.Open(t)
	ctx := context.Background()

	dbtest.Supplier(t, database, "Sillas MX", "furniture")
	dbtest.Supplier(t, database, "Muebles Norte", "furniture", "office_supplies")
	dbtest.Supplier(t, database, "Chips Inc", "electronics")

	req := dbtest.Request(t, database, "acme", "need 20 chairs")
	req.Category = "furniture"

	rec := &notify.Recorder{Err: errors.New("mail relay down")}
	rfqs := db.NewRFQRepository(database)
	d := NewDispatcher(db.NewSupplierRepository(database), rfqs, rec, quietLogger())

	batch, err := d.Dispatch(ctx, req)
	require.NoError(t, err)
	assert.NotEmpty(t, batch.ID)
	require.Len(t, batch.RFQs, 2)

	stored, err := rfqs.ListByRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	for _, r := range stored {
		assert.Equal(t, batch.ID, r.BatchID)
		assert.Equal(t, models.RFQStatusSent, r.Status)
	}

	notices := rec.RFQNotices()
	require.Len(t, notices, 2, "notification failures must not stop the batch")
	assert.Equal(t, batch.ID, notices[0].BatchID)
}

func TestDispatchWithoutSuppliers(t *testing.T) {
	database := dbtest.Open(t)
	req := dbtest.Request(t, database, "acme", "need cranes")
	req.Category = "industrial"

	rfqs := db.NewRFQRepository(database)
	d := NewDispatcher(db.NewSupplierRepository(database), rfqs, nil, quietLogger())

	batch, err := d.Dispatch(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, batch.RFQs)

	stored, err := rfqs.ListByRequest(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestDispatchRequiresCategory(t *testing.T) {
	d := NewDispatcher(nil, nil, nil, quietLogger())

	_, err := d.Dispatch(context.Background(), &models.Request{ID: uuid.New()})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

type brokenFinder struct{}

func (brokenFinder) FindByCategory(context.Context, string) ([]*models.Supplier, error) {
	return nil, errors.New("db locked")
}

func TestDispatchPropagatesLookupErrors(t *testing.T) {
	d := NewDispatcher(brokenFinder{}, nil, nil, quietLogger())

	_, err := d.Dispatch(context.Background(), &models.Request{ID: uuid.New(), Category: "furniture"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db locked")
}
