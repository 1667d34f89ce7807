// ABOUTME: Tests for the XLSX workbook export
package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/victor-4502/naova-mvp-sub002/db"
	"github.com/victor-4502/naova-mvp-sub002/db/dbtest"
	"github.com/victor-4502/naova-mvp-sub002/models"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestWorkbookXLSX(t *testing.T) {
	database := dbtest.Open(t)
	dbtest.Request(t, database, "acme", "Need 20 chairs")
	dbtest.Request(t, database, "globex", "Need 4 valves")
	dbtest.Order(t, database, "acme", models.PODelivered)

	svc := NewService(db.NewRequestRepository(database), db.NewOrderRepository(database), quietLogger())

	client := "acme"
	out, err := svc.WorkbookXLSX(context.Background(), &client)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Pipeline", "Orders"}, f.GetSheetList())

	rows, err := f.GetRows("Pipeline")
	require.NoError(t, err)
	// header, the chair request and the order fixture's request
	require.Len(t, rows, 3)
	assert.Equal(t, "Request ID", rows[0][0])
	for _, row := range rows[1:] {
		assert.Equal(t, "acme", row[1])
	}

	rows, err = f.GetRows("Orders")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "delivered", rows[1][2])
	assert.Equal(t, "$100.00", rows[1][4])
	assert.NotEmpty(t, rows[1][7], "delivered date is filled")
}

type failingOrders struct{}

func (failingOrders) List(context.Context, db.OrderFilter) ([]*models.PurchaseOrder, error) {
	return nil, errors.New("disk I/O error")
}

func TestWorkbookXLSXStoreFailure(t *testing.T) {
	database := dbtest.Open(t)
	svc := NewService(db.NewRequestRepository(database), failingOrders{}, quietLogger())

	_, err := svc.WorkbookXLSX(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
