// ABOUTME: Tests for the procurement MCP tool handlers
// ABOUTME: Runs each tool against an in-memory database with different caller roles
package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victor-4502/naova-mvp-sub002/app"
	"github.com/victor-4502/naova-mvp-sub002/apperr"
	"github.com/victor-4502/naova-mvp-sub002/auth"
	"github.com/victor-4502/naova-mvp-sub002/config"
	"github.com/victor-4502/naova-mvp-sub002/db/dbtest"
	"github.com/victor-4502/naova-mvp-sub002/models"
	"github.com/victor-4502/naova-mvp-sub002/notify"
)

var (
	admin    = auth.Identity{Role: auth.RoleAdmin}
	operator = auth.Identity{Role: auth.RoleOperator}
	acme     = auth.Identity{Role: auth.RoleClient, ClientID: "acme"}
	globex   = auth.Identity{Role: auth.RoleClient, ClientID: "globex"}
)

type testEnv struct {
	db  *sql.DB
	app *app.App
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	database := dbtest.Open(t)
	a, err := app.New(database, &config.Config{AutoSendRFQ: true}, logger, &notify.Recorder{})
	require.NoError(t, err)
	return &testEnv{db: database, app: a}
}

func (e *testEnv) as(id auth.Identity) *Handlers {
	return New(e.app, id)
}

func TestTrackingTools(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	po := dbtest.Order(t, env.db, "acme", models.POPaymentReceived)

	_, info, err := env.as(acme).GetTrackingInfo(ctx, nil, OrderInput{OrderID: po.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "payment_received", info.CurrentStatus)
	require.NotNil(t, info.NextStatus)
	assert.Equal(t, "supplier_confirmed", *info.NextStatus)
	assert.True(t, info.CanAdvance)
	assert.Len(t, info.Timeline, 4)

	_, _, err = env.as(globex).GetTrackingInfo(ctx, nil, OrderInput{OrderID: po.ID.String()})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, _, err = env.as(acme).AdvanceOrderStatus(ctx, nil, AdvanceOrderInput{OrderID: po.ID.String()})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, adv, err := env.as(operator).AdvanceOrderStatus(ctx, nil, AdvanceOrderInput{
		OrderID:  po.ID.String(),
		Metadata: map[string]any{"confirmation": "SUP-991"},
	})
	require.NoError(t, err)
	assert.True(t, adv.Advanced)
	assert.Equal(t, "supplier_confirmed", adv.Status)

	_, _, err = env.as(operator).CancelOrder(ctx, nil, CancelOrderInput{OrderID: po.ID.String()})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, cancelled, err := env.as(admin).CancelOrder(ctx, nil, CancelOrderInput{OrderID: po.ID.String(), Reason: "client withdrew"})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)

	_, adv, err = env.as(operator).AdvanceOrderStatus(ctx, nil, AdvanceOrderInput{OrderID: po.ID.String()})
	require.NoError(t, err)
	assert.False(t, adv.Advanced)
	assert.Equal(t, "cancelled", adv.Status)

	_, _, err = env.as(admin).CancelOrder(ctx, nil, CancelOrderInput{OrderID: po.ID.String()})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestTrackingToolsRejectBadIDs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.as(operator).GetTrackingInfo(ctx, nil, OrderInput{OrderID: "PO-1"})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, _, err = env.as(operator).GetTrackingInfo(ctx, nil, OrderInput{})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, _, err = env.as(operator).GetTrackingInfo(ctx, nil, OrderInput{OrderID: uuid.NewString()})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, _, err = env.as(auth.Identity{}).GetTrackingInfo(ctx, nil, OrderInput{OrderID: uuid.NewString()})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestPipelineTools(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, created, err := env.as(acme).CreateRequest(ctx, nil, CreateRequestInput{Content: "Need 20 chairs delivered to Monterrey"})
	require.NoError(t, err)
	assert.Equal(t, "acme", created.ClientID)
	assert.Equal(t, "new", created.Stage)
	assert.Equal(t, "web", created.Source)

	_, _, err = env.as(acme).CreateRequest(ctx, nil, CreateRequestInput{Content: "x", ClientID: "globex"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, _, err = env.as(operator).CreateRequest(ctx, nil, CreateRequestInput{Content: "Need 4 valves"})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, other, err := env.as(operator).CreateRequest(ctx, nil, CreateRequestInput{Content: "Need 4 valves", ClientID: "globex", Source: "email"})
	require.NoError(t, err)
	assert.Equal(t, "email", other.Source)

	_, board, err := env.as(acme).GetPipeline(ctx, nil, GetPipelineInput{})
	require.NoError(t, err)
	assert.Equal(t, "acme", board.ClientID)
	assert.Equal(t, 1, board.Total)
	require.Len(t, board.Columns, 8)
	assert.Equal(t, "new", board.Columns[0].Stage)
	assert.Equal(t, 1, board.Columns[0].Count)

	_, _, err = env.as(acme).GetPipeline(ctx, nil, GetPipelineInput{ClientID: "globex"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, board, err = env.as(operator).GetPipeline(ctx, nil, GetPipelineInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, board.Total)

	_, _, err = env.as(acme).MoveRequest(ctx, nil, MoveRequestInput{RequestID: created.ID, Stage: "lost"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, _, err = env.as(operator).MoveRequest(ctx, nil, MoveRequestInput{RequestID: created.ID, Stage: "archived"})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, moved, err := env.as(operator).MoveRequest(ctx, nil, MoveRequestInput{RequestID: created.ID, Stage: "quoting"})
	require.NoError(t, err)
	assert.Equal(t, "quoting", moved.Stage)
}

func TestAutomationTools(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dbtest.Supplier(t, env.db, "Sillas MX", "furniture")
	req := dbtest.Request(t, env.db, "acme", "Need 20 chairs delivered to Monterrey plant")
	dbtest.Request(t, env.db, "acme", "we need something")

	_, _, err := env.as(acme).ProcessRequest(ctx, nil, RequestInput{RequestID: req.ID.String()})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, res, err := env.as(operator).ProcessRequest(ctx, nil, RequestInput{RequestID: req.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "normalized", res.Action)
	assert.Equal(t, "ready_for_rfq", res.Status)

	env.app.Settings.SetAutoSendRFQ(false)
	_, sent, err := env.as(operator).SendRFQ(ctx, nil, RequestInput{RequestID: req.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "rfq_sent", sent.Action)
	assert.Equal(t, "quoting", sent.Stage)

	_, report, err := env.as(admin).ProcessAllPending(ctx, nil, ProcessAllInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Empty(t, report.Failures)
	assert.Len(t, report.Results, 2)
}

func TestQuoteTools(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := dbtest.Supplier(t, env.db, "Sillas MX", "furniture")
	req := dbtest.Request(t, env.db, "acme", "Need 10 chairs delivered to Monterrey")
	require.NoError(t, env.app.Requests.UpdateStatus(ctx, req.ID, models.RequestRFQSent, models.StageQuoting))

	input := ReceiveQuoteInput{
		RequestID:    req.ID.String(),
		SupplierID:   s.ID.String(),
		Items:        []QuoteItemInput{{Description: "Office chair", Quantity: 10, UnitPrice: 1500}},
		Subtotal:     15000,
		Taxes:        2400,
		Total:        17400,
		Currency:     "mxn",
		DeliveryDays: 7,
	}
	_, _, err := env.as(acme).ReceiveQuote(ctx, nil, input)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, q, err := env.as(operator).ReceiveQuote(ctx, nil, input)
	require.NoError(t, err)
	assert.Equal(t, "MXN", q.Currency)
	assert.Equal(t, int64(17400), q.Total)

	bad := input
	bad.Total = 1
	_, _, err = env.as(operator).ReceiveQuote(ctx, nil, bad)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, cmp, err := env.as(acme).CompareQuotes(ctx, nil, RequestInput{RequestID: req.ID.String()})
	require.NoError(t, err)
	require.Len(t, cmp.Ranking, 1)
	assert.True(t, cmp.Ranking[0].Best)
	assert.Equal(t, q.ID, cmp.Ranking[0].Quote.ID)

	_, _, err = env.as(globex).CompareQuotes(ctx, nil, RequestInput{RequestID: req.ID.String()})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, _, err = env.as(globex).AcceptQuote(ctx, nil, QuoteInput{QuoteID: q.ID})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, po, err := env.as(acme).AcceptQuote(ctx, nil, QuoteInput{QuoteID: q.ID})
	require.NoError(t, err)
	assert.Equal(t, "approved_by_client", po.Status)
	assert.Equal(t, "acme", po.ClientID)
	assert.NotNil(t, po.ExpectedDelivery)

	_, _, err = env.as(acme).AcceptQuote(ctx, nil, QuoteInput{QuoteID: q.ID})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, _, err = env.as(acme).AcceptQuote(ctx, nil, QuoteInput{QuoteID: uuid.NewString()})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestToolsOverMCP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	po := dbtest.Order(t, env.db, "acme", models.POCreated)

	server := mcp.NewServer(&mcp.Implementation{Name: "naova", Version: "test"}, nil)
	require.NotPanics(t, func() { Register(server, env.as(operator)) })

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	_, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer func() { _ = session.Close() }()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, tools.Tools, 12)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "advance_order_status",
		Arguments: map[string]any{"order_id": po.ID.String()},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out AdvanceOrderOutput
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.True(t, out.Advanced)
	assert.Equal(t, "payment_pending", out.Status)

	res, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "cancel_order",
		Arguments: map[string]any{"order_id": po.ID.String()},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError, "operators cannot cancel")
}
