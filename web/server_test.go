// ABOUTME: Tests for the HTTP API
// ABOUTME: Exercises routes through the router with role headers
package web

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victor-4502/naova-mvp-sub002/app"
	"github.com/victor-4502/naova-mvp-sub002/config"
	"github.com/victor-4502/naova-mvp-sub002/db/dbtest"
	"github.com/victor-4502/naova-mvp-sub002/models"
	"github.com/victor-4502/naova-mvp-sub002/notify"
)

type testEnv struct {
	db     *sql.DB
	app    *app.App
	server *Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	database := dbtest.Open(t)
	a, err := app.New(database, &config.Config{AutoSendRFQ: true}, logger, &notify.Recorder{})
	require.NoError(t, err)
	return &testEnv{db: database, app: a, server: NewServer(a)}
}

func (e *testEnv) do(t *testing.T, method, path, role, clientID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if role != "" {
		req.Header.Set(HeaderRole, role)
	}
	if clientID != "" {
		req.Header.Set(HeaderClientID, clientID)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func TestTrackingEndpoints(t *testing.T) {
	env := newTestEnv(t)
	po := dbtest.Order(t, env.db, "acme", models.PODelivered)
	base := "/api/orders/" + po.ID.String()

	rec := env.do(t, http.MethodGet, base+"/tracking", "client", "acme", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var info struct {
		CurrentStatus string `json:"current_status"`
		NextStatus    string `json:"next_status"`
		CanAdvance    bool   `json:"can_advance"`
		Timeline      []any  `json:"timeline"`
	}
	decodeBody(t, rec, &info)
	assert.Equal(t, "delivered", info.CurrentStatus)
	assert.Equal(t, "closed", info.NextStatus)
	assert.True(t, info.CanAdvance)
	assert.Len(t, info.Timeline, 7)

	// another client's order looks exactly like a missing one
	rec = env.do(t, http.MethodGet, base+"/tracking", "client", "globex", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var foreign APIError
	decodeBody(t, rec, &foreign)

	rec = env.do(t, http.MethodGet, "/api/orders/"+uuid.NewString()+"/tracking", "client", "globex", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var missing APIError
	decodeBody(t, rec, &missing)
	assert.Equal(t, missing.Code, foreign.Code)

	rec = env.do(t, http.MethodPost, base+"/advance", "operator", "", `{"metadata":{"signed_by":"dock 4"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var adv struct {
		Advanced bool `json:"advanced"`
		Tracking struct {
			CurrentStatus string `json:"current_status"`
			CanAdvance    bool   `json:"can_advance"`
		} `json:"tracking"`
	}
	decodeBody(t, rec, &adv)
	assert.True(t, adv.Advanced)
	assert.Equal(t, "closed", adv.Tracking.CurrentStatus)
	assert.False(t, adv.Tracking.CanAdvance)

	// closed has no successor: a no-op, not an error
	rec = env.do(t, http.MethodPost, base+"/advance", "operator", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &adv)
	assert.False(t, adv.Advanced)

	rec = env.do(t, http.MethodPost, base+"/cancel", "admin", "", `{"reason":"late"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	env := newTestEnv(t)
	po := dbtest.Order(t, env.db, "acme", models.POCreated)

	tests := []struct {
		name   string
		method string
		path   string
		role   string
		client string
		body   string
		want   int
		code   string
	}{
		{"no role", http.MethodGet, "/api/pipeline", "", "", "", http.StatusUnauthorized, "unauthorized"},
		{"unknown role", http.MethodGet, "/api/pipeline", "intern", "", "", http.StatusUnauthorized, "unauthorized"},
		{"client without id", http.MethodGet, "/api/pipeline", "client", "", "", http.StatusUnauthorized, "unauthorized"},
		{"bad id", http.MethodGet, "/api/orders/PO-7/tracking", "admin", "", "", http.StatusBadRequest, "invalid_argument"},
		{"missing order", http.MethodGet, "/api/orders/" + uuid.NewString() + "/tracking", "admin", "", "", http.StatusNotFound, "not_found"},
		{"operator cancel", http.MethodPost, "/api/orders/" + po.ID.String() + "/cancel", "operator", "", "", http.StatusForbidden, "forbidden"},
		{"client advance", http.MethodPost, "/api/orders/" + po.ID.String() + "/advance", "client", "acme", "", http.StatusForbidden, "forbidden"},
		{"bad json", http.MethodPost, "/api/orders/" + po.ID.String() + "/advance", "operator", "", "{", http.StatusBadRequest, "invalid_argument"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.role, tt.client, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			var apiErr APIError
			decodeBody(t, rec, &apiErr)
			assert.Equal(t, tt.code, apiErr.Code)
		})
	}
}

func TestRequestEndpoints(t *testing.T) {
	env := newTestEnv(t)
	dbtest.Supplier(t, env.db, "Sillas MX", "furniture")

	rec := env.do(t, http.MethodPost, "/api/requests", "client", "acme", `{"urgency":"soon"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var apiErr APIError
	decodeBody(t, rec, &apiErr)
	assert.Equal(t, "required", apiErr.Fields["content"])
	assert.Equal(t, "oneof", apiErr.Fields["urgency"])

	rec = env.do(t, http.MethodPost, "/api/requests", "client", "acme", `{"content":"Need 20 chairs delivered to Monterrey plant"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Request
	decodeBody(t, rec, &created)
	assert.Equal(t, "acme", created.ClientID)
	assert.Equal(t, models.StageNew, created.Stage)

	path := fmt.Sprintf("/api/requests/%s", created.ID)
	rec = env.do(t, http.MethodPost, path+"/process", "client", "acme", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, path+"/process", "operator", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Action string `json:"action"`
		Stage  string `json:"stage"`
	}
	decodeBody(t, rec, &res)
	assert.Equal(t, "normalized", res.Action)
	assert.Equal(t, "sourcing", res.Stage)

	rec = env.do(t, http.MethodPost, path+"/rfqs", "operator", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeBody(t, rec, &res)
	assert.Equal(t, "rfq_sent", res.Action)

	rec = env.do(t, http.MethodPost, path+"/stage", "operator", "", `{"stage":"archived"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, path+"/stage", "operator", "", `{"stage":"lost"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/pipeline", "client", "acme", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var board struct {
		Total   int `json:"total"`
		Columns []struct {
			Stage    string `json:"stage"`
			Requests []any  `json:"requests"`
		} `json:"columns"`
	}
	decodeBody(t, rec, &board)
	assert.Equal(t, 1, board.Total)
	require.Len(t, board.Columns, 8)
	assert.Equal(t, "lost", board.Columns[7].Stage)
	assert.Len(t, board.Columns[7].Requests, 1)

	rec = env.do(t, http.MethodGet, "/api/pipeline?client_id=globex", "client", "acme", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/automation/run", "operator", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var report struct {
		Processed int `json:"processed"`
	}
	decodeBody(t, rec, &report)
	assert.Equal(t, 0, report.Processed, "lost requests are skipped")
}

func TestQuoteEndpoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	s := dbtest.Supplier(t, env.db, "Sillas MX", "furniture")
	req := dbtest.Request(t, env.db, "acme", "Need 10 chairs delivered to Monterrey")
	require.NoError(t, env.app.Requests.UpdateStatus(ctx, req.ID, models.RequestRFQSent, models.StageQuoting))

	payload, err := json.Marshal(map[string]any{
		"supplier_id":   s.ID.String(),
		"items":         []map[string]any{{"description": "Office chair", "quantity": 10, "unit_price": 1500}},
		"subtotal":      15000,
		"total":         15000,
		"currency":      "USD",
		"delivery_days": 4,
	})
	require.NoError(t, err)

	path := "/api/requests/" + req.ID.String() + "/quotes"
	rec := env.do(t, http.MethodPost, path, "operator", "", `{"supplier_id":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, path, "operator", "", string(payload))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var q models.Quote
	decodeBody(t, rec, &q)

	rec = env.do(t, http.MethodGet, path+"/compare", "client", "acme", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cmp struct {
		Ranking []struct {
			Rank  int          `json:"rank"`
			Quote models.Quote `json:"quote"`
		} `json:"ranking"`
	}
	decodeBody(t, rec, &cmp)
	require.Len(t, cmp.Ranking, 1)
	assert.Equal(t, q.ID, cmp.Ranking[0].Quote.ID)

	accept := "/api/quotes/" + q.ID.String() + "/accept"
	rec = env.do(t, http.MethodPost, accept, "client", "globex", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, accept, "client", "acme", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var po models.PurchaseOrder
	decodeBody(t, rec, &po)
	assert.Equal(t, models.POApprovedByClient, po.Status)

	rec = env.do(t, http.MethodGet, "/api/orders/"+po.ID.String()+"/tracking", "client", "acme", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsAndHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", "", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	env.do(t, http.MethodGet, "/api/pipeline", "admin", "", "")

	rec = env.do(t, http.MethodGet, "/metrics", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "naova_api_requests_total")
	assert.True(t, bytes.Contains(rec.Body.Bytes(), []byte(`route="/api/pipeline"`)))
}
