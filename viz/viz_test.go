// ABOUTME: Tests for the text board, tracking view and order graph
package viz

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-graphviz"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victor-4502/naova-mvp-sub002/models"
	"github.com/victor-4502/naova-mvp-sub002/pipeline"
	"github.com/victor-4502/naova-mvp-sub002/tracking"
)

func testBoard() *pipeline.Board {
	client := "acme"
	board := &pipeline.Board{ClientID: &client}
	for _, stage := range models.PipelineStages() {
		board.Columns = append(board.Columns, pipeline.Column{Stage: stage, Requests: []*models.Request{}})
	}
	for i := 0; i < 3; i++ {
		board.Columns[0].Requests = append(board.Columns[0].Requests, &models.Request{
			ID:         uuid.New(),
			ClientID:   client,
			Status:     models.RequestNew,
			Stage:      models.StageNew,
			RawContent: strings.Repeat("chairs ", 20),
		})
	}
	board.Columns[3].Requests = append(board.Columns[3].Requests, &models.Request{
		ID: uuid.New(), ClientID: client, Status: models.RequestRFQSent, Stage: models.StageQuoting, RawContent: "valves",
	})
	board.Total = 4
	return board
}

func TestRenderBoard(t *testing.T) {
	out := RenderBoard(testBoard(), 2)

	assert.Contains(t, out, "PIPELINE · acme")
	for _, stage := range models.PipelineStages() {
		assert.Contains(t, out, string(stage))
	}
	assert.Contains(t, out, "Total: 4 request(s)")
	assert.Contains(t, out, "… 1 more")
	assert.Contains(t, out, "valves")
	assert.Contains(t, out, "…", "long content is truncated")
}

func TestRenderBoardCountsOnly(t *testing.T) {
	out := RenderBoard(testBoard(), 0)
	assert.NotContains(t, out, "valves")
	assert.Contains(t, out, "██████████", "largest stage gets a full bar")
}

func trackingInfo(current models.POStatus, reached ...models.POStatus) *tracking.Info {
	info := &tracking.Info{OrderID: uuid.New(), ClientID: "acme", CurrentStatus: current, PaymentStatus: models.PaymentPending}
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, s := range reached {
		info.Timeline = append(info.Timeline, models.POTimelineEvent{Status: s, Description: "step", CreatedAt: at.Add(time.Duration(i) * time.Hour)})
	}
	return info
}

func TestRenderTracking(t *testing.T) {
	info := trackingInfo(models.POPaymentPending, models.POApprovedByClient, models.POCreated, models.POPaymentPending)
	out := RenderTracking(info)

	assert.Contains(t, out, "✓ approved_by_client")
	assert.Contains(t, out, "▶ payment_pending")
	assert.Contains(t, out, "· closed")
	assert.NotContains(t, out, "✗")

	cancelled := trackingInfo(models.POCancelled, models.POApprovedByClient, models.POCancelled)
	assert.Contains(t, RenderTracking(cancelled), "✗ cancelled")
}

func TestOrderGraph(t *testing.T) {
	info := trackingInfo(models.POPaymentReceived,
		models.POApprovedByClient, models.POCreated, models.POPaymentPending, models.POPaymentReceived)

	out, err := OrderGraph(context.Background(), info, graphviz.XDOT)
	require.NoError(t, err)
	dot := string(out)
	assert.Contains(t, dot, "supplier_confirmed")
	assert.Contains(t, dot, "gold")
	assert.NotContains(t, dot, "octagon")

	cancelled := trackingInfo(models.POCancelled, models.POApprovedByClient, models.POCreated, models.POCancelled)
	out, err = OrderGraph(context.Background(), cancelled, graphviz.XDOT)
	require.NoError(t, err)
	assert.Contains(t, string(out), "octagon")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, graphviz.XDOT, f)

	f, err = ParseFormat("SVG")
	require.NoError(t, err)
	assert.Equal(t, graphviz.SVG, f)

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}
