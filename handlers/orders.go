// ABOUTME: Purchase order tracking MCP tools
// ABOUTME: Implements get_tracking_info, advance_order_status and cancel_order
package handlers

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/victor-4502/naova-mvp-sub002/auth"
	"github.com/victor-4502/naova-mvp-sub002/models"
	"github.com/victor-4502/naova-mvp-sub002/tracking"
)

type OrderInput struct {
	OrderID string `json:"order_id" jsonschema:"Purchase order ID (required)"`
}

type AdvanceOrderInput struct {
	OrderID  string         `json:"order_id" jsonschema:"Purchase order ID (required)"`
	Metadata map[string]any `json:"metadata,omitempty" jsonschema:"Free-form details recorded on the timeline event, e.g. tracking number"`
}

type CancelOrderInput struct {
	OrderID string `json:"order_id" jsonschema:"Purchase order ID (required)"`
	Reason  string `json:"reason,omitempty" jsonschema:"Why the order is cancelled"`
}

type TimelineEventOutput struct {
	ID          string         `json:"id"`
	Status      string         `json:"status"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   string         `json:"created_at"`
}

type TrackingOutput struct {
	OrderID             string                `json:"order_id"`
	ClientID            string                `json:"client_id"`
	CurrentStatus       string                `json:"current_status"`
	NextStatus          *string               `json:"next_status,omitempty"`
	CanAdvance          bool                  `json:"can_advance"`
	PaymentStatus       string                `json:"payment_status"`
	EstimatedCompletion *string               `json:"estimated_completion,omitempty"`
	Timeline            []TimelineEventOutput `json:"timeline"`
}

type AdvanceOrderOutput struct {
	OrderID  string `json:"order_id"`
	Advanced bool   `json:"advanced"`
	Status   string `json:"status"`
}

type CancelOrderOutput struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

func (h *Handlers) GetTrackingInfo(ctx context.Context, _ *mcp.CallToolRequest, input OrderInput) (*mcp.CallToolResult, TrackingOutput, error) {
	if err := h.authorize(ctx, auth.ObjOrders, auth.ActRead); err != nil {
		return nil, TrackingOutput{}, err
	}
	orderID, err := parseID("order_id", input.OrderID)
	if err != nil {
		return nil, TrackingOutput{}, err
	}

	info, err := h.app.Tracking.GetTrackingInfo(ctx, orderID)
	if err != nil {
		return nil, TrackingOutput{}, err
	}
	if err := h.app.Authorizer.CheckVisible(h.id, info.ClientID, "purchase order", orderID); err != nil {
		return nil, TrackingOutput{}, err
	}

	return nil, trackingToOutput(info), nil
}

func (h *Handlers) AdvanceOrderStatus(ctx context.Context, _ *mcp.CallToolRequest, input AdvanceOrderInput) (*mcp.CallToolResult, AdvanceOrderOutput, error) {
	if err := h.authorize(ctx, auth.ObjOrders, auth.ActAdvance); err != nil {
		return nil, AdvanceOrderOutput{}, err
	}
	orderID, err := parseID("order_id", input.OrderID)
	if err != nil {
		return nil, AdvanceOrderOutput{}, err
	}

	advanced, err := h.app.Tracking.AdvanceStatus(ctx, orderID, models.Metadata(input.Metadata))
	if err != nil {
		return nil, AdvanceOrderOutput{}, err
	}

	info, err := h.app.Tracking.GetTrackingInfo(ctx, orderID)
	if err != nil {
		return nil, AdvanceOrderOutput{}, err
	}

	return nil, AdvanceOrderOutput{
		OrderID:  orderID.String(),
		Advanced: advanced,
		Status:   string(info.CurrentStatus),
	}, nil
}

func (h *Handlers) CancelOrder(ctx context.Context, _ *mcp.CallToolRequest, input CancelOrderInput) (*mcp.CallToolResult, CancelOrderOutput, error) {
	if err := h.authorize(ctx, auth.ObjOrders, auth.ActCancel); err != nil {
		return nil, CancelOrderOutput{}, err
	}
	orderID, err := parseID("order_id", input.OrderID)
	if err != nil {
		return nil, CancelOrderOutput{}, err
	}

	if err := h.app.Tracking.CancelOrder(ctx, orderID, input.Reason); err != nil {
		return nil, CancelOrderOutput{}, err
	}

	return nil, CancelOrderOutput{OrderID: orderID.String(), Status: string(models.POCancelled)}, nil
}

func trackingToOutput(info *tracking.Info) TrackingOutput {
	out := TrackingOutput{
		OrderID:             info.OrderID.String(),
		ClientID:            info.ClientID,
		CurrentStatus:       string(info.CurrentStatus),
		CanAdvance:          info.CanAdvance,
		PaymentStatus:       string(info.PaymentStatus),
		EstimatedCompletion: formatTimePtr(info.EstimatedCompletion),
		Timeline:            make([]TimelineEventOutput, 0, len(info.Timeline)),
	}
	if info.NextStatus != nil {
		next := string(*info.NextStatus)
		out.NextStatus = &next
	}
	for _, e := range info.Timeline {
		out.Timeline = append(out.Timeline, TimelineEventOutput{
			ID:          e.ID,
			Status:      string(e.Status),
			Description: e.Description,
			Metadata:    e.Metadata,
			CreatedAt:   formatTime(e.CreatedAt),
		})
	}
	return out
}
