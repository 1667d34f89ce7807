// ABOUTME: Registers every procurement tool on an MCP server
package handlers

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register adds every procurement tool to server.
func Register(server *mcp.Server, h *Handlers) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_tracking_info",
		Description: "Show a purchase order's current status, next status, payment status and timeline",
	}, h.GetTrackingInfo)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "advance_order_status",
		Description: "Move a purchase order one step along its status chain (no-op when it cannot advance)",
	}, h.AdvanceOrderStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cancel_order",
		Description: "Cancel a purchase order that is not yet closed or cancelled",
	}, h.CancelOrder)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_pipeline",
		Description: "Show requests grouped by pipeline stage, optionally for one client",
	}, h.GetPipeline)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "move_request",
		Description: "Set a request's pipeline stage",
	}, h.MoveRequest)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_request",
		Description: "Record a new buyer request from any channel",
	}, h.CreateRequest)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "process_request",
		Description: "Run one automation step on a request: normalize, send RFQs or compare quotes",
	}, h.ProcessRequest)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "process_all_pending",
		Description: "Run one automation step on every request outside completed and lost",
	}, h.ProcessAllPending)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "send_rfq",
		Description: "Send RFQs for a normalized request to every active supplier in its category",
	}, h.SendRFQ)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "receive_quote",
		Description: "Record a supplier's quote for a request",
	}, h.ReceiveQuote)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "compare_quotes",
		Description: "Rank a request's live quotes, cheapest first",
	}, h.CompareQuotes)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "accept_quote",
		Description: "Accept a quote on the client's behalf and open a purchase order",
	}, h.AcceptQuote)
}
