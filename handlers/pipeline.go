// ABOUTME: Pipeline board and request intake MCP tools
// ABOUTME: Implements get_pipeline, move_request and create_request
package handlers

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/victor-4502/naova-mvp-sub002/auth"
	"github.com/victor-4502/naova-mvp-sub002/intake"
	"github.com/victor-4502/naova-mvp-sub002/pipeline"
)

type GetPipelineInput struct {
	ClientID string `json:"client_id,omitempty" jsonschema:"Only show this client's requests (staff only; clients always see their own)"`
}

type MoveRequestInput struct {
	RequestID string `json:"request_id" jsonschema:"Request ID (required)"`
	Stage     string `json:"stage" jsonschema:"Target stage: new, analysis, sourcing, quoting, client_review, ordered, completed, lost"`
}

type CreateRequestInput struct {
	Content  string `json:"content" jsonschema:"What the buyer needs, in their own words (required)"`
	ClientID string `json:"client_id,omitempty" jsonschema:"Client the request belongs to (required for staff)"`
	Source   string `json:"source,omitempty" jsonschema:"Channel: web, email, whatsapp, chat, file, api (default web)"`
	Urgency  string `json:"urgency,omitempty" jsonschema:"Urgency: low, normal, high, urgent (default normal)"`
}

type ColumnOutput struct {
	Stage    string          `json:"stage"`
	Count    int             `json:"count"`
	Requests []RequestOutput `json:"requests"`
}

type PipelineOutput struct {
	ClientID string         `json:"client_id,omitempty"`
	Total    int            `json:"total"`
	Columns  []ColumnOutput `json:"columns"`
}

func (h *Handlers) GetPipeline(ctx context.Context, _ *mcp.CallToolRequest, input GetPipelineInput) (*mcp.CallToolResult, PipelineOutput, error) {
	if err := h.authorize(ctx, auth.ObjPipeline, auth.ActRead); err != nil {
		return nil, PipelineOutput{}, err
	}

	scope := h.id.Scope()
	if filter := strings.TrimSpace(input.ClientID); filter != "" {
		if err := h.app.Authorizer.CheckOwner(h.id, filter); err != nil {
			return nil, PipelineOutput{}, err
		}
		scope = &filter
	}

	board, err := h.app.Pipeline.GetPipeline(ctx, scope)
	if err != nil {
		return nil, PipelineOutput{}, err
	}
	return nil, boardToOutput(board), nil
}

func (h *Handlers) MoveRequest(ctx context.Context, _ *mcp.CallToolRequest, input MoveRequestInput) (*mcp.CallToolResult, RequestOutput, error) {
	if err := h.authorize(ctx, auth.ObjRequests, auth.ActUpdate); err != nil {
		return nil, RequestOutput{}, err
	}
	requestID, err := parseID("request_id", input.RequestID)
	if err != nil {
		return nil, RequestOutput{}, err
	}

	req, err := h.app.Pipeline.MoveRequest(ctx, requestID, input.Stage)
	if err != nil {
		return nil, RequestOutput{}, err
	}
	return nil, requestToOutput(req), nil
}

func (h *Handlers) CreateRequest(ctx context.Context, _ *mcp.CallToolRequest, input CreateRequestInput) (*mcp.CallToolResult, RequestOutput, error) {
	if err := h.authorize(ctx, auth.ObjRequests, auth.ActCreate); err != nil {
		return nil, RequestOutput{}, err
	}

	clientID := strings.TrimSpace(input.ClientID)
	if !h.id.Staff() {
		if clientID != "" {
			if err := h.app.Authorizer.CheckOwner(h.id, clientID); err != nil {
				return nil, RequestOutput{}, err
			}
		}
		clientID = h.id.ClientID
	}

	req, err := h.app.Intake.Submit(ctx, intake.Submission{
		Source:   input.Source,
		ClientID: clientID,
		Content:  input.Content,
		Urgency:  input.Urgency,
	})
	if err != nil {
		return nil, RequestOutput{}, err
	}
	return nil, requestToOutput(req), nil
}

func boardToOutput(board *pipeline.Board) PipelineOutput {
	out := PipelineOutput{Total: board.Total, Columns: make([]ColumnOutput, 0, len(board.Columns))}
	if board.ClientID != nil {
		out.ClientID = *board.ClientID
	}
	for _, col := range board.Columns {
		c := ColumnOutput{Stage: string(col.Stage), Count: len(col.Requests), Requests: make([]RequestOutput, 0, len(col.Requests))}
		for _, req := range col.Requests {
			c.Requests = append(c.Requests, requestToOutput(req))
		}
		out.Columns = append(out.Columns, c)
	}
	return out
}
