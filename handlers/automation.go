// ABOUTME: Automation MCP tools
// ABOUTME: Implements process_request, process_all_pending and send_rfq
package handlers

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/victor-4502/naova-mvp-sub002/auth"
	"github.com/victor-4502/naova-mvp-sub002/automation"
)

type RequestInput struct {
	RequestID string `json:"request_id" jsonschema:"Request ID (required)"`
}

type ProcessAllInput struct{}

type ProcessOutput struct {
	RequestID string `json:"request_id"`
	Action    string `json:"action"`
	Status    string `json:"status"`
	Stage     string `json:"stage"`
	Changed   bool   `json:"changed"`
	Detail    string `json:"detail,omitempty"`
}

type FailureOutput struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error"`
}

type BatchOutput struct {
	Processed int             `json:"processed"`
	Advanced  int             `json:"advanced"`
	Results   []ProcessOutput `json:"results"`
	Failures  []FailureOutput `json:"failures"`
}

func (h *Handlers) ProcessRequest(ctx context.Context, _ *mcp.CallToolRequest, input RequestInput) (*mcp.CallToolResult, ProcessOutput, error) {
	if err := h.authorize(ctx, auth.ObjAutomation, auth.ActRun); err != nil {
		return nil, ProcessOutput{}, err
	}
	requestID, err := parseID("request_id", input.RequestID)
	if err != nil {
		return nil, ProcessOutput{}, err
	}

	res, err := h.app.Automation.ProcessRequest(ctx, requestID)
	if err != nil {
		return nil, ProcessOutput{}, err
	}
	return nil, resultToOutput(res), nil
}

func (h *Handlers) ProcessAllPending(ctx context.Context, _ *mcp.CallToolRequest, _ ProcessAllInput) (*mcp.CallToolResult, BatchOutput, error) {
	if err := h.authorize(ctx, auth.ObjAutomation, auth.ActRun); err != nil {
		return nil, BatchOutput{}, err
	}

	report, err := h.app.Automation.ProcessAllPending(ctx)
	if err != nil {
		return nil, BatchOutput{}, err
	}
	return nil, reportToOutput(report), nil
}

func (h *Handlers) SendRFQ(ctx context.Context, _ *mcp.CallToolRequest, input RequestInput) (*mcp.CallToolResult, ProcessOutput, error) {
	if err := h.authorize(ctx, auth.ObjRFQs, auth.ActSend); err != nil {
		return nil, ProcessOutput{}, err
	}
	requestID, err := parseID("request_id", input.RequestID)
	if err != nil {
		return nil, ProcessOutput{}, err
	}

	res, err := h.app.Automation.SendRFQ(ctx, requestID)
	if err != nil {
		return nil, ProcessOutput{}, err
	}
	return nil, resultToOutput(res), nil
}

func resultToOutput(res *automation.Result) ProcessOutput {
	return ProcessOutput{
		RequestID: res.RequestID.String(),
		Action:    string(res.Action),
		Status:    string(res.Status),
		Stage:     string(res.Stage),
		Changed:   res.Changed,
		Detail:    res.Detail,
	}
}

func reportToOutput(report *automation.BatchReport) BatchOutput {
	out := BatchOutput{
		Processed: report.Processed,
		Advanced:  report.Advanced,
		Results:   make([]ProcessOutput, 0, len(report.Results)),
		Failures:  make([]FailureOutput, 0, len(report.Failures)),
	}
	for _, r := range report.Results {
		out.Results = append(out.Results, resultToOutput(r))
	}
	for _, f := range report.Failures {
		out.Failures = append(out.Failures, FailureOutput{RequestID: f.RequestID.String(), Error: f.Error})
	}
	return out
}
