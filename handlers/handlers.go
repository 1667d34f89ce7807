// ABOUTME: MCP tool handlers for the procurement pipeline
// ABOUTME: Each tool authorizes the session identity before calling into the services
package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/victor-4502/naova-mvp-sub002/apperr"
	"github.com/victor-4502/naova-mvp-sub002/app"
	"github.com/victor-4502/naova-mvp-sub002/auth"
	"github.com/victor-4502/naova-mvp-sub002/models"
)

type Handlers struct {
	app *app.App
	id  auth.Identity
}

// New binds the tool handlers to one caller identity for the whole session.
func New(a *app.App, id auth.Identity) *Handlers {
	return &Handlers{app: a, id: id}
}

func (h *Handlers) authorize(ctx context.Context, obj, act string) error {
	return h.app.Authorizer.Authorize(ctx, h.id, obj, act)
}

// ownRequest loads a request and checks the caller may see it.
func (h *Handlers) ownRequest(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	req, err := h.app.Pipeline.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := h.app.Authorizer.CheckVisible(h.id, req.ClientID, "request", id); err != nil {
		return nil, err
	}
	return req, nil
}

func parseID(field, v string) (uuid.UUID, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return uuid.Nil, apperr.Invalid("%s is required", field)
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, apperr.Invalid("%s %q is not a valid id", field, v)
	}
	return id, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

type RequestOutput struct {
	ID        string `json:"id"`
	ClientID  string `json:"client_id"`
	Source    string `json:"source"`
	Status    string `json:"status"`
	Stage     string `json:"stage"`
	Category  string `json:"category,omitempty"`
	Urgency   string `json:"urgency"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func requestToOutput(r *models.Request) RequestOutput {
	content := r.NormalizedContent
	if content == "" {
		content = r.RawContent
	}
	return RequestOutput{
		ID:        r.ID.String(),
		ClientID:  r.ClientID,
		Source:    string(r.Source),
		Status:    string(r.Status),
		Stage:     string(r.Stage),
		Category:  r.Category,
		Urgency:   string(r.Urgency),
		Content:   content,
		CreatedAt: formatTime(r.CreatedAt),
		UpdatedAt: formatTime(r.UpdatedAt),
	}
}
