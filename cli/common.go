// ABOUTME: Shared helpers for the CLI commands
// ABOUTME: Identity checks, id parsing and the key=value metadata flag
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/victor-4502/naova-mvp-sub002/app"
	"github.com/victor-4502/naova-mvp-sub002/auth"
	"github.com/victor-4502/naova-mvp-sub002/models"
)

// authorize checks the configured identity (NAOVA_ROLE / NAOVA_CLIENT_ID).
func authorize(ctx context.Context, a *app.App, obj, act string) (auth.Identity, error) {
	id, err := a.Identity()
	if err != nil {
		return auth.Identity{}, err
	}
	return id, a.Authorizer.Authorize(ctx, id, obj, act)
}

func requireID(name, v string) (uuid.UUID, error) {
	if v == "" {
		return uuid.Nil, fmt.Errorf("--%s is required", name)
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --%s %q: %w", name, v, err)
	}
	return id, nil
}

// metaFlag collects repeated --meta key=value pairs.
type metaFlag map[string]any

func (m metaFlag) String() string {
	parts := make([]string, 0, len(m))
	for k, v := range m {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, ",")
}

func (m metaFlag) Set(v string) error {
	key, value, ok := strings.Cut(v, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	m[key] = strings.TrimSpace(value)
	return nil
}

func (m metaFlag) metadata() models.Metadata {
	if len(m) == 0 {
		return nil
	}
	return models.Metadata(m)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
