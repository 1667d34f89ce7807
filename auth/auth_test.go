// ABOUTME: Tests for role permissions and client ownership checks
package auth

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victor-4502/naova-mvp-sub002/apperr"
)

func newTestAuthorizer(t *testing.T) *Authorizer {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	a, err := NewAuthorizer(logger)
	require.NoError(t, err)
	return a
}

func TestAuthorize(t *testing.T) {
	a := newTestAuthorizer(t)
	ctx := context.Background()

	admin := Identity{Role: RoleAdmin}
	operator := Identity{Role: RoleOperator}
	client := Identity{Role: RoleClient, ClientID: "client-42"}

	tests := []struct {
		name string
		id   Identity
		obj  string
		act  string
		kind string
	}{
		{"admin cancels", admin, ObjOrders, ActCancel, ""},
		{"admin anything", admin, ObjExport, ActRun, ""},
		{"operator advances", operator, ObjOrders, ActAdvance, ""},
		{"operator cannot cancel", operator, ObjOrders, ActCancel, "forbidden"},
		{"operator moves requests", operator, ObjRequests, ActUpdate, ""},
		{"operator runs automation", operator, ObjAutomation, ActRun, ""},
		{"client reads pipeline", client, ObjPipeline, ActRead, ""},
		{"client reads tracking", client, ObjOrders, ActRead, ""},
		{"client accepts quote", client, ObjQuotes, ActAccept, ""},
		{"client cannot advance", client, ObjOrders, ActAdvance, "forbidden"},
		{"client cannot move requests", client, ObjRequests, ActUpdate, "forbidden"},
		{"client cannot run automation", client, ObjAutomation, ActRun, "forbidden"},
		{"missing role", Identity{}, ObjPipeline, ActRead, "unauthorized"},
		{"unknown role", Identity{Role: "guest"}, ObjPipeline, ActRead, "unauthorized"},
		{"client without id", Identity{Role: RoleClient}, ObjPipeline, ActRead, "unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.Authorize(ctx, tt.id, tt.obj, tt.act)
			assert.Equal(t, tt.kind, apperr.Kind(err))
		})
	}
}

func TestCustomPolicy(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	a, err := NewAuthorizerWithPolicy("p, operator, orders, *", logger)
	require.NoError(t, err)

	assert.NoError(t, a.Authorize(context.Background(), Identity{Role: RoleOperator}, ObjOrders, ActCancel))
	assert.ErrorIs(t, a.Authorize(context.Background(), Identity{Role: RoleAdmin}, ObjOrders, ActRead), apperr.ErrForbidden)
}

func TestScopeAndOwnership(t *testing.T) {
	a := newTestAuthorizer(t)

	staff := Identity{Role: RoleOperator}
	assert.Nil(t, staff.Scope())
	assert.NoError(t, a.CheckOwner(staff, "anyone"))

	client := Identity{Role: RoleClient, ClientID: "client-42"}
	require.NotNil(t, client.Scope())
	assert.Equal(t, "client-42", *client.Scope())
	assert.NoError(t, a.CheckOwner(client, "client-42"))
	assert.ErrorIs(t, a.CheckOwner(client, "client-7"), apperr.ErrForbidden)
}

func TestCheckVisibleHidesForeignRecords(t *testing.T) {
	a := newTestAuthorizer(t)

	assert.NoError(t, a.CheckVisible(Identity{Role: RoleAdmin}, "client-7", "purchase order", "po-1"))
	assert.NoError(t, a.CheckVisible(Identity{Role: RoleClient, ClientID: "client-7"}, "client-7", "purchase order", "po-1"))

	err := a.CheckVisible(Identity{Role: RoleClient, ClientID: "client-42"}, "client-7", "purchase order", "po-1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NotErrorIs(t, err, apperr.ErrForbidden)
	assert.Contains(t, err.Error(), "purchase order po-1 not found")
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}
