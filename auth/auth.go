// ABOUTME: Caller identity and role-based authorization
// ABOUTME: Casbin enforcer over an embedded model and policy; clients are scoped to their own records
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
	"github.com/sirupsen/logrus"

	"github.com/victor-4502/naova-mvp-sub002/apperr"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleClient   Role = "client"
)

func ParseRole(v string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(v))); r {
	case RoleAdmin, RoleOperator, RoleClient:
		return r, nil
	case "":
		return "", apperr.Unauthorized("missing role")
	default:
		return "", apperr.Unauthorized("unknown role %q", v)
	}
}

// Identity is the caller as established by the upstream gateway or local config.
type Identity struct {
	Role     Role
	ClientID string
}

// Staff reports whether the identity sees every client's records.
func (i Identity) Staff() bool {
	return i.Role == RoleAdmin || i.Role == RoleOperator
}

// Scope returns the client filter for list operations, nil for staff.
func (i Identity) Scope() *string {
	if i.Staff() {
		return nil
	}
	id := i.ClientID
	return &id
}

// Resources.
const (
	ObjOrders     = "orders"
	ObjPipeline   = "pipeline"
	ObjRequests   = "requests"
	ObjQuotes     = "quotes"
	ObjSuppliers  = "suppliers"
	ObjRFQs       = "rfqs"
	ObjAutomation = "automation"
	ObjExport     = "export"
)

// Actions.
const (
	ActRead    = "read"
	ActCreate  = "create"
	ActUpdate  = "update"
	ActAdvance = "advance"
	ActCancel  = "cancel"
	ActAccept  = "accept"
	ActSend    = "send"
	ActRun     = "run"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

const defaultPolicy = `
p, admin, *, *
p, operator, orders, read
p, operator, orders, advance
p, operator, pipeline, *
p, operator, requests, *
p, operator, quotes, *
p, operator, suppliers, *
p, operator, rfqs, *
p, operator, automation, *
p, operator, export, *
p, client, pipeline, read
p, client, orders, read
p, client, requests, create
p, client, quotes, read
p, client, quotes, accept
`

type Authorizer struct {
	enforcer *casbin.Enforcer
	log      *logrus.Entry
}

// NewAuthorizer builds an authorizer with the built-in policy.
func NewAuthorizer(logger *logrus.Logger) (*Authorizer, error) {
	return NewAuthorizerWithPolicy(defaultPolicy, logger)
}

// NewAuthorizerWithPolicy builds an authorizer from CSV policy lines.
func NewAuthorizerWithPolicy(policy string, logger *logrus.Logger) (*Authorizer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("auth: load model: %w", err)
	}
	enf, err := casbin.NewEnforcer(m, stringadapter.NewAdapter(strings.TrimSpace(policy)))
	if err != nil {
		return nil, fmt.Errorf("auth: init enforcer: %w", err)
	}
	return &Authorizer{enforcer: enf, log: logger.WithField("component", "auth")}, nil
}

// Authorize returns Unauthorized for an incomplete identity and Forbidden
// when the role may not perform act on obj.
func (a *Authorizer) Authorize(ctx context.Context, id Identity, obj, act string) error {
	if _, err := ParseRole(string(id.Role)); err != nil {
		return err
	}
	if id.Role == RoleClient && id.ClientID == "" {
		return apperr.Unauthorized("client identity without client id")
	}

	ok, err := a.enforcer.Enforce(string(id.Role), obj, act)
	if err != nil {
		return fmt.Errorf("auth: enforce: %w", err)
	}
	if !ok {
		a.log.WithContext(ctx).WithFields(logrus.Fields{
			"role":      id.Role,
			"client_id": id.ClientID,
			"object":    obj,
			"action":    act,
		}).Warn("access denied")
		return apperr.Forbidden("%s may not %s %s", id.Role, act, obj)
	}
	return nil
}

// CheckOwner rejects a client touching a record that belongs to another client.
func (a *Authorizer) CheckOwner(id Identity, ownerClientID string) error {
	if id.Staff() || id.ClientID == ownerClientID {
		return nil
	}
	return apperr.Forbidden("record belongs to another client")
}

// CheckVisible is CheckOwner for a record fetched by id. Another client's
// record is reported as missing, the same as an unknown id.
func (a *Authorizer) CheckVisible(id Identity, ownerClientID, kind string, recordID any) error {
	if err := a.CheckOwner(id, ownerClientID); err != nil {
		return apperr.NotFound("%s %v not found", kind, recordID)
	}
	return nil
}
