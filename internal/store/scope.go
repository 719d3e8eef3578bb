package store

import (
	"context"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/auth"

	"github.com/google/uuid"
)

// ErrNoScope is returned when a repository call is made without a tenant.
var ErrNoScope = apperr.Unauthorized("tenant scope is required")

// Scope is the per-request tenant context every repository call takes.
//
// Multi-tenant invariant: the only way to build a query in this package is
// through a Scope, and every builder it hands out carries tenant_id.
type Scope struct {
	tenantID string
	userID   string
}

// NewScope validates tenantID as a UUID. userID is informational (audit).
func NewScope(tenantID, userID string) (Scope, error) {
	if _, err := uuid.Parse(tenantID); err != nil {
		return Scope{}, ErrNoScope
	}
	return Scope{tenantID: tenantID, userID: userID}, nil
}

// ScopeFrom builds a Scope from the identity stored by the auth middleware.
func ScopeFrom(ctx context.Context) (Scope, error) {
	id, err := auth.IdentityFrom(ctx)
	if err != nil {
		return Scope{}, err
	}
	return NewScope(id.TenantID, id.UserID)
}

func (s Scope) TenantID() string { return s.tenantID }
func (s Scope) UserID() string   { return s.userID }

// Valid reports whether the scope was built by NewScope.
func (s Scope) Valid() bool { return s.tenantID != "" }
