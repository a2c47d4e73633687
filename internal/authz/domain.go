// Package authz implements the authorization core: the permission catalog,
// the request permission resolver, the decision engine with its short-TTL
// cache, role governance validation, and the HTTP pipeline stage that wires
// them together with the tenancy layer.
package authz

import (
	"context"
	"fmt"
	"net/http"
)

// Reason codes carried in denial responses.
const (
	ReasonForbiddenAction        = "forbidden_action"
	ReasonOrgScope               = "organization_scope"
	ReasonPermissionModification = "unauthorized_permission_modification"
	ReasonUnauthenticated        = "unauthenticated"
)

// RoleRef identifies the role a principal acts under.
type RoleRef struct {
	ID       int64
	Slug     string
	IsSystem bool
}

// Principal is the authenticated actor for one request. Immutable once built.
type Principal struct {
	ID    int64
	OrgID *int64 // nil only for the system-scope super root
	Role  RoleRef
}

// IsSystemScope reports whether the principal operates outside any tenant.
func (p *Principal) IsSystemScope() bool {
	return p != nil && p.OrgID == nil
}

// Decision is the outcome of one authorization check. Ephemeral; cached
// transiently by the decision cache, never persisted.
type Decision struct {
	Allowed    bool   `json:"allowed"`
	StatusCode int    `json:"status_code"`
	Reason     string `json:"reason,omitempty"`
	Message    string `json:"message,omitempty"`
	Permission string `json:"permission,omitempty"`
	Role       string `json:"role,omitempty"`
}

// Allow returns an allowing decision.
func Allow() Decision {
	return Decision{Allowed: true, StatusCode: http.StatusOK}
}

// Deny returns a 403 decision with the given reason detail.
func Deny(reason, message, permission, role string) Decision {
	return Decision{
		Allowed:    false,
		StatusCode: http.StatusForbidden,
		Reason:     reason,
		Message:    message,
		Permission: permission,
		Role:       role,
	}
}

// Denial is the error Authorize returns for a denied check. The pipeline and
// handlers convert it into the structured JSON error body; it never travels
// further than the HTTP boundary.
type Denial struct {
	Decision Decision
}

func (d *Denial) Error() string {
	if d.Decision.Message != "" {
		return fmt.Sprintf("authz: %s: %s", d.Decision.Reason, d.Decision.Message)
	}
	return "authz: " + d.Decision.Reason
}

// Target interfaces. Business entities opt into scope checks by exposing the
// attributes the engine compares against the acting principal.

// OrgScoped is implemented by entities carrying an owning organization.
type OrgScoped interface {
	AuthzOrgID() (int64, bool)
}

// Identifiable is implemented by entities with a primary identifier.
type Identifiable interface {
	AuthzID() int64
}

// RoleCarrier is implemented by user entities exposing their role slug, used
// for role-qualified permission patterns such as users.update.admin.
type RoleCarrier interface {
	AuthzRoleSlug() string
}

// LicenseScoped is implemented by license-linked entities whose tenant is
// reached through the license owner rather than an org_id column.
type LicenseScoped interface {
	AuthzLicenseOrgID() (int64, bool)
}

// RoleSource resolves the persisted forbidden set of custom roles. System
// role forbidden sets come from the catalog and never hit this port.
type RoleSource interface {
	ForbiddenPermissions(ctx context.Context, roleID int64) ([]string, error)
}

type principalContextKey struct{}

// WithPrincipal stores the authenticated principal in context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context, or nil.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}

type trustedContextKey struct{}

// WithTrustedContext marks the context as trusted offline tooling (seeders,
// migrations). The engine honors the marker only outside production.
func WithTrustedContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, trustedContextKey{}, true)
}

func trustedContext(ctx context.Context) bool {
	trusted, _ := ctx.Value(trustedContextKey{}).(bool)
	return trusted
}
