package authz

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// Denial messages surfaced to clients.
const (
	msgForbidden       = "You are not allowed to perform this action."
	msgOrgScope        = "This action targets a resource outside your organization."
	msgNoRole          = "No role is assigned to your account."
	msgSelfDelete      = "You cannot delete your own account."
	msgUnauthenticated = "Authentication is required."
)

// Engine is the decision engine. Pure over its inputs plus the catalog and
// the custom-role store; safe for concurrent use.
type Engine struct {
	catalog    *Catalog
	roles      RoleSource
	logger     *slog.Logger
	production bool
}

// EngineConfig carries optional engine settings.
type EngineConfig struct {
	// Production disables the trusted-context bypass.
	Production bool
	Logger     *slog.Logger
}

// NewEngine constructs an Engine.
func NewEngine(catalog *Catalog, roles RoleSource, cfg EngineConfig) *Engine {
	return &Engine{
		catalog:    catalog,
		roles:      roles,
		logger:     cfg.Logger,
		production: cfg.Production,
	}
}

// Can reports whether the principal may perform action on resource,
// optionally against a concrete target entity.
func (e *Engine) Can(ctx context.Context, p *Principal, action, resource string, target any) bool {
	return e.Evaluate(ctx, p, action, resource, target).Allowed
}

// Authorize is the raising variant of Can: it returns a *Denial when the
// check fails and nil when it passes.
func (e *Engine) Authorize(ctx context.Context, p *Principal, action, resource string, target any) error {
	decision := e.Evaluate(ctx, p, action, resource, target)
	if decision.Allowed {
		return nil
	}
	return &Denial{Decision: decision}
}

// EvaluateKey evaluates a bare permission key (resource.action[...]) with no
// target entity. The pipeline stage uses it for resolver-derived keys.
func (e *Engine) EvaluateKey(ctx context.Context, p *Principal, key string) Decision {
	parts := strings.SplitN(key, ".", 3)
	if len(parts) < 2 {
		return Deny(ReasonForbiddenAction, msgForbidden, key, roleSlug(p))
	}
	return e.Evaluate(ctx, p, parts[1], parts[0], nil)
}

// Evaluate runs the full decision sequence: root bypass, forbidden-set
// check, organization-scope check, business rules.
func (e *Engine) Evaluate(ctx context.Context, p *Principal, action, resource string, target any) Decision {
	if p == nil {
		return Decision{
			Allowed:    false,
			StatusCode: http.StatusUnauthorized,
			Reason:     ReasonUnauthenticated,
			Message:    msgUnauthenticated,
		}
	}

	// The bypass belongs to the built-in root role only. A tenant-created
	// role that happens to carry the slug must not inherit it.
	if p.Role.IsSystem && p.Role.Slug == RoleRoot {
		return Allow()
	}
	if trustedContext(ctx) && !e.production {
		return Allow()
	}

	if decision := e.checkForbidden(ctx, p, action, resource, target); !decision.Allowed {
		return decision
	}
	if decision := e.checkOrgScope(p, action, resource, target); !decision.Allowed {
		return decision
	}
	if decision := e.checkBusinessRules(p, action, resource, target); !decision.Allowed {
		return decision
	}
	return Allow()
}

func (e *Engine) checkForbidden(ctx context.Context, p *Principal, action, resource string, target any) Decision {
	if p.Role.Slug == "" {
		return Deny(ReasonForbiddenAction, msgNoRole, resource+"."+action, "")
	}

	candidates := e.candidatePatterns(p, action, resource, target)
	forbidden, err := e.forbiddenSet(ctx, p.Role)
	if err != nil {
		// Fail closed: an unresolvable role never grants anything.
		if e.logger != nil {
			e.logger.Error("resolve role forbidden set",
				slog.String("role", p.Role.Slug), slog.Any("error", err))
		}
		return Deny(ReasonForbiddenAction, msgForbidden, resource+"."+action, p.Role.Slug)
	}
	for _, candidate := range candidates {
		if _, hit := forbidden[candidate]; hit {
			return Deny(ReasonForbiddenAction, msgForbidden, candidate, p.Role.Slug)
		}
	}
	return Allow()
}

// candidatePatterns builds the permission patterns tested against the role's
// forbidden set: the bare key, the .others variant, and the target-type
// variant (self or the target's own role slug) when a target is present.
func (e *Engine) candidatePatterns(p *Principal, action, resource string, target any) []string {
	base := resource + "." + action
	candidates := []string{base, base + "." + QualifierOthers}
	if qualifier := targetQualifier(p, resource, target); qualifier != "" && qualifier != QualifierOthers {
		candidates = append(candidates, base+"."+qualifier)
	}
	return candidates
}

func targetQualifier(p *Principal, resource string, target any) string {
	if target == nil || resource != "users" {
		return ""
	}
	if ident, ok := target.(Identifiable); ok && ident.AuthzID() == p.ID {
		return QualifierSelf
	}
	if carrier, ok := target.(RoleCarrier); ok && carrier.AuthzRoleSlug() != "" {
		return carrier.AuthzRoleSlug()
	}
	return QualifierOthers
}

func (e *Engine) forbiddenSet(ctx context.Context, role RoleRef) (map[string]struct{}, error) {
	if role.IsSystem {
		if set, ok := e.catalog.ForbiddenSet(role.Slug); ok {
			return set, nil
		}
		// Unknown system slug: treat as empty, the scope rules still apply.
		return nil, nil
	}
	keys, err := e.roles.ForbiddenPermissions(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	return keySet(keys), nil
}

func (e *Engine) checkOrgScope(p *Principal, action, resource string, target any) Decision {
	if p.IsSystemScope() || e.catalog.IsOrgAgnostic(resource) {
		return Allow()
	}

	switch resource {
	case "users":
		if target == nil {
			return Allow()
		}
		if ident, ok := target.(Identifiable); ok && ident.AuthzID() == p.ID {
			return Allow()
		}
		if scoped, ok := target.(OrgScoped); ok {
			// Target and principal must share an organization. A target
			// reporting no org is a system-scope account, out of reach for
			// any tenant principal.
			orgID, has := scoped.AuthzOrgID()
			if !has || orgID != *p.OrgID {
				return e.denyScope(p, resource, action)
			}
		}
		return Allow()
	case "organizations":
		// Organization rows are created and deleted at system scope only;
		// tenants may at most read and update their own record.
		if action == ActionCreate || action == ActionDelete {
			return e.denyScope(p, resource, action)
		}
		if ident, ok := target.(Identifiable); ok && ident.AuthzID() != *p.OrgID {
			return e.denyScope(p, resource, action)
		}
		return Allow()
	case "userlicenses":
		if scoped, ok := target.(LicenseScoped); ok {
			if orgID, has := scoped.AuthzLicenseOrgID(); has && orgID != *p.OrgID {
				return e.denyScope(p, resource, action)
			}
		}
		return Allow()
	default:
		if scoped, ok := target.(OrgScoped); ok {
			if orgID, has := scoped.AuthzOrgID(); has && orgID != *p.OrgID {
				return e.denyScope(p, resource, action)
			}
		}
		return Allow()
	}
}

func (e *Engine) checkBusinessRules(p *Principal, action, resource string, target any) Decision {
	if resource == "users" && action == ActionDelete {
		if ident, ok := target.(Identifiable); ok && ident.AuthzID() == p.ID {
			return Deny(ReasonForbiddenAction, msgSelfDelete, "users.delete."+QualifierSelf, p.Role.Slug)
		}
	}
	return Allow()
}

func (e *Engine) denyScope(p *Principal, resource, action string) Decision {
	return Deny(ReasonOrgScope, msgOrgScope, resource+"."+action, p.Role.Slug)
}

func roleSlug(p *Principal) string {
	if p == nil {
		return ""
	}
	return p.Role.Slug
}
