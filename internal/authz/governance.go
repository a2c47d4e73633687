package authz

import (
	"fmt"
	"sort"
	"strings"
)

// Violation codes returned by the governance validator.
const (
	ViolationInvalidPermission        = "invalid_permission"
	ViolationDisallowedGrant          = "disallowed_grant"
	ViolationMissingRequiredForbidden = "missing_required_forbidden"
	ViolationPermissionEditNotAllowed = "permission_edit_not_allowed"
)

// Violation describes one governance rule the request breaks.
type Violation struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Permissions []string `json:"permissions,omitempty"`
}

// Governance guards role-creation and role-update requests so no principal
// can hand out permissions its own role may not exercise, and so the fixed
// always-forbidden set stays forbidden on every non-root role.
type Governance struct {
	catalog *Catalog
}

// NewGovernance constructs a Governance validator.
func NewGovernance(catalog *Catalog) *Governance {
	return &Governance{catalog: catalog}
}

// Validate checks the requested forbidden and grant lists against the actor
// role's governance policy. An empty result means the request may proceed.
func (g *Governance) Validate(actor RoleRef, requestedForbidden, requestedGrants []string) []Violation {
	var violations []Violation

	if invalid := g.invalidKeys(requestedForbidden, requestedGrants); len(invalid) > 0 {
		violations = append(violations, Violation{
			Code:        ViolationInvalidPermission,
			Message:     fmt.Sprintf("unknown permission keys: %s", strings.Join(invalid, ", ")),
			Permissions: invalid,
		})
	}

	policy := g.policyFor(actor)
	if policy.Unrestricted {
		return violations
	}

	if !policy.CanEditPermissions {
		if len(requestedForbidden) > 0 || len(requestedGrants) > 0 {
			violations = append(violations, Violation{
				Code:    ViolationPermissionEditNotAllowed,
				Message: "your role may not modify permission lists",
			})
		}
		return violations
	}

	if offending := intersect(requestedGrants, policy.DisallowedGrants); len(offending) > 0 {
		violations = append(violations, Violation{
			Code:        ViolationDisallowedGrant,
			Message:     fmt.Sprintf("your role may not grant: %s", strings.Join(offending, ", ")),
			Permissions: offending,
		})
	}

	if missing := subtract(policy.RequiredForbidden, requestedForbidden); len(missing) > 0 {
		violations = append(violations, Violation{
			Code:        ViolationMissingRequiredForbidden,
			Message:     fmt.Sprintf("these permissions must stay forbidden: %s", strings.Join(missing, ", ")),
			Permissions: missing,
		})
	}

	return violations
}

// policyFor resolves the actor's governance policy. Custom roles fall back to
// the zero policy: permission lists are off limits.
func (g *Governance) policyFor(actor RoleRef) GovernancePolicy {
	if !actor.IsSystem {
		return GovernancePolicy{}
	}
	return g.catalog.Governance(actor.Slug)
}

func (g *Governance) invalidKeys(lists ...[]string) []string {
	var invalid []string
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, key := range list {
			if g.catalog.IsValidKey(key) {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			invalid = append(invalid, key)
		}
	}
	sort.Strings(invalid)
	return invalid
}

func intersect(requested, disallowed []string) []string {
	set := keySet(disallowed)
	var hits []string
	for _, key := range requested {
		if _, ok := set[key]; ok {
			hits = append(hits, key)
		}
	}
	sort.Strings(hits)
	return hits
}

func subtract(required, present []string) []string {
	set := keySet(present)
	var missing []string
	for _, key := range required {
		if _, ok := set[key]; !ok {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}
