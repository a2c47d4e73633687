package roles

import (
	"fmt"
	"time"

	"github.com/amnabbouti/launchpad-api-sub000/internal/authz"
)

// Role is a persisted role. For system roles the forbidden list here is
// informational only; the permission catalog stays authoritative. For custom
// roles the persisted forbidden list is the source of truth.
type Role struct {
	ID        int64
	Slug      string
	Title     string
	IsSystem  bool
	OrgID     *int64
	Forbidden []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Ref returns the role reference the authorization engine works with.
func (r Role) Ref() authz.RoleRef {
	return authz.RoleRef{ID: r.ID, Slug: r.Slug, IsSystem: r.IsSystem}
}

// PermissionViolationError carries the governance violations that blocked a
// role write.
type PermissionViolationError struct {
	Violations []authz.Violation
}

func (e *PermissionViolationError) Error() string {
	return fmt.Sprintf("roles: %d permission violation(s)", len(e.Violations))
}

// InvalidKeysOnly reports whether every violation is an unknown permission
// key, which surfaces as a validation failure rather than a forbidden write.
func (e *PermissionViolationError) InvalidKeysOnly() bool {
	for _, v := range e.Violations {
		if v.Code != authz.ViolationInvalidPermission {
			return false
		}
	}
	return len(e.Violations) > 0
}
