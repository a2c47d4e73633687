package users

import "time"

// User is a managed account row. The authz target methods let the decision
// engine qualify permissions against the acting principal without knowing
// anything about this package.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	OrgID        *int64
	RoleID       int64
	RoleSlug     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AuthzID identifies the user for self/others qualification.
func (u *User) AuthzID() int64 { return u.ID }

// AuthzOrgID scopes the user to its organization.
func (u *User) AuthzOrgID() (int64, bool) {
	if u.OrgID == nil {
		return 0, false
	}
	return *u.OrgID, true
}

// AuthzRoleSlug exposes the target's role for role-qualified permission keys.
func (u *User) AuthzRoleSlug() string { return u.RoleSlug }
