package auth

import (
	"time"

	"github.com/amnabbouti/launchpad-api-sub000/internal/authz"
)

// User is an account able to authenticate against the API.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	OrgID        *int64
	RoleID       int64
	RoleSlug     string
	RoleIsSystem bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal converts the account into the acting principal for one request.
func (u *User) Principal() *authz.Principal {
	return &authz.Principal{
		ID:    u.ID,
		OrgID: u.OrgID,
		Role: authz.RoleRef{
			ID:       u.RoleID,
			Slug:     u.RoleSlug,
			IsSystem: u.RoleIsSystem,
		},
	}
}
