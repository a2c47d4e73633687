package organizations

import "time"

// Organization is a tenant. Identity rows carry no org_id of their own; the
// primary key is the tenant identifier everything else scopes to.
type Organization struct {
	ID        int64
	Name      string
	Slug      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuthzID lets the decision engine compare the row against the acting
// principal's organization.
func (o *Organization) AuthzID() int64 { return o.ID }
