package items

import "time"

// Item is a tracked asset. Items live on a table with a row-level-security
// policy, so repository queries on a bound session only ever see the
// request's tenant.
type Item struct {
	ID                int64
	OrgID             int64
	Name              string
	SKU               string
	Quantity          int
	LocationNote      string
	NextMaintenanceAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AuthzOrgID scopes the item to its organization.
func (i *Item) AuthzOrgID() (int64, bool) { return i.OrgID, true }
