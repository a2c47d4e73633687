package licenses

import "time"

// UserLicense assigns a plan seat to a user. The row has no org_id of its
// own; its tenant is reached through the owning user.
type UserLicense struct {
	ID        int64
	UserID    int64
	OwnerOrg  *int64
	PlanID    int64
	PlanSlug  string
	Status    string
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuthzLicenseOrgID resolves the license's tenant through its owner.
func (l *UserLicense) AuthzLicenseOrgID() (int64, bool) {
	if l.OwnerOrg == nil {
		return 0, false
	}
	return *l.OwnerOrg, true
}

// Plan is a billable subscription tier. Plans are platform-wide reference
// data, not tenant rows.
type Plan struct {
	ID       int64
	Slug     string
	Name     string
	MaxSeats int
}
