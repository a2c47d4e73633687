package licenses

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amnabbouti/launchpad-api-sub000/internal/platform/httpx"
	"github.com/amnabbouti/launchpad-api-sub000/internal/tenancy"
)

// Repository defines persistence operations for user licenses and plans.
type Repository interface {
	List(ctx context.Context) ([]UserLicense, error)
	FindByID(ctx context.Context, id int64) (*UserLicense, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
	Plans(ctx context.Context) ([]Plan, error)
}

// PGRepository implements Repository using PostgreSQL. user_licenses carries
// a row-level-security policy that joins through the owning user, so reads on
// the bound session are already tenant-filtered.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const licenseColumns = `l.id, l.user_id, u.org_id, l.plan_id, p.slug, l.status,
	l.expires_at, l.created_at, l.updated_at`

// List returns the licenses visible in the bound scope.
func (r *PGRepository) List(ctx context.Context) ([]UserLicense, error) {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	rows, err := q.Query(ctx,
		`SELECT `+licenseColumns+` FROM user_licenses l
		 JOIN users u ON u.id = l.user_id
		 JOIN plans p ON p.id = l.plan_id
		 ORDER BY l.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserLicense
	for rows.Next() {
		var lic UserLicense
		if err := scanLicense(rows, &lic); err != nil {
			return nil, err
		}
		out = append(out, lic)
	}
	return out, rows.Err()
}

// FindByID fetches one visible license.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*UserLicense, error) {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	var lic UserLicense
	err := scanLicense(q.QueryRow(ctx,
		`SELECT `+licenseColumns+` FROM user_licenses l
		 JOIN users u ON u.id = l.user_id
		 JOIN plans p ON p.id = l.plan_id
		 WHERE l.id = $1`, id), &lic)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &lic, nil
}

// UpdateStatus transitions a license.
func (r *PGRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	tag, err := q.Exec(ctx,
		`UPDATE user_licenses SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// ExpireOverdue marks every active license past its expiry as expired and
// returns the number of rows touched. Jobs bind a system-scope session
// before calling this so the sweep covers all tenants.
func (r *PGRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	tag, err := q.Exec(ctx,
		`UPDATE user_licenses SET status = 'expired', updated_at = now()
		 WHERE status = 'active' AND expires_at IS NOT NULL AND expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Plans returns the platform-wide plan catalog.
func (r *PGRepository) Plans(ctx context.Context) ([]Plan, error) {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	rows, err := q.Query(ctx, `SELECT id, slug, name, max_seats FROM plans ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Plan
	for rows.Next() {
		var plan Plan
		if err := rows.Scan(&plan.ID, &plan.Slug, &plan.Name, &plan.MaxSeats); err != nil {
			return nil, err
		}
		out = append(out, plan)
	}
	return out, rows.Err()
}

func scanLicense(row pgx.Row, lic *UserLicense) error {
	return row.Scan(
		&lic.ID, &lic.UserID, &lic.OwnerOrg, &lic.PlanID, &lic.PlanSlug, &lic.Status,
		&lic.ExpiresAt, &lic.CreatedAt, &lic.UpdatedAt,
	)
}

var _ Repository = (*PGRepository)(nil)
