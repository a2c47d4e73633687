package organizations

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amnabbouti/launchpad-api-sub000/internal/platform/db"
	"github.com/amnabbouti/launchpad-api-sub000/internal/platform/httpx"
	"github.com/amnabbouti/launchpad-api-sub000/internal/tenancy"
)

// Repository defines persistence operations for organizations.
type Repository interface {
	List(ctx context.Context) ([]Organization, error)
	FindByID(ctx context.Context, id int64) (*Organization, error)
	Create(ctx context.Context, org *Organization) error
	Update(ctx context.Context, org *Organization) error
	Delete(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL. Organizations are an
// identity table exempt from row level security; the visibility predicate is
// applied here instead.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const orgColumns = `id, name, slug, is_active, created_at, updated_at`

// visibleOrgs: tenants see their own row, the '*' system scope sees all.
const visibleOrgs = `(current_setting('app.current_org', true) = '*'
	OR id = NULLIF(current_setting('app.current_org', true), '')::bigint)`

// List returns the visible organizations: one row for a tenant scope, all of
// them for system scope.
func (r *PGRepository) List(ctx context.Context) ([]Organization, error) {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	rows, err := q.Query(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE `+visibleOrgs+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Organization
	for rows.Next() {
		var org Organization
		if err := scanOrg(rows, &org); err != nil {
			return nil, err
		}
		out = append(out, org)
	}
	return out, rows.Err()
}

// FindByID fetches a visible organization.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*Organization, error) {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	var org Organization
	err := scanOrg(q.QueryRow(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE id = $1 AND `+visibleOrgs, id), &org)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

// Create inserts an organization. Only system scope reaches this.
func (r *PGRepository) Create(ctx context.Context, org *Organization) error {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	err := q.QueryRow(ctx,
		`INSERT INTO organizations (name, slug, is_active)
		 VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`,
		org.Name, org.Slug, org.IsActive,
	).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
	if isUniqueViolation(err) {
		return httpx.ErrDuplicate
	}
	return err
}

// Update rewrites a visible organization's mutable fields.
func (r *PGRepository) Update(ctx context.Context, org *Organization) error {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	err := q.QueryRow(ctx,
		`UPDATE organizations SET name = $2, is_active = $3, updated_at = now()
		 WHERE id = $1 AND `+visibleOrgs+` RETURNING updated_at`,
		org.ID, org.Name, org.IsActive,
	).Scan(&org.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return httpx.ErrNotFound
	}
	return err
}

// Delete removes an organization and everything it owns. Only system scope
// reaches this. Members must go before the org row: the role cascade would
// otherwise hit the restrict constraint on users.role_id.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM users WHERE org_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return httpx.ErrNotFound
		}
		return nil
	})
}

func scanOrg(row pgx.Row, org *Organization) error {
	return row.Scan(&org.ID, &org.Name, &org.Slug, &org.IsActive, &org.CreatedAt, &org.UpdatedAt)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)
