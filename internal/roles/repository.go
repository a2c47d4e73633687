package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amnabbouti/launchpad-api-sub000/internal/platform/httpx"
	"github.com/amnabbouti/launchpad-api-sub000/internal/tenancy"
)

// Repository defines persistence operations for roles.
type Repository interface {
	List(ctx context.Context) ([]Role, error)
	FindByID(ctx context.Context, id int64) (*Role, error)
	Create(ctx context.Context, role *Role) error
	Update(ctx context.Context, role *Role) error
	Delete(ctx context.Context, id int64) error
	ForbiddenPermissions(ctx context.Context, roleID int64) ([]string, error)
}

// PGRepository implements Repository using PostgreSQL. Reads go through the
// request's tenancy session so the org setting scopes custom roles; system
// roles are visible to everyone.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const roleColumns = `id, slug, title, is_system, org_id, forbidden, created_at, updated_at`

// visibleRoles restricts custom roles to the bound organization. System roles
// are shared; the '*' system scope sees everything.
const visibleRoles = `is_system
	OR current_setting('app.current_org', true) = '*'
	OR org_id = NULLIF(current_setting('app.current_org', true), '')::bigint`

// List returns the system roles plus the bound organization's custom roles.
func (r *PGRepository) List(ctx context.Context) ([]Role, error) {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	rows, err := q.Query(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE `+visibleRoles+` ORDER BY is_system DESC, slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Role
	for rows.Next() {
		var role Role
		if err := scanRole(rows, &role); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

// FindByID fetches a visible role by primary key.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*Role, error) {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	var role Role
	err := scanRole(q.QueryRow(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE id = $1 AND (`+visibleRoles+`)`, id), &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

// Create inserts a custom role and fills in the generated fields.
func (r *PGRepository) Create(ctx context.Context, role *Role) error {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	err := q.QueryRow(ctx,
		`INSERT INTO roles (slug, title, is_system, org_id, forbidden)
		 VALUES ($1, $2, false, $3, $4)
		 RETURNING id, created_at, updated_at`,
		role.Slug, role.Title, role.OrgID, role.Forbidden,
	).Scan(&role.ID, &role.CreatedAt, &role.UpdatedAt)
	if isUniqueViolation(err) {
		return httpx.ErrDuplicate
	}
	return err
}

// Update rewrites a custom role's title and forbidden list.
func (r *PGRepository) Update(ctx context.Context, role *Role) error {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	err := q.QueryRow(ctx,
		`UPDATE roles SET title = $2, forbidden = $3, updated_at = now()
		 WHERE id = $1 AND NOT is_system AND (`+visibleRoles+`)
		 RETURNING updated_at`,
		role.ID, role.Title, role.Forbidden,
	).Scan(&role.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return httpx.ErrNotFound
	}
	if isUniqueViolation(err) {
		return httpx.ErrDuplicate
	}
	return err
}

// Delete removes a custom role. Roles still assigned to users are protected
// by the users.role_id foreign key.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	tag, err := q.Exec(ctx,
		`DELETE FROM roles WHERE id = $1 AND NOT is_system AND (`+visibleRoles+`)`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return httpx.ErrValidation
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// ForbiddenPermissions loads the persisted forbidden list for a custom role.
// It reads through the pool directly: the authorization engine calls it while
// deciding requests, including ones the tenancy session is not bound for yet.
func (r *PGRepository) ForbiddenPermissions(ctx context.Context, roleID int64) ([]string, error) {
	var forbidden []string
	err := r.pool.QueryRow(ctx,
		`SELECT forbidden FROM roles WHERE id = $1`, roleID).Scan(&forbidden)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return forbidden, nil
}

func scanRole(row pgx.Row, role *Role) error {
	return row.Scan(
		&role.ID, &role.Slug, &role.Title, &role.IsSystem, &role.OrgID,
		&role.Forbidden, &role.CreatedAt, &role.UpdatedAt,
	)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)
