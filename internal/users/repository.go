package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amnabbouti/launchpad-api-sub000/internal/platform/httpx"
	"github.com/amnabbouti/launchpad-api-sub000/internal/tenancy"
)

// Repository defines persistence operations for user management.
type Repository interface {
	List(ctx context.Context) ([]User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL. The users table is
// exempt from row level security so logins can resolve accounts, which means
// these queries must apply the org filter themselves.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `u.id, u.email, u.name, u.password_hash, u.is_active, u.org_id,
	u.role_id, r.slug, u.created_at, u.updated_at`

// visibleUsers mirrors the row-level-security predicate for the tables that
// carry one. Empty setting sees nothing, '*' sees everything.
const visibleUsers = `(current_setting('app.current_org', true) = '*'
	OR u.org_id = NULLIF(current_setting('app.current_org', true), '')::bigint)`

// List returns the users visible in the bound organization scope.
func (r *PGRepository) List(ctx context.Context) ([]User, error) {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	rows, err := q.Query(ctx,
		`SELECT `+userColumns+` FROM users u JOIN roles r ON r.id = u.role_id
		 WHERE `+visibleUsers+` ORDER BY u.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var user User
		if err := scanUser(rows, &user); err != nil {
			return nil, err
		}
		out = append(out, user)
	}
	return out, rows.Err()
}

// FindByID fetches a visible user by primary key.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	var user User
	err := scanUser(q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users u JOIN roles r ON r.id = u.role_id
		 WHERE u.id = $1 AND `+visibleUsers, id), &user)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Create inserts a user and resolves its role slug.
func (r *PGRepository) Create(ctx context.Context, user *User) error {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	err := q.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash, is_active, org_id, role_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, (SELECT slug FROM roles WHERE id = role_id), created_at, updated_at`,
		user.Email, user.Name, user.PasswordHash, user.IsActive, user.OrgID, user.RoleID,
	).Scan(&user.ID, &user.RoleSlug, &user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return httpx.ErrDuplicate
	}
	return err
}

// Update rewrites a visible user's mutable fields.
func (r *PGRepository) Update(ctx context.Context, user *User) error {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	err := q.QueryRow(ctx,
		`UPDATE users u SET name = $2, is_active = $3, role_id = $4, updated_at = now()
		 WHERE u.id = $1 AND `+visibleUsers+`
		 RETURNING (SELECT slug FROM roles WHERE id = u.role_id), u.updated_at`,
		user.ID, user.Name, user.IsActive, user.RoleID,
	).Scan(&user.RoleSlug, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return httpx.ErrNotFound
	}
	return err
}

// Delete removes a visible user.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	tag, err := q.Exec(ctx,
		`DELETE FROM users u WHERE u.id = $1 AND `+visibleUsers, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row, user *User) error {
	return row.Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.IsActive, &user.OrgID,
		&user.RoleID, &user.RoleSlug, &user.CreatedAt, &user.UpdatedAt,
	)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)
