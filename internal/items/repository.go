package items

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amnabbouti/launchpad-api-sub000/internal/platform/httpx"
	"github.com/amnabbouti/launchpad-api-sub000/internal/tenancy"
)

// Repository defines persistence operations for items.
type Repository interface {
	List(ctx context.Context) ([]Item, error)
	FindByID(ctx context.Context, id int64) (*Item, error)
	Create(ctx context.Context, item *Item) error
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id int64) error
	DueForMaintenance(ctx context.Context, before time.Time) ([]Item, error)
}

// PGRepository implements Repository using PostgreSQL. The items table has a
// row-level-security policy on org_id; no WHERE clause here mentions the
// tenant because the bound session already limits visibility.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const itemColumns = `id, org_id, name, sku, quantity, location_note,
	next_maintenance_at, created_at, updated_at`

// List returns the tenant's items.
func (r *PGRepository) List(ctx context.Context) ([]Item, error) {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	rows, err := q.Query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// FindByID fetches one of the tenant's items.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*Item, error) {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	var item Item
	err := scanItem(q.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id), &item)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// Create inserts an item into the tenant's inventory.
func (r *PGRepository) Create(ctx context.Context, item *Item) error {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	err := q.QueryRow(ctx,
		`INSERT INTO items (org_id, name, sku, quantity, location_note, next_maintenance_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		item.OrgID, item.Name, item.SKU, item.Quantity, item.LocationNote, item.NextMaintenanceAt,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if isUniqueViolation(err) {
		return httpx.ErrDuplicate
	}
	return err
}

// Update rewrites an item's mutable fields.
func (r *PGRepository) Update(ctx context.Context, item *Item) error {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	err := q.QueryRow(ctx,
		`UPDATE items SET name = $2, sku = $3, quantity = $4, location_note = $5,
		   next_maintenance_at = $6, updated_at = now()
		 WHERE id = $1 RETURNING updated_at`,
		item.ID, item.Name, item.SKU, item.Quantity, item.LocationNote, item.NextMaintenanceAt,
	).Scan(&item.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return httpx.ErrNotFound
	}
	return err
}

// Delete removes one of the tenant's items.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	tag, err := q.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// DueForMaintenance lists items whose next maintenance falls before the
// cutoff. Jobs bind a system-scope session before calling this; on anything
// narrower the row policy trims the result to one tenant.
func (r *PGRepository) DueForMaintenance(ctx context.Context, before time.Time) ([]Item, error) {
	q := tenancy.QuerierFromContext(ctx, r.pool)
	rows, err := q.Query(ctx,
		`SELECT `+itemColumns+` FROM items
		 WHERE next_maintenance_at IS NOT NULL AND next_maintenance_at <= $1
		 ORDER BY next_maintenance_at`, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func collect(rows pgx.Rows) ([]Item, error) {
	var out []Item
	for rows.Next() {
		var item Item
		if err := scanItem(rows, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func scanItem(row pgx.Row, item *Item) error {
	return row.Scan(
		&item.ID, &item.OrgID, &item.Name, &item.SKU, &item.Quantity, &item.LocationNote,
		&item.NextMaintenanceAt, &item.CreatedAt, &item.UpdatedAt,
	)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)
