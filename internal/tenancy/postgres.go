package tenancy

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// orgSetting is the Postgres session setting the RLS policies read.
	orgSetting = "app.current_org"
	// systemScope marks a connection as unrestricted. An unset or empty
	// setting yields no tenant rows at all, so a missed bind fails closed.
	systemScope = "*"
)

// PoolBinder acquires tenant sessions from a pgx connection pool.
type PoolBinder struct {
	pool *pgxpool.Pool
}

// NewPoolBinder constructs a PoolBinder.
func NewPoolBinder(pool *pgxpool.Pool) *PoolBinder {
	return &PoolBinder{pool: pool}
}

// Acquire pins one pooled connection for the duration of a request.
func (b *PoolBinder) Acquire(ctx context.Context) (Session, error) {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("tenancy: acquire connection: %w", err)
	}
	return &pgxSession{conn: conn}, nil
}

type pgxSession struct {
	conn *pgxpool.Conn
}

func (s *pgxSession) Querier() Querier {
	return s.conn
}

func (s *pgxSession) BindOrg(ctx context.Context, orgID int64) error {
	return s.set(ctx, strconv.FormatInt(orgID, 10))
}

func (s *pgxSession) BindSystem(ctx context.Context) error {
	return s.set(ctx, systemScope)
}

func (s *pgxSession) Reset(ctx context.Context) error {
	return s.set(ctx, "")
}

func (s *pgxSession) Release() {
	s.conn.Release()
}

func (s *pgxSession) set(ctx context.Context, value string) error {
	if _, err := s.conn.Exec(ctx, "SELECT set_config($1, $2, false)", orgSetting, value); err != nil {
		return fmt.Errorf("tenancy: set %s: %w", orgSetting, err)
	}
	return nil
}
