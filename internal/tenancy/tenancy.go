// Package tenancy binds the per-request tenant visibility filter to the exact
// database connection a request uses for its queries. The filter is a Postgres
// session setting consumed by row-level-security policies, so a tenant cannot
// observe another tenant's rows even when service code forgets a WHERE clause.
package tenancy

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx operations repositories run against either a
// request-pinned connection or the shared pool.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Session is a single pooled connection with a tenant filter bound to it.
// A session serves exactly one request and must be reset before the
// connection returns to the pool.
type Session interface {
	Querier() Querier
	// BindOrg restricts row visibility on this connection to one organization.
	BindOrg(ctx context.Context, orgID int64) error
	// BindSystem lifts the filter so system-scope principals see all tenants.
	BindSystem(ctx context.Context) error
	// Reset returns the filter to its neutral state: no tenant rows visible.
	Reset(ctx context.Context) error
	Release()
}

// Binder hands out sessions, one per request.
type Binder interface {
	Acquire(ctx context.Context) (Session, error)
}

type sessionContextKey struct{}

// WithSession stores the tenancy session in context.
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the tenancy session from context, if any.
func SessionFromContext(ctx context.Context) Session {
	sess, _ := ctx.Value(sessionContextKey{}).(Session)
	return sess
}

// QuerierFromContext returns the request-pinned querier when a session is
// bound, or the fallback otherwise. Repositories route every query through
// this so tenant filtering applies to the connection they actually use.
func QuerierFromContext(ctx context.Context, fallback Querier) Querier {
	if sess := SessionFromContext(ctx); sess != nil {
		return sess.Querier()
	}
	return fallback
}
