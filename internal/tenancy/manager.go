package tenancy

import (
	"context"
	"log/slog"
)

// Manager sets and clears the tenant filter around one request.
type Manager struct {
	binder Binder
	logger *slog.Logger
}

// NewManager constructs a Manager.
func NewManager(binder Binder, logger *slog.Logger) *Manager {
	return &Manager{binder: binder, logger: logger}
}

// Setup acquires a session, binds it to the principal's organization (or
// lifts the filter for system-scope principals, orgID nil), and returns a
// context carrying the session plus a cleanup that must run when the request
// finishes. Cleanup resets the filter and releases the connection even when
// the request context is already cancelled.
func (m *Manager) Setup(ctx context.Context, orgID *int64) (context.Context, func(), error) {
	sess, err := m.binder.Acquire(ctx)
	if err != nil {
		return ctx, nil, err
	}

	if orgID != nil {
		err = sess.BindOrg(ctx, *orgID)
	} else {
		err = sess.BindSystem(ctx)
	}
	if err != nil {
		m.release(ctx, sess)
		return ctx, nil, err
	}

	cleanup := func() {
		m.release(ctx, sess)
	}
	return WithSession(ctx, sess), cleanup, nil
}

func (m *Manager) release(ctx context.Context, sess Session) {
	// The request may have been abandoned mid-flight; the reset still has
	// to reach the connection before it returns to the pool.
	if err := sess.Reset(context.WithoutCancel(ctx)); err != nil && m.logger != nil {
		m.logger.Error("tenancy reset", slog.Any("error", err))
	}
	sess.Release()
}
