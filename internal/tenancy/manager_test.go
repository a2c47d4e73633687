package tenancy

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type fakeQuerier struct{}

func (fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

type fakeSession struct {
	calls   []string
	bindErr error
}

func (s *fakeSession) Querier() Querier { return fakeQuerier{} }

func (s *fakeSession) BindOrg(ctx context.Context, orgID int64) error {
	s.calls = append(s.calls, "bind_org")
	return s.bindErr
}

func (s *fakeSession) BindSystem(ctx context.Context) error {
	s.calls = append(s.calls, "bind_system")
	return s.bindErr
}

func (s *fakeSession) Reset(ctx context.Context) error {
	s.calls = append(s.calls, "reset")
	return nil
}

func (s *fakeSession) Release() {
	s.calls = append(s.calls, "release")
}

type fakeBinder struct {
	sess       *fakeSession
	acquireErr error
}

func (b *fakeBinder) Acquire(ctx context.Context) (Session, error) {
	if b.acquireErr != nil {
		return nil, b.acquireErr
	}
	return b.sess, nil
}

func TestSetupBindsOrgAndCleansUp(t *testing.T) {
	sess := &fakeSession{}
	mgr := NewManager(&fakeBinder{sess: sess}, nil)

	org := int64(7)
	ctx, cleanup, err := mgr.Setup(context.Background(), &org)
	require.NoError(t, err)
	require.Same(t, Session(sess), SessionFromContext(ctx))

	cleanup()
	require.Equal(t, []string{"bind_org", "reset", "release"}, sess.calls)
}

func TestSetupSystemScopeLiftsFilter(t *testing.T) {
	sess := &fakeSession{}
	mgr := NewManager(&fakeBinder{sess: sess}, nil)

	_, cleanup, err := mgr.Setup(context.Background(), nil)
	require.NoError(t, err)
	cleanup()
	require.Equal(t, []string{"bind_system", "reset", "release"}, sess.calls)
}

func TestSetupBindFailureReleasesConnection(t *testing.T) {
	sess := &fakeSession{bindErr: errors.New("boom")}
	mgr := NewManager(&fakeBinder{sess: sess}, nil)

	org := int64(3)
	_, cleanup, err := mgr.Setup(context.Background(), &org)
	require.Error(t, err)
	require.Nil(t, cleanup)
	require.Equal(t, []string{"bind_org", "reset", "release"}, sess.calls)
}

func TestQuerierFromContextFallsBack(t *testing.T) {
	fallback := fakeQuerier{}
	require.Equal(t, Querier(fallback), QuerierFromContext(context.Background(), fallback))

	sess := &fakeSession{}
	ctx := WithSession(context.Background(), sess)
	require.Equal(t, Querier(fakeQuerier{}), QuerierFromContext(ctx, fallback))
}
