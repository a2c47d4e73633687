package jobs

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/amnabbouti/launchpad-api-sub000/internal/items"
	"github.com/amnabbouti/launchpad-api-sub000/internal/licenses"
	"github.com/amnabbouti/launchpad-api-sub000/internal/tenancy"
	_ "github.com/amnabbouti/launchpad-api-sub000/testing"
)

type fakeSession struct {
	calls *[]string
}

func (s fakeSession) Querier() tenancy.Querier { return nil }

func (s fakeSession) BindOrg(_ context.Context, orgID int64) error {
	*s.calls = append(*s.calls, "bind_org")
	return nil
}

func (s fakeSession) BindSystem(context.Context) error {
	*s.calls = append(*s.calls, "bind_system")
	return nil
}

func (s fakeSession) Reset(context.Context) error {
	*s.calls = append(*s.calls, "reset")
	return nil
}

func (s fakeSession) Release() {
	*s.calls = append(*s.calls, "release")
}

type fakeBinder struct {
	calls []string
}

func (b *fakeBinder) Acquire(context.Context) (tenancy.Session, error) {
	return fakeSession{calls: &b.calls}, nil
}

type itemRepoStub struct {
	items.Repository
	due []items.Item
}

func (r itemRepoStub) DueForMaintenance(context.Context, time.Time) ([]items.Item, error) {
	return r.due, nil
}

type licenseRepoStub struct {
	licenses.Repository
	expired int64
}

func (r licenseRepoStub) ExpireOverdue(context.Context, time.Time) (int64, error) {
	return r.expired, nil
}

func scanTask(t *testing.T, taskType string) *asynq.Task {
	t.Helper()
	body, err := json.Marshal(ScanPayload{ScheduledFor: time.Now()})
	require.NoError(t, err)
	return asynq.NewTask(taskType, body)
}

func TestMaintenanceScanBindsSystemScope(t *testing.T) {
	binder := &fakeBinder{}
	manager := tenancy.NewManager(binder, nil)
	scanner := NewScanner(slog.New(slog.NewTextHandler(io.Discard, nil)), manager,
		itemRepoStub{due: []items.Item{{ID: 1, OrgID: 7, SKU: "DR-1"}}}, licenseRepoStub{})

	require.NoError(t, scanner.HandleMaintenanceScan(context.Background(), scanTask(t, TaskMaintenanceScan)))
	require.Equal(t, []string{"bind_system", "reset", "release"}, binder.calls)
}

func TestLicenseSweepBindsSystemScope(t *testing.T) {
	binder := &fakeBinder{}
	manager := tenancy.NewManager(binder, nil)
	scanner := NewScanner(slog.New(slog.NewTextHandler(io.Discard, nil)), manager,
		itemRepoStub{}, licenseRepoStub{expired: 3})

	require.NoError(t, scanner.HandleLicenseSweep(context.Background(), scanTask(t, TaskLicenseSweep)))
	require.Equal(t, []string{"bind_system", "reset", "release"}, binder.calls)
}

func TestMalformedPayloadSkipsRetry(t *testing.T) {
	binder := &fakeBinder{}
	manager := tenancy.NewManager(binder, nil)
	scanner := NewScanner(slog.New(slog.NewTextHandler(io.Discard, nil)), manager,
		itemRepoStub{}, licenseRepoStub{})

	err := scanner.HandleMaintenanceScan(context.Background(), asynq.NewTask(TaskMaintenanceScan, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, binder.calls)
}
