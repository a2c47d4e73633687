package licenses_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amnabbouti/launchpad-api-sub000/internal/authz"
	"github.com/amnabbouti/launchpad-api-sub000/internal/licenses"
	"github.com/amnabbouti/launchpad-api-sub000/internal/platform/httpx"
	_ "github.com/amnabbouti/launchpad-api-sub000/testing"
)

type stubRepo struct {
	byID     map[int64]*licenses.UserLicense
	statuses map[int64]string
}

func newStubRepo(seed ...*licenses.UserLicense) *stubRepo {
	r := &stubRepo{byID: make(map[int64]*licenses.UserLicense), statuses: make(map[int64]string)}
	for _, lic := range seed {
		r.byID[lic.ID] = lic
	}
	return r
}

func (r *stubRepo) List(context.Context) ([]licenses.UserLicense, error) {
	var out []licenses.UserLicense
	for _, lic := range r.byID {
		out = append(out, *lic)
	}
	return out, nil
}

func (r *stubRepo) FindByID(_ context.Context, id int64) (*licenses.UserLicense, error) {
	lic, ok := r.byID[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *lic
	return &copied, nil
}

func (r *stubRepo) UpdateStatus(_ context.Context, id int64, status string) error {
	if _, ok := r.byID[id]; !ok {
		return httpx.ErrNotFound
	}
	r.statuses[id] = status
	return nil
}

func (r *stubRepo) ExpireOverdue(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, lic := range r.byID {
		if lic.Status == licenses.StatusActive && lic.ExpiresAt != nil && !lic.ExpiresAt.After(now) {
			lic.Status = licenses.StatusExpired
			n++
		}
	}
	return n, nil
}

func (r *stubRepo) Plans(context.Context) ([]licenses.Plan, error) {
	return []licenses.Plan{{ID: 1, Slug: "starter", Name: "Starter", MaxSeats: 5}}, nil
}

type emptyRoleSource struct{}

func (emptyRoleSource) ForbiddenPermissions(context.Context, int64) ([]string, error) {
	return nil, nil
}

func newService(repo licenses.Repository) *licenses.Service {
	engine := authz.NewEngine(authz.NewCatalog(), emptyRoleSource{}, authz.EngineConfig{Production: true})
	return licenses.NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, engine)
}

func tenantAdmin(org int64) *authz.Principal {
	return &authz.Principal{
		ID:    1,
		OrgID: &org,
		Role:  authz.RoleRef{ID: 2, Slug: authz.RoleAdmin, IsSystem: true},
	}
}

func license(id int64, ownerOrg int64) *licenses.UserLicense {
	org := ownerOrg
	return &licenses.UserLicense{ID: id, UserID: 42, OwnerOrg: &org, PlanID: 1, PlanSlug: "starter", Status: licenses.StatusActive}
}

func TestGetLicenseInOwnOrg(t *testing.T) {
	svc := newService(newStubRepo(license(10, 7)))

	lic, err := svc.Get(context.Background(), tenantAdmin(7), 10)
	require.NoError(t, err)
	require.Equal(t, licenses.StatusActive, lic.Status)
}

func TestGetLicenseCrossOrgDenied(t *testing.T) {
	svc := newService(newStubRepo(license(10, 9)))

	_, err := svc.Get(context.Background(), tenantAdmin(7), 10)

	var denial *authz.Denial
	require.ErrorAs(t, err, &denial)
	require.Equal(t, authz.ReasonOrgScope, denial.Decision.Reason)
}

func TestSetStatusCrossOrgDenied(t *testing.T) {
	repo := newStubRepo(license(10, 9))
	svc := newService(repo)

	_, err := svc.SetStatus(context.Background(), tenantAdmin(7), 10, licenses.StatusSuspended)

	var denial *authz.Denial
	require.ErrorAs(t, err, &denial)
	require.Equal(t, authz.ReasonOrgScope, denial.Decision.Reason)
	require.Empty(t, repo.statuses)
}

func TestSetStatusValidatesValue(t *testing.T) {
	repo := newStubRepo(license(10, 7))
	svc := newService(repo)

	_, err := svc.SetStatus(context.Background(), tenantAdmin(7), 10, "revoked")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestSetStatusInOwnOrg(t *testing.T) {
	repo := newStubRepo(license(10, 7))
	svc := newService(repo)

	lic, err := svc.SetStatus(context.Background(), tenantAdmin(7), 10, licenses.StatusSuspended)
	require.NoError(t, err)
	require.Equal(t, licenses.StatusSuspended, lic.Status)
	require.Equal(t, licenses.StatusSuspended, repo.statuses[10])
}
