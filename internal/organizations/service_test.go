package organizations_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/amnabbouti/launchpad-api-sub000/internal/authz"
	"github.com/amnabbouti/launchpad-api-sub000/internal/organizations"
	"github.com/amnabbouti/launchpad-api-sub000/internal/platform/httpx"
	_ "github.com/amnabbouti/launchpad-api-sub000/testing"
)

type stubRepo struct {
	byID    map[int64]*organizations.Organization
	created []*organizations.Organization
	deleted []int64
}

func newStubRepo(seed ...*organizations.Organization) *stubRepo {
	r := &stubRepo{byID: make(map[int64]*organizations.Organization)}
	for _, org := range seed {
		r.byID[org.ID] = org
	}
	return r
}

func (r *stubRepo) List(context.Context) ([]organizations.Organization, error) {
	var out []organizations.Organization
	for _, org := range r.byID {
		out = append(out, *org)
	}
	return out, nil
}

func (r *stubRepo) FindByID(_ context.Context, id int64) (*organizations.Organization, error) {
	org, ok := r.byID[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *org
	return &copied, nil
}

func (r *stubRepo) Create(_ context.Context, org *organizations.Organization) error {
	org.ID = int64(len(r.byID) + 1)
	r.byID[org.ID] = org
	r.created = append(r.created, org)
	return nil
}

func (r *stubRepo) Update(_ context.Context, org *organizations.Organization) error {
	r.byID[org.ID] = org
	return nil
}

func (r *stubRepo) Delete(_ context.Context, id int64) error {
	delete(r.byID, id)
	r.deleted = append(r.deleted, id)
	return nil
}

type emptyRoleSource struct{}

func (emptyRoleSource) ForbiddenPermissions(context.Context, int64) ([]string, error) {
	return nil, nil
}

func newService(repo organizations.Repository) *organizations.Service {
	engine := authz.NewEngine(authz.NewCatalog(), emptyRoleSource{}, authz.EngineConfig{Production: true})
	return organizations.NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, engine)
}

func tenantAdmin(org int64) *authz.Principal {
	return &authz.Principal{
		ID:    1,
		OrgID: &org,
		Role:  authz.RoleRef{ID: 2, Slug: authz.RoleAdmin, IsSystem: true},
	}
}

func systemRoot() *authz.Principal {
	return &authz.Principal{
		ID:   99,
		Role: authz.RoleRef{ID: 1, Slug: authz.RoleRoot, IsSystem: true},
	}
}

func TestTenantCannotCreateOrganization(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo)

	_, err := svc.Create(context.Background(), tenantAdmin(7), organizations.CreateInput{Name: "Acme", Slug: "acme"})

	var denial *authz.Denial
	require.ErrorAs(t, err, &denial)
	require.Equal(t, authz.ReasonOrgScope, denial.Decision.Reason)
	require.Empty(t, repo.created)
}

func TestTenantCannotDeleteOwnOrganization(t *testing.T) {
	repo := newStubRepo(&organizations.Organization{ID: 7, Name: "Acme", Slug: "acme"})
	svc := newService(repo)

	err := svc.Delete(context.Background(), tenantAdmin(7), 7)

	var denial *authz.Denial
	require.ErrorAs(t, err, &denial)
	require.Equal(t, authz.ReasonOrgScope, denial.Decision.Reason)
	require.Empty(t, repo.deleted)
}

func TestTenantUpdatesOwnOrganization(t *testing.T) {
	repo := newStubRepo(&organizations.Organization{ID: 7, Name: "Acme", Slug: "acme", IsActive: true})
	svc := newService(repo)

	name := "Acme Industries"
	org, err := svc.Update(context.Background(), tenantAdmin(7), 7, organizations.UpdateInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Acme Industries", org.Name)
}

func TestTenantCannotUpdateOtherOrganization(t *testing.T) {
	repo := newStubRepo(&organizations.Organization{ID: 9, Name: "Rival", Slug: "rival"})
	svc := newService(repo)

	name := "Hijacked"
	_, err := svc.Update(context.Background(), tenantAdmin(7), 9, organizations.UpdateInput{Name: &name})

	var denial *authz.Denial
	require.ErrorAs(t, err, &denial)
	require.Equal(t, authz.ReasonOrgScope, denial.Decision.Reason)
}

func TestSystemRootManagesTenants(t *testing.T) {
	repo := newStubRepo(&organizations.Organization{ID: 7, Name: "Acme", Slug: "acme"})
	svc := newService(repo)

	created, err := svc.Create(context.Background(), systemRoot(), organizations.CreateInput{Name: "New", Slug: "new"})
	require.NoError(t, err)
	require.True(t, created.IsActive)

	require.NoError(t, svc.Delete(context.Background(), systemRoot(), 7))
	require.Equal(t, []int64{7}, repo.deleted)
}
