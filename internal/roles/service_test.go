package roles_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amnabbouti/launchpad-api-sub000/internal/authz"
	"github.com/amnabbouti/launchpad-api-sub000/internal/platform/httpx"
	"github.com/amnabbouti/launchpad-api-sub000/internal/roles"
	_ "github.com/amnabbouti/launchpad-api-sub000/testing"
)

type stubRepo struct {
	byID    map[int64]*roles.Role
	created []*roles.Role
	updated []*roles.Role
	deleted []int64
	nextID  int64
}

func newStubRepo(seed ...*roles.Role) *stubRepo {
	r := &stubRepo{byID: make(map[int64]*roles.Role), nextID: 100}
	for _, role := range seed {
		r.byID[role.ID] = role
	}
	return r
}

func (r *stubRepo) List(context.Context) ([]roles.Role, error) {
	var out []roles.Role
	for _, role := range r.byID {
		out = append(out, *role)
	}
	return out, nil
}

func (r *stubRepo) FindByID(_ context.Context, id int64) (*roles.Role, error) {
	role, ok := r.byID[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *role
	return &copied, nil
}

func (r *stubRepo) Create(_ context.Context, role *roles.Role) error {
	r.nextID++
	role.ID = r.nextID
	role.CreatedAt = time.Now()
	role.UpdatedAt = role.CreatedAt
	r.byID[role.ID] = role
	r.created = append(r.created, role)
	return nil
}

func (r *stubRepo) Update(_ context.Context, role *roles.Role) error {
	r.byID[role.ID] = role
	r.updated = append(r.updated, role)
	return nil
}

func (r *stubRepo) Delete(_ context.Context, id int64) error {
	delete(r.byID, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *stubRepo) ForbiddenPermissions(_ context.Context, roleID int64) ([]string, error) {
	role, ok := r.byID[roleID]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return role.Forbidden, nil
}

func newService(repo roles.Repository) *roles.Service {
	gov := authz.NewGovernance(authz.NewCatalog())
	return roles.NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, gov)
}

func actor(id int64, org int64, slug string) *authz.Principal {
	return &authz.Principal{
		ID:    id,
		OrgID: &org,
		Role:  authz.RoleRef{ID: id, Slug: slug, IsSystem: true},
	}
}

func requiredForbidden() []string {
	return []string{"organizations.create", "organizations.delete", "roles.delete", "billing.manage"}
}

func TestCreatePersistsActorOrg(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo)

	role, err := svc.Create(context.Background(), actor(1, 7, authz.RoleAdmin), roles.CreateInput{
		Slug:      "auditor",
		Title:     "Auditor",
		Forbidden: append(requiredForbidden(), "items.delete"),
	})
	require.NoError(t, err)
	require.NotZero(t, role.ID)
	require.False(t, role.IsSystem)
	require.NotNil(t, role.OrgID)
	require.EqualValues(t, 7, *role.OrgID)
	require.Contains(t, role.Forbidden, "items.delete")
	require.Len(t, repo.created, 1)
}

func TestCreateReservedSlugRejected(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo)

	for _, slug := range []string{authz.RoleRoot, authz.RoleAdmin, authz.RoleManager, authz.RoleEmployee} {
		_, err := svc.Create(context.Background(), actor(1, 7, authz.RoleAdmin), roles.CreateInput{
			Slug:      slug,
			Title:     "Shadow",
			Forbidden: requiredForbidden(),
		})
		require.ErrorIs(t, err, httpx.ErrValidation, "slug %q", slug)
	}
	require.Empty(t, repo.created)
}

func TestCreateWithoutPermissionFieldsSkipsGovernance(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo)

	_, err := svc.Create(context.Background(), actor(1, 7, authz.RoleEmployee), roles.CreateInput{
		Slug:  "readonly",
		Title: "Read Only",
	})
	require.NoError(t, err)
}

func TestCreateDisallowedGrantRejected(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo)

	_, err := svc.Create(context.Background(), actor(1, 7, authz.RoleManager), roles.CreateInput{
		Slug:      "licensing",
		Title:     "Licensing",
		Forbidden: requiredForbidden(),
		Grants:    []string{"billing.manage", "items.view"},
	})

	var pve *roles.PermissionViolationError
	require.ErrorAs(t, err, &pve)
	require.False(t, pve.InvalidKeysOnly())
	found := false
	for _, v := range pve.Violations {
		if v.Code == authz.ViolationDisallowedGrant {
			found = true
			require.Equal(t, []string{"billing.manage"}, v.Permissions)
		}
	}
	require.True(t, found)
	require.Empty(t, repo.created)
}

func TestCreateMissingRequiredForbiddenRejected(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo)

	_, err := svc.Create(context.Background(), actor(1, 7, authz.RoleAdmin), roles.CreateInput{
		Slug:      "ops",
		Title:     "Ops",
		Forbidden: []string{"organizations.create", "organizations.delete"},
	})

	var pve *roles.PermissionViolationError
	require.ErrorAs(t, err, &pve)
	require.Len(t, pve.Violations, 1)
	require.Equal(t, authz.ViolationMissingRequiredForbidden, pve.Violations[0].Code)
	require.Equal(t, []string{"billing.manage", "roles.delete"}, pve.Violations[0].Permissions)
}

func TestCreateUnknownKeysAreValidationFailures(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo)

	_, err := svc.Create(context.Background(), actor(1, 7, authz.RoleRoot), roles.CreateInput{
		Slug:      "broken",
		Title:     "Broken",
		Forbidden: []string{"spaceships.launch"},
	})

	var pve *roles.PermissionViolationError
	require.ErrorAs(t, err, &pve)
	require.True(t, pve.InvalidKeysOnly())
	require.Equal(t, []string{"spaceships.launch"}, pve.Violations[0].Permissions)
}

func TestRootCreatesUnrestricted(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo)

	_, err := svc.Create(context.Background(), actor(1, 7, authz.RoleRoot), roles.CreateInput{
		Slug:      "anything",
		Title:     "Anything",
		Forbidden: []string{"items.view"},
		Grants:    []string{"billing.manage"},
	})
	require.NoError(t, err)
}

func TestUpdateSystemRoleForbidden(t *testing.T) {
	repo := newStubRepo(&roles.Role{ID: 1, Slug: authz.RoleAdmin, IsSystem: true})
	svc := newService(repo)

	title := "Renamed"
	_, err := svc.Update(context.Background(), actor(1, 7, authz.RoleRoot), 1, roles.UpdateInput{Title: &title})
	require.ErrorIs(t, err, httpx.ErrForbidden)
	require.Empty(t, repo.updated)
}

func TestUpdateEmptyForbiddenStillGoverned(t *testing.T) {
	org := int64(7)
	repo := newStubRepo(&roles.Role{ID: 5, Slug: "auditor", OrgID: &org, Forbidden: requiredForbidden()})
	svc := newService(repo)

	_, err := svc.Update(context.Background(), actor(1, 7, authz.RoleAdmin), 5, roles.UpdateInput{
		Forbidden:    []string{},
		ForbiddenSet: true,
	})

	var pve *roles.PermissionViolationError
	require.ErrorAs(t, err, &pve)
	require.Equal(t, authz.ViolationMissingRequiredForbidden, pve.Violations[0].Code)
}

func TestUpdateTitleOnlySkipsGovernance(t *testing.T) {
	org := int64(7)
	repo := newStubRepo(&roles.Role{ID: 5, Slug: "auditor", OrgID: &org, Forbidden: requiredForbidden()})
	svc := newService(repo)

	title := "Senior Auditor"
	role, err := svc.Update(context.Background(), actor(1, 7, authz.RoleEmployee), 5, roles.UpdateInput{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "Senior Auditor", role.Title)
	require.Equal(t, requiredForbidden(), role.Forbidden)
}

func TestDeleteSystemRoleForbidden(t *testing.T) {
	repo := newStubRepo(&roles.Role{ID: 1, Slug: authz.RoleEmployee, IsSystem: true})
	svc := newService(repo)

	err := svc.Delete(context.Background(), actor(1, 7, authz.RoleRoot), 1)
	require.ErrorIs(t, err, httpx.ErrForbidden)
	require.Empty(t, repo.deleted)
}

func TestDeleteCustomRole(t *testing.T) {
	org := int64(7)
	repo := newStubRepo(&roles.Role{ID: 5, Slug: "auditor", OrgID: &org})
	svc := newService(repo)

	require.NoError(t, svc.Delete(context.Background(), actor(1, 7, authz.RoleAdmin), 5))
	require.Equal(t, []int64{5}, repo.deleted)
}

func TestNilActorUnauthorized(t *testing.T) {
	svc := newService(newStubRepo())

	_, err := svc.Create(context.Background(), nil, roles.CreateInput{Slug: "x", Title: "X"})
	require.ErrorIs(t, err, httpx.ErrUnauthorized)

	err = svc.Delete(context.Background(), nil, 1)
	require.True(t, errors.Is(err, httpx.ErrUnauthorized))
}
