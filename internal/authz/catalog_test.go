package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalogForbiddenSetsContainOnlyValidKeys(t *testing.T) {
	catalog := NewCatalog()

	for _, slug := range []string{RoleRoot, RoleAdmin, RoleManager, RoleEmployee} {
		set, ok := catalog.ForbiddenSet(slug)
		require.True(t, ok, "missing forbidden set for %s", slug)
		for key := range set {
			require.True(t, catalog.IsValidKey(key), "role %s forbids unknown key %s", slug, key)
		}
	}
}

func TestCatalogGovernancePoliciesReferenceValidKeys(t *testing.T) {
	catalog := NewCatalog()

	for _, slug := range []string{RoleAdmin, RoleManager} {
		policy := catalog.Governance(slug)
		require.True(t, policy.CanEditPermissions)
		for _, key := range policy.DisallowedGrants {
			require.True(t, catalog.IsValidKey(key), "%s disallowed grant %s not in catalog", slug, key)
		}
		for _, key := range policy.RequiredForbidden {
			require.True(t, catalog.IsValidKey(key), "%s required forbidden %s not in catalog", slug, key)
		}
	}
}

func TestCatalogGovernanceTiers(t *testing.T) {
	catalog := NewCatalog()

	require.True(t, catalog.Governance(RoleRoot).Unrestricted)
	require.False(t, catalog.Governance(RoleEmployee).CanEditPermissions)
	// Custom roles and unknown slugs get the zero, most restrictive policy.
	require.False(t, catalog.Governance("warehouse-lead").CanEditPermissions)
}

func TestCatalogKeyShapes(t *testing.T) {
	catalog := NewCatalog()

	require.True(t, catalog.IsValidKey("items.view"))
	require.True(t, catalog.IsValidKey("users.delete.others"))
	require.True(t, catalog.IsValidKey("users.update.admin"))
	require.True(t, catalog.IsValidKey(PermBillingManage))
	require.False(t, catalog.IsValidKey("items.fly"))
	require.False(t, catalog.IsValidKey("wormholes.view"))
	require.False(t, catalog.IsValidKey("items.view.others"))
}

func TestCatalogEmployeeForbiddenCoversWrites(t *testing.T) {
	catalog := NewCatalog()
	set, ok := catalog.ForbiddenSet(RoleEmployee)
	require.True(t, ok)

	require.Contains(t, set, "items.create")
	require.Contains(t, set, "suppliers.delete")
	require.Contains(t, set, PermBillingManage)
	require.NotContains(t, set, "items.view")
}

func TestCatalogSubResourcesAndAdminAreas(t *testing.T) {
	catalog := NewCatalog()

	resource, ok := catalog.SubResource("maintenances", "categories")
	require.True(t, ok)
	require.Equal(t, "maintenancecategories", resource)

	resource, ok = catalog.SubResource("maintenances", "conditions")
	require.True(t, ok)
	require.Equal(t, "maintenanceconditions", resource)

	_, ok = catalog.SubResource("items", "categories")
	require.False(t, ok)

	key, ok := catalog.AdminArea("billing")
	require.True(t, ok)
	require.Equal(t, PermBillingManage, key)
}
