package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func systemRole(slug string) RoleRef {
	return RoleRef{ID: 1, Slug: slug, IsSystem: true}
}

func requiredForbiddenKeys(catalog *Catalog) []string {
	return catalog.Governance(RoleAdmin).RequiredForbidden
}

func TestGovernanceRootUnrestricted(t *testing.T) {
	gov := NewGovernance(NewCatalog())

	violations := gov.Validate(systemRole(RoleRoot),
		nil,
		[]string{"organizations.delete", "roles.delete", PermBillingManage})
	require.Empty(t, violations)
}

func TestGovernanceInvalidKeysReportedOnce(t *testing.T) {
	gov := NewGovernance(NewCatalog())

	violations := gov.Validate(systemRole(RoleRoot),
		[]string{"items.fly", "wormholes.view"},
		[]string{"items.fly"})
	require.Len(t, violations, 1)
	require.Equal(t, ViolationInvalidPermission, violations[0].Code)
	require.Equal(t, []string{"items.fly", "wormholes.view"}, violations[0].Permissions)
}

func TestGovernanceMidTierDisallowedGrant(t *testing.T) {
	catalog := NewCatalog()
	gov := NewGovernance(catalog)

	violations := gov.Validate(systemRole(RoleManager),
		requiredForbiddenKeys(catalog),
		[]string{"organizations.delete", "items.view", PermBillingManage})

	require.Len(t, violations, 1)
	require.Equal(t, ViolationDisallowedGrant, violations[0].Code)
	require.Equal(t, []string{PermBillingManage, "organizations.delete"}, violations[0].Permissions)
}

func TestGovernanceMissingRequiredForbidden(t *testing.T) {
	catalog := NewCatalog()
	gov := NewGovernance(catalog)

	// Omit roles.delete and billing.manage from the forbidden list.
	violations := gov.Validate(systemRole(RoleAdmin),
		[]string{"organizations.create", "organizations.delete"},
		nil)

	require.Len(t, violations, 1)
	require.Equal(t, ViolationMissingRequiredForbidden, violations[0].Code)
	require.Equal(t, []string{PermBillingManage, "roles.delete"}, violations[0].Permissions)
}

func TestGovernanceCompliantMidTierRequest(t *testing.T) {
	catalog := NewCatalog()
	gov := NewGovernance(catalog)

	violations := gov.Validate(systemRole(RoleAdmin),
		requiredForbiddenKeys(catalog),
		[]string{"items.view", "items.create", "users.view"})
	require.Empty(t, violations)
}

func TestGovernanceLowestTierMayNotTouchPermissions(t *testing.T) {
	gov := NewGovernance(NewCatalog())

	violations := gov.Validate(systemRole(RoleEmployee), nil, []string{"items.view"})
	require.Len(t, violations, 1)
	require.Equal(t, ViolationPermissionEditNotAllowed, violations[0].Code)

	// Not touching permission lists at all is fine.
	require.Empty(t, gov.Validate(systemRole(RoleEmployee), nil, nil))
}

func TestGovernanceCustomRoleActorTreatedAsRestricted(t *testing.T) {
	gov := NewGovernance(NewCatalog())

	actor := RoleRef{ID: 9, Slug: "warehouse-lead", IsSystem: false}
	violations := gov.Validate(actor, []string{"items.delete"}, nil)
	require.Len(t, violations, 1)
	require.Equal(t, ViolationPermissionEditNotAllowed, violations[0].Code)
}
