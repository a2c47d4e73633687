package authz

// System role slugs, fixed at build time.
const (
	RoleRoot     = "root"
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

var systemRoleSlugs = []string{RoleRoot, RoleAdmin, RoleManager, RoleEmployee}

// IsSystemRoleSlug reports whether slug names a built-in role. The names are
// reserved: a custom role may not take one, or slug-keyed checks such as the
// root bypass would be forgeable by tenants.
func IsSystemRoleSlug(slug string) bool {
	for _, s := range systemRoleSlugs {
		if slug == s {
			return true
		}
	}
	return false
}

// PermBillingManage is the single fixed key for the billing area; every verb
// under it resolves to this permission.
const PermBillingManage = "billing.manage"

// Actions derived from HTTP verbs.
const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Target-type qualifiers relative to the acting principal.
const (
	QualifierSelf   = "self"
	QualifierOthers = "others"
)

var catalogResources = []string{
	"items",
	"categories",
	"locations",
	"suppliers",
	"maintenances",
	"maintenancecategories",
	"maintenanceconditions",
	"attachments",
	"statuses",
	"users",
	"organizations",
	"roles",
	"userlicenses",
	"plans",
}

var catalogActions = []string{ActionView, ActionCreate, ActionUpdate, ActionDelete}

// mutating actions used when deriving the employee forbidden set.
var writeActions = []string{ActionCreate, ActionUpdate, ActionDelete}

// GovernancePolicy describes what a system role may do to permission lists
// when creating or updating roles.
type GovernancePolicy struct {
	// Unrestricted roles may grant or forbid anything in the catalog.
	Unrestricted bool
	// CanEditPermissions gates whether permission lists may be touched at all.
	CanEditPermissions bool
	// DisallowedGrants lists permissions the role may never hand out.
	DisallowedGrants []string
	// RequiredForbidden lists permissions every role it creates must forbid.
	RequiredForbidden []string
}

// Catalog is the immutable permission table: every valid permission key, the
// per-system-role forbidden sets, the governance policies and the scope and
// routing data the resolver and engine consult. Built once at process start
// and shared by reference.
type Catalog struct {
	keys        map[string]struct{}
	forbidden   map[string]map[string]struct{}
	governance  map[string]GovernancePolicy
	orgAgnostic map[string]struct{}
	subResource map[string]map[string]string
	adminAreas  map[string]string
}

// NewCatalog builds the catalog.
func NewCatalog() *Catalog {
	c := &Catalog{
		keys:        make(map[string]struct{}),
		forbidden:   make(map[string]map[string]struct{}),
		governance:  make(map[string]GovernancePolicy),
		orgAgnostic: map[string]struct{}{"roles": {}, "plans": {}, "statuses": {}},
		subResource: map[string]map[string]string{
			"maintenances": {
				"categories": "maintenancecategories",
				"conditions": "maintenanceconditions",
			},
		},
		adminAreas: map[string]string{
			"billing": PermBillingManage,
		},
	}

	for _, resource := range catalogResources {
		for _, action := range catalogActions {
			c.addKey(resource + "." + action)
			if resource == "users" {
				c.addKey("users." + action + "." + QualifierSelf)
				c.addKey("users." + action + "." + QualifierOthers)
				for _, slug := range systemRoleSlugs {
					c.addKey("users." + action + "." + slug)
				}
			}
		}
	}
	c.addKey(PermBillingManage)

	// Organization creation and deletion are absent here on purpose: the
	// engine's scope rules reserve them to system scope for every tenant
	// principal, so listing them per role would only change the reported
	// denial reason.
	adminForbidden := []string{
		"roles.delete",
		"users.update." + RoleRoot,
		"users.delete." + RoleRoot,
	}
	managerForbidden := append([]string{
		"organizations.update",
		"roles.create",
		"roles.update",
		"users.create",
		"users.update." + RoleAdmin,
		"users.delete." + RoleAdmin,
		"userlicenses.update",
		PermBillingManage,
	}, adminForbidden...)

	employeeForbidden := []string{PermBillingManage}
	for _, resource := range catalogResources {
		for _, action := range writeActions {
			employeeForbidden = append(employeeForbidden, resource+"."+action)
		}
	}

	c.forbidden[RoleRoot] = map[string]struct{}{}
	c.forbidden[RoleAdmin] = keySet(adminForbidden)
	c.forbidden[RoleManager] = keySet(managerForbidden)
	c.forbidden[RoleEmployee] = keySet(employeeForbidden)

	requiredForbidden := []string{
		"organizations.create",
		"organizations.delete",
		"roles.delete",
		PermBillingManage,
	}
	systemOnly := []string{"organizations.create", "organizations.delete"}
	c.governance[RoleRoot] = GovernancePolicy{Unrestricted: true, CanEditPermissions: true}
	c.governance[RoleAdmin] = GovernancePolicy{
		CanEditPermissions: true,
		DisallowedGrants:   append(systemOnly, adminForbidden...),
		RequiredForbidden:  requiredForbidden,
	}
	c.governance[RoleManager] = GovernancePolicy{
		CanEditPermissions: true,
		DisallowedGrants:   append(systemOnly, managerForbidden...),
		RequiredForbidden:  requiredForbidden,
	}
	c.governance[RoleEmployee] = GovernancePolicy{}

	return c
}

func (c *Catalog) addKey(key string) {
	c.keys[key] = struct{}{}
}

// IsValidKey reports whether the key exists in the catalog.
func (c *Catalog) IsValidKey(key string) bool {
	_, ok := c.keys[key]
	return ok
}

// Keys returns all valid permission keys.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.keys))
	for k := range c.keys {
		keys = append(keys, k)
	}
	return keys
}

// ForbiddenSet returns the canonical forbidden set of a system role. The
// second return is false for unknown slugs.
func (c *Catalog) ForbiddenSet(slug string) (map[string]struct{}, bool) {
	set, ok := c.forbidden[slug]
	return set, ok
}

// Governance returns the governance policy of a system role. Unknown slugs,
// including custom roles, get the most restrictive policy: permission lists
// may not be touched.
func (c *Catalog) Governance(slug string) GovernancePolicy {
	if policy, ok := c.governance[slug]; ok {
		return policy
	}
	return GovernancePolicy{}
}

// IsOrgAgnostic reports whether a resource type is exempt from the
// organization-scope check.
func (c *Catalog) IsOrgAgnostic(resource string) bool {
	_, ok := c.orgAgnostic[resource]
	return ok
}

// SubResource maps a nested path fragment under a parent resource to the
// resource its permissions are keyed on, e.g. maintenances/{id}/categories.
func (c *Catalog) SubResource(parent, fragment string) (string, bool) {
	overrides, ok := c.subResource[parent]
	if !ok {
		return "", false
	}
	resource, ok := overrides[fragment]
	return resource, ok
}

// AdminArea maps an administrative path fragment to its fixed permission key.
func (c *Catalog) AdminArea(fragment string) (string, bool) {
	key, ok := c.adminAreas[fragment]
	return key, ok
}

func keySet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}
