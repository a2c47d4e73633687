package authz

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	resolver := NewResolver(NewCatalog())

	cases := []struct {
		name   string
		method string
		path   string
		want   string
	}{
		{"list items", http.MethodGet, "/api/v1/items", "items.view"},
		{"create item", http.MethodPost, "/api/v1/items", "items.create"},
		{"update item", http.MethodPut, "/api/v1/items/15", "items.update"},
		{"patch item", http.MethodPatch, "/api/v1/items/15", "items.update"},
		{"delete item", http.MethodDelete, "/api/v1/items/15", "items.delete"},
		{"no api prefix", http.MethodGet, "/v1/suppliers", "suppliers.view"},
		{"nested categories", http.MethodGet, "/api/v1/maintenances/8/categories", "maintenancecategories.view"},
		{"nested conditions", http.MethodPost, "/api/v1/maintenances/8/conditions", "maintenanceconditions.create"},
		{"maintenance itself", http.MethodGet, "/api/v1/maintenances/8", "maintenances.view"},
		{"billing area get", http.MethodGet, "/api/v1/billing/invoices", "billing.manage"},
		{"billing area post", http.MethodPost, "/api/v1/billing/portal", "billing.manage"},
		{"delete user", http.MethodDelete, "/v1/users/42", "users.delete"},
		{"delete organization", http.MethodDelete, "/v1/organizations/7", "organizations.delete"},
		{"case insensitive resource", http.MethodGet, "/api/v1/Items", "items.view"},
		{"no version marker", http.MethodGet, "/healthz", ""},
		{"version marker last", http.MethodGet, "/api/v1", ""},
		{"unsupported verb", http.MethodOptions, "/api/v1/items", ""},
		{"head is unmapped", http.MethodHead, "/api/v1/items", ""},
		{"v2 marker", http.MethodGet, "/api/v2/locations", "locations.view"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, resolver.Resolve(tc.method, tc.path))
		})
	}
}
