package authz

import (
	"net/http"
	"strings"
)

// Resolver derives the permission key required by an inbound request from its
// HTTP method and path. Stateless; the mapping tables live in the catalog.
type Resolver struct {
	catalog *Catalog
}

// NewResolver constructs a Resolver.
func NewResolver(catalog *Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve returns the permission key for the request, or "" when no specific
// permission can be derived. Callers decide how to treat unmapped routes.
func (r *Resolver) Resolve(method, path string) string {
	segments := splitPath(path)
	if len(segments) == 0 {
		return ""
	}

	// Administrative areas carry one fixed permission regardless of verb.
	for _, segment := range segments {
		if key, ok := r.catalog.AdminArea(segment); ok {
			return key
		}
	}

	version := -1
	for i, segment := range segments {
		if isVersionMarker(segment) {
			version = i
			break
		}
	}
	if version < 0 || version+1 >= len(segments) {
		return ""
	}
	resource := strings.ToLower(segments[version+1])

	// Nested sub-resources map to their own permission family.
	for _, segment := range segments[version+2:] {
		if override, ok := r.catalog.SubResource(resource, strings.ToLower(segment)); ok {
			resource = override
			break
		}
	}

	action := actionForMethod(method)
	if action == "" {
		return ""
	}
	return resource + "." + action
}

func actionForMethod(method string) string {
	switch method {
	case http.MethodGet:
		return ActionView
	case http.MethodPost:
		return ActionCreate
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate
	case http.MethodDelete:
		return ActionDelete
	default:
		return ""
	}
}

func isVersionMarker(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for _, ch := range segment[1:] {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}
