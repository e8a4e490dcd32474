// Package tenant resolves the hotel a request belongs to and carries its
// embedded kiosk configuration: timezone, display name, check-in and
// check-out times, and amenities, per spec.md §4.10. Room inventory is not
// part of Tenant; it lives in internal/storage.
package tenant

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Tenant is one hotel's kiosk configuration.
type Tenant struct {
	ID            uuid.UUID
	Slug          string
	Name          string
	Timezone      string
	CheckInTime   string
	CheckOutTime  string
	Amenities     []string
}

// ErrNotFound is returned by Resolve when the slug does not match any
// configured tenant.
var ErrNotFound = notFoundErr{}

type notFoundErr struct{}

func (notFoundErr) Error() string { return "tenant not found" }

// Registry is a static, process-lifetime set of configured tenants keyed by
// slug. A kiosk deployment typically serves a small, fixed set of hotels, so
// this is loaded once at startup rather than queried per-request.
type Registry struct {
	bySlug map[string]*Tenant
}

// NewRegistry builds a registry from a list of tenants.
func NewRegistry(tenants []*Tenant) *Registry {
	r := &Registry{bySlug: make(map[string]*Tenant, len(tenants))}
	for _, t := range tenants {
		r.bySlug[t.Slug] = t
	}
	return r
}

// Lookup returns the tenant for slug, or ErrNotFound.
func (r *Registry) Lookup(slug string) (*Tenant, error) {
	t, ok := r.bySlug[strings.ToLower(strings.TrimSpace(slug))]
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

// SlugHeader is the fallback header carrying the tenant slug when it is not
// present in the URL path.
const SlugHeader = "x-tenant-slug"

// ResolveSlug extracts a tenant slug from the request: the path segment
// takes precedence over the header, so a spoofed header can never override
// the URL the request was actually routed to (spec.md §8 scenario 6).
func ResolveSlug(pathSlug string, r *http.Request) string {
	if strings.TrimSpace(pathSlug) != "" {
		return pathSlug
	}
	return r.Header.Get(SlugHeader)
}

// Resolve resolves the full Tenant for a request, given the tenant slug
// taken from the chi URL parameter (empty if the route has none).
func (r *Registry) Resolve(pathSlug string, req *http.Request) (*Tenant, error) {
	slug := ResolveSlug(pathSlug, req)
	if slug == "" {
		return nil, ErrNotFound
	}
	return r.Lookup(slug)
}
