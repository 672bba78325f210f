package cache

import (
	"fmt"
	"sort"
	"strings"
)

// Fingerprint identifies a dashboard API request for caching purposes.
// Two logically identical requests issued for different tenants must
// produce different fingerprint strings; the tenant segment is what keeps
// cached data partitioned per site.
type Fingerprint struct {
	// Method is the HTTP method (e.g. "GET").
	Method string

	// Endpoint is the dashboard API path (e.g. "/api/venues/occupancy").
	Endpoint string

	// TenantID is the active site identifier ("" for tenant-less requests).
	TenantID string

	// Params are the request parameters (query or body, flattened).
	Params map[string]string
}

// TenantSegment returns the fingerprint segment encoding the given tenant.
// Invalidation predicates match on this segment for bulk removal.
func TenantSegment(tenantID string) string {
	return fmt.Sprintf("tenant=%s", tenantID)
}

// TenantPredicate returns an invalidation predicate matching every
// fingerprint produced for the given tenant and no fingerprint of any
// other tenant.
func TenantPredicate(tenantID string) func(string) bool {
	prefix := "req:" + TenantSegment(tenantID) + ":"
	return func(fingerprint string) bool {
		return strings.HasPrefix(fingerprint, prefix)
	}
}

// String generates a deterministic fingerprint string.
// Format: req:tenant=siteA:GET:api/venues/occupancy:param1=val1:param2=val2
//
// Parameters are sorted by key so logically identical requests always
// yield the same string.
func (f Fingerprint) String() string {
	parts := []string{"req", TenantSegment(f.TenantID), strings.ToUpper(f.Method)}

	endpoint := strings.Trim(f.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(f.Params) > 0 {
		keys := make([]string, 0, len(f.Params))
		for key := range f.Params {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, f.Params[key]))
		}
	}

	return strings.Join(parts, ":")
}
