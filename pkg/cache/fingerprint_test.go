package cache

import (
	"testing"
)

func TestFingerprint_String(t *testing.T) {
	tests := []struct {
		name        string
		fingerprint Fingerprint
		want        string
	}{
		{
			name: "simple endpoint no params",
			fingerprint: Fingerprint{
				Method:   "GET",
				Endpoint: "/api/venues/",
				TenantID: "siteA",
			},
			want: "req:tenant=siteA:GET:api/venues",
		},
		{
			name: "endpoint with params",
			fingerprint: Fingerprint{
				Method:   "GET",
				Endpoint: "/api/venues/occupancy/",
				TenantID: "siteA",
				Params:   map[string]string{"range": "1h"},
			},
			want: "req:tenant=siteA:GET:api/venues/occupancy:range=1h",
		},
		{
			name: "params sorted by key",
			fingerprint: Fingerprint{
				Method:   "GET",
				Endpoint: "/api/metrics/",
				TenantID: "siteB",
				Params: map[string]string{
					"to":    "2026-02-01",
					"from":  "2026-01-01",
					"gates": "north",
				},
			},
			want: "req:tenant=siteB:GET:api/metrics:from=2026-01-01:gates=north:to=2026-02-01",
		},
		{
			name: "method upper-cased",
			fingerprint: Fingerprint{
				Method:   "get",
				Endpoint: "/api/venues/",
				TenantID: "siteA",
			},
			want: "req:tenant=siteA:GET:api/venues",
		},
		{
			name: "empty tenant",
			fingerprint: Fingerprint{
				Method:   "GET",
				Endpoint: "/api/status/",
			},
			want: "req:tenant=:GET:api/status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fingerprint.String()
			if got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFingerprint_TenantIsolation(t *testing.T) {
	base := Fingerprint{
		Method:   "GET",
		Endpoint: "/api/venues/occupancy/",
		Params:   map[string]string{"range": "1h"},
	}

	a := base
	a.TenantID = "siteA"
	b := base
	b.TenantID = "siteB"

	if a.String() == b.String() {
		t.Errorf("identical requests for different tenants produced the same fingerprint: %q", a.String())
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	fp := Fingerprint{
		Method:   "GET",
		Endpoint: "/api/metrics/",
		TenantID: "siteA",
		Params: map[string]string{
			"a": "1",
			"b": "2",
			"c": "3",
			"d": "4",
		},
	}

	first := fp.String()
	for i := 0; i < 20; i++ {
		if got := fp.String(); got != first {
			t.Fatalf("String() not deterministic: got %q, want %q", got, first)
		}
	}
}

func TestTenantPredicate(t *testing.T) {
	predicate := TenantPredicate("siteA")

	siteA := Fingerprint{Method: "GET", Endpoint: "/api/venues/", TenantID: "siteA"}
	siteB := Fingerprint{Method: "GET", Endpoint: "/api/venues/", TenantID: "siteB"}

	if !predicate(siteA.String()) {
		t.Errorf("predicate should match siteA fingerprint %q", siteA.String())
	}
	if predicate(siteB.String()) {
		t.Errorf("predicate should not match siteB fingerprint %q", siteB.String())
	}
}

func TestTenantPredicate_PrefixTenant(t *testing.T) {
	// A tenant id that is a prefix of another must not match the longer id.
	predicate := TenantPredicate("site")

	other := Fingerprint{Method: "GET", Endpoint: "/api/venues/", TenantID: "siteA"}
	if predicate(other.String()) {
		t.Errorf("predicate for %q should not match fingerprint for tenant %q", "site", "siteA")
	}
}
