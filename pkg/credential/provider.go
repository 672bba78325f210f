// Package credential defines the read-only credential source consumed by
// the data layer. Credential acquisition and refresh are handled upstream;
// this package only surfaces the current token and its validity.
package credential

// Provider supplies the current access credential.
// Implementations are never mutated by the data layer.
type Provider interface {
	// Token returns the current credential, or "" if none is available.
	Token() string

	// IsExpired reports whether the current credential is known-expired.
	IsExpired() bool
}

// Static is a fixed-token Provider, useful for tests and examples.
type Static struct {
	TokenValue string
	Expired    bool
}

func (s Static) Token() string   { return s.TokenValue }
func (s Static) IsExpired() bool { return s.Expired }
