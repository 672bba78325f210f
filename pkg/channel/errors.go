package channel

import (
	"errors"
	"fmt"
)

// Precondition errors returned synchronously by Connect. Both are distinct
// from network failures so callers can tell "needs a new credential" from
// "network is down".
var (
	// ErrNoCredential is returned when Connect is called without a
	// credential provider or with an empty token.
	ErrNoCredential = errors.New("no credential available")

	// ErrCredentialExpired is returned when the credential is already
	// known-expired. No connection attempt is made.
	ErrCredentialExpired = errors.New("credential expired")
)

// ConnectError wraps a failed connection attempt. It is retriable and is
// handled inside the reconnect loop; it never reaches subscribers.
type ConnectError struct {
	Attempt int
	Err     error
}

// Error implements the error interface.
func (e *ConnectError) Error() string {
	return fmt.Sprintf("channel connect attempt %d failed: %v", e.Attempt, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ConnectError) Unwrap() error {
	return e.Err
}
