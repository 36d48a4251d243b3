// Package yield wraps the host platform's durable-continuation primitive:
// create a long-lived, uniquely addressable continuation when a task starts,
// and resolve it later with a result or a timeout signal, exactly once.
package yield

import "errors"

var (
	ErrUnknownCallback = errors.New("no callback registered under this name")
	ErrUnknownToken    = errors.New("unknown continuation token")
	ErrTokenResolved   = errors.New("continuation already resolved")
	// ErrTimedOut is the timeout signal delivered to a callback when the
	// host's horizon elapses before a resume.
	ErrTimedOut = errors.New("continuation timed out")
)

// Token is the opaque handle addressing a pending continuation.
type Token string

// Callback receives the resolving token and the original creation payload
// together with either the resumed result (err == nil) or a timeout signal
// (err == ErrTimedOut). The host invokes it exactly once per continuation.
// A non-nil return marks the delivering execution as failed on the host
// side; it does not trigger a retry.
type Callback func(token Token, payload []byte, result []byte, err error) error

// Host is the continuation primitive as seen by the ledger.
type Host interface {
	// Create registers a pending continuation addressed by the returned
	// token. The named callback will be invoked exactly once, no sooner
	// than a matching Resume and no later than the host's timeout horizon.
	Create(callback string, payload []byte) (Token, error)

	// Resume resolves the continuation with a result payload. Calling it
	// after the token resolved is rejected with ErrTokenResolved and must
	// not be assumed to retry.
	Resume(token Token, result []byte) error
}
