// Package accessctl implements the codehash gate: an allowlist of approved
// execution-environment fingerprints plus caller bindings recorded at
// registration time. A binding is usable only while its codehash remains
// approved, so revoking a codehash disables every bound caller at once.
package accessctl

import "errors"

var (
	ErrCodehashNotApproved = errors.New("codehash not approved")
	ErrNotRegistered       = errors.New("caller has no registered coordinator binding")
	ErrBindingRevoked      = errors.New("coordinator codehash is no longer approved")
)

// Binding ties a caller identity to the execution environment it
// registered under.
type Binding struct {
	Checksum string `json:"checksum"`
	Codehash string `json:"codehash"`
}

// Ledger holds the approved-codehash set and per-caller bindings.
// It is owned by the contract state object; callers serialize access.
type Ledger struct {
	approved map[string]struct{}
	bindings map[string]Binding
}

// NewLedger returns an empty access control ledger.
func NewLedger() *Ledger {
	return &Ledger{
		approved: make(map[string]struct{}),
		bindings: make(map[string]Binding),
	}
}

// Approve adds codehash to the approved set.
func (l *Ledger) Approve(codehash string) {
	l.approved[codehash] = struct{}{}
}

// Remove deletes codehash from the approved set. Every caller bound to it
// loses authorization immediately; bindings themselves are untouched.
func (l *Ledger) Remove(codehash string) {
	delete(l.approved, codehash)
}

// IsApproved reports set membership for codehash.
func (l *Ledger) IsApproved(codehash string) bool {
	_, ok := l.approved[codehash]
	return ok
}

// Register binds caller to codehash, gated on the codehash being approved
// at registration time.
func (l *Ledger) Register(caller, checksum, codehash string) error {
	if !l.IsApproved(codehash) {
		return ErrCodehashNotApproved
	}
	l.bindings[caller] = Binding{Checksum: checksum, Codehash: codehash}
	return nil
}

// Restore installs a binding without the approval gate. Used when
// rebuilding state from storage; the authorization check still applies
// at call time.
func (l *Ledger) Restore(caller string, b Binding) {
	l.bindings[caller] = b
}

// Binding returns the recorded binding for caller.
func (l *Ledger) Binding(caller string) (Binding, bool) {
	b, ok := l.bindings[caller]
	return b, ok
}

// IsBound reports whether caller has any binding, approved or not.
func (l *Ledger) IsBound(caller string) bool {
	_, ok := l.bindings[caller]
	return ok
}

// Authorize runs the two-layer gate: caller must be bound, and the bound
// codehash must still be approved at call time.
func (l *Ledger) Authorize(caller string) error {
	b, ok := l.bindings[caller]
	if !ok {
		return ErrNotRegistered
	}
	if !l.IsApproved(b.Codehash) {
		return ErrBindingRevoked
	}
	return nil
}
