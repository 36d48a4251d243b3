package accessctl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterRequiresApprovedCodehash(t *testing.T) {
	l := NewLedger()

	err := l.Register("coord.near", "checksum-1", "hash-a")
	require.ErrorIs(t, err, ErrCodehashNotApproved)
	require.False(t, l.IsBound("coord.near"))

	l.Approve("hash-a")
	require.NoError(t, l.Register("coord.near", "checksum-1", "hash-a"))
	require.NoError(t, l.Authorize("coord.near"))
}

func TestAuthorizeUnknownCaller(t *testing.T) {
	l := NewLedger()
	require.ErrorIs(t, l.Authorize("stranger.near"), ErrNotRegistered)
}

func TestRevocationDisablesAllBoundCallers(t *testing.T) {
	l := NewLedger()
	l.Approve("hash-a")
	require.NoError(t, l.Register("coord-1", "cs-1", "hash-a"))
	require.NoError(t, l.Register("coord-2", "cs-2", "hash-a"))

	l.Remove("hash-a")

	// Both callers lose authorization without any binding mutation.
	require.ErrorIs(t, l.Authorize("coord-1"), ErrBindingRevoked)
	require.ErrorIs(t, l.Authorize("coord-2"), ErrBindingRevoked)
	require.True(t, l.IsBound("coord-1"))
	require.True(t, l.IsBound("coord-2"))

	// Re-approving the codehash restores both, again without re-registration.
	l.Approve("hash-a")
	require.NoError(t, l.Authorize("coord-1"))
	require.NoError(t, l.Authorize("coord-2"))
}

func TestRevocationScopedToCodehash(t *testing.T) {
	l := NewLedger()
	l.Approve("hash-a")
	l.Approve("hash-b")
	require.NoError(t, l.Register("coord-1", "cs-1", "hash-a"))
	require.NoError(t, l.Register("coord-2", "cs-2", "hash-b"))

	l.Remove("hash-a")

	require.ErrorIs(t, l.Authorize("coord-1"), ErrBindingRevoked)
	require.NoError(t, l.Authorize("coord-2"))
}

func TestRestoreSkipsApprovalGate(t *testing.T) {
	l := NewLedger()
	l.Restore("coord-1", Binding{Checksum: "cs-1", Codehash: "hash-a"})

	// Binding exists but is not usable until the codehash is approved.
	require.True(t, l.IsBound("coord-1"))
	require.ErrorIs(t, l.Authorize("coord-1"), ErrBindingRevoked)

	l.Approve("hash-a")
	require.NoError(t, l.Authorize("coord-1"))
}
