package coordinator

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/shadeboard/coordinator/x/hashing"
	"github.com/shadeboard/coordinator/x/proposal"
)

func TestSetManifesto(t *testing.T) {
	st := newFakeStore()
	host := newFakeHost()
	l, err := New(zerolog.Nop(), WithOwner(testOwner), WithStore(st), WithHost(host))
	require.NoError(t, err)

	require.ErrorIs(t, l.SetManifesto("stranger.near", "policy"), ErrNotOwner)
	require.Nil(t, l.GetManifesto())

	require.NoError(t, l.SetManifesto(testOwner, "We vote for good things."))
	m := l.GetManifesto()
	require.NotNil(t, m)
	require.Equal(t, "We vote for good things.", m.Text)
	require.Equal(t, hashing.Fingerprint("We vote for good things."), m.Fingerprint)
	require.Len(t, m.Fingerprint, hashing.FingerprintLen)

	long := make([]byte, MaxConfigLen+1)
	require.ErrorIs(t, l.SetManifesto(testOwner, string(long)), ErrManifestoLong)
}

func TestCodehashAdministration(t *testing.T) {
	l, _, _ := newTestLedger(t)

	require.True(t, l.IsCodehashApproved("hash-a"))
	require.False(t, l.IsCodehashApproved("hash-b"))

	require.ErrorIs(t, l.ApproveCodehash("stranger.near", "hash-b"), ErrNotOwner)
	require.ErrorIs(t, l.RemoveCodehash("stranger.near", "hash-a"), ErrNotOwner)

	require.NoError(t, l.RemoveCodehash(testOwner, "hash-a"))
	require.False(t, l.IsCodehashApproved("hash-a"))
}

func TestRegisterCoordinatorGate(t *testing.T) {
	l, st, _ := newTestLedger(t)

	// Registration is open to any caller but gated by the approved set.
	err := l.RegisterCoordinator("other.near", "cs-2", "hash-unknown")
	require.Error(t, err)

	require.NoError(t, l.RegisterCoordinator("other.near", "cs-2", "hash-a"))
	require.Equal(t, "hash-a", st.bindings["other.near"].Codehash)
}

func TestClearProposal(t *testing.T) {
	l, _, _ := newTestLedger(t)
	id, err := l.StartTask("alice.near", "cfg-A")
	require.NoError(t, err)

	require.ErrorIs(t, l.ClearProposal(testCoord, id), ErrNotOwner)

	require.NoError(t, l.ClearProposal(testOwner, id))
	_, ok := l.GetProposal(id)
	require.False(t, ok)

	// Purge is idempotent-unsafe: clearing again fails loudly.
	require.ErrorIs(t, l.ClearProposal(testOwner, id), ErrProposalNotFound)

	// The id is never reused.
	id2, err := l.StartTask("alice.near", "cfg-B")
	require.NoError(t, err)
	require.Equal(t, id+1, id2)
}

func TestWorkerRegistrationRoles(t *testing.T) {
	l, _, _ := newTestLedger(t)

	// Owner and a bound coordinator may register; strangers may not.
	require.NoError(t, l.RegisterWorker(testOwner, "w1", nil))
	require.NoError(t, l.RegisterWorker(testCoord, "w2", nil))
	require.Error(t, l.RegisterWorker("stranger.near", "w3", nil))

	// Revoking the coordinator's codehash also revokes registry management.
	require.NoError(t, l.RemoveCodehash(testOwner, "hash-a"))
	require.Error(t, l.RegisterWorker(testCoord, "w4", nil))

	got := l.GetRegisteredWorkers()
	require.Len(t, got, 2)
	require.Equal(t, "w1", got[0].WorkerID)
	require.Equal(t, testOwner, got[0].RegisteredBy)
	require.Equal(t, "w2", got[1].WorkerID)
	require.Equal(t, testCoord, got[1].RegisteredBy)
}

func TestWorkerLifecycleViews(t *testing.T) {
	l, _, _ := newTestLedger(t)
	account := "w1.near"
	require.NoError(t, l.RegisterWorker(testOwner, "w1", &account))
	require.NoError(t, l.RegisterWorker(testOwner, "w2", nil))

	require.True(t, l.IsWorkerRegistered("w1"))
	require.Equal(t, 2, l.GetWorkerCount())

	require.NoError(t, l.DeactivateWorker(testOwner, "w1"))
	require.False(t, l.IsWorkerRegistered("w1"))
	require.Equal(t, 1, l.GetWorkerCount())
	require.Len(t, l.GetActiveWorkers(), 1)
	require.Len(t, l.GetRegisteredWorkers(), 2)

	require.NoError(t, l.ActivateWorker(testOwner, "w1"))
	require.True(t, l.IsWorkerRegistered("w1"))

	require.Error(t, l.DeactivateWorker(testOwner, "missing"))
	require.Error(t, l.ActivateWorker(testOwner, "missing"))
}

func TestRemoveWorker(t *testing.T) {
	l, _, _ := newTestLedger(t)
	require.NoError(t, l.RegisterWorker(testOwner, "w1", nil))

	require.ErrorIs(t, l.RemoveWorker(testCoord, "w1"), ErrNotOwner)
	require.NoError(t, l.RemoveWorker(testOwner, "w1"))
	require.Error(t, l.RemoveWorker(testOwner, "w1"))
}

func TestTransferOwnership(t *testing.T) {
	l, _, _ := newTestLedger(t)

	require.ErrorIs(t, l.TransferOwnership(testCoord, testCoord), ErrNotOwner)

	require.NoError(t, l.TransferOwnership(testOwner, "new-owner.near"))
	require.Equal(t, "new-owner.near", l.GetOwner())

	// The old owner lost the admin role.
	require.ErrorIs(t, l.ApproveCodehash(testOwner, "hash-b"), ErrNotOwner)
	require.NoError(t, l.ApproveCodehash("new-owner.near", "hash-b"))
}

func TestStateSurvivesRestart(t *testing.T) {
	st := newFakeStore()
	host := newFakeHost()
	l, err := New(zerolog.Nop(), WithOwner(testOwner), WithStore(st), WithHost(host))
	require.NoError(t, err)

	require.NoError(t, l.SetManifesto(testOwner, "policy"))
	require.NoError(t, l.ApproveCodehash(testOwner, "hash-a"))
	require.NoError(t, l.RegisterCoordinator(testCoord, "cs", "hash-a"))
	require.NoError(t, l.RegisterWorker(testOwner, "w1", nil))
	id, err := l.StartTask("alice.near", "cfg-A")
	require.NoError(t, err)
	require.NoError(t, l.RecordWorkerSubmissions(testCoord, id, []proposal.SubmissionInput{
		{WorkerID: "w1", ResultFingerprint: "r1"},
	}))

	// A second ledger over the same store picks up everything. The host
	// outlives the ledger, so pending continuations stay resumable.
	restarted, err := New(zerolog.Nop(), WithStore(st), WithHost(host))
	require.NoError(t, err)

	require.Equal(t, testOwner, restarted.GetOwner())
	require.Equal(t, id, restarted.GetCurrentProposalID())
	require.NotNil(t, restarted.GetManifesto())
	require.True(t, restarted.IsCodehashApproved("hash-a"))
	require.True(t, restarted.IsWorkerRegistered("w1"))

	p, ok := restarted.GetProposal(id)
	require.True(t, ok)
	require.Equal(t, proposal.StateWorkersCompleted, p.State)
	require.Len(t, p.WorkerSubmissions, 1)

	// The restored binding still gates calls.
	err = restarted.CoordinatorResume("stranger.near", id, "final",
		hashing.Fingerprint("cfg-A"), hashing.Fingerprint("final"))
	require.ErrorIs(t, err, ErrUnauthorized)
	require.NoError(t, restarted.CoordinatorResume(testCoord, id, "final",
		hashing.Fingerprint("cfg-A"), hashing.Fingerprint("final")))
}
