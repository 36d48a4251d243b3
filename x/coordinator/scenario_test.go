package coordinator

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/shadeboard/coordinator/x/hashing"
	"github.com/shadeboard/coordinator/x/proposal"
	"github.com/shadeboard/coordinator/x/yield"
)

// TestFullCoordinationRoundTrip walks one task through its entire life:
// start, duplicate-batch rejection, submission, resume, finalize.
func TestFullCoordinationRoundTrip(t *testing.T) {
	l, _, host := newTestLedger(t)
	registerWorkers(t, l, "w1")

	id, err := l.StartTask("alice.near", "cfg-A")
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)
	p, _ := l.GetProposal(id)
	require.Equal(t, hashing.Fingerprint("cfg-A"), p.ConfigFingerprint)

	// Duplicate worker in one batch: whole call fails, zero submissions.
	err = l.RecordWorkerSubmissions(testCoord, id, []proposal.SubmissionInput{
		{WorkerID: "w1", ResultFingerprint: "r1"},
		{WorkerID: "w1", ResultFingerprint: "r2"},
	})
	require.ErrorIs(t, err, ErrDuplicateSubmission)
	require.Empty(t, l.GetWorkerSubmissions(id))

	require.NoError(t, l.RecordWorkerSubmissions(testCoord, id, []proposal.SubmissionInput{
		{WorkerID: "w1", ResultFingerprint: "r1"},
	}))
	p, _ = l.GetProposal(id)
	require.Equal(t, proposal.StateWorkersCompleted, p.State)

	require.NoError(t, l.CoordinatorResume(testCoord, id, "final",
		hashing.Fingerprint("cfg-A"), hashing.Fingerprint("final")))
	require.NoError(t, host.deliverResume(yield.Token(p.ContinuationToken)))

	p, _ = l.GetProposal(id)
	require.Equal(t, proposal.StateFinalized, p.State)
	require.Equal(t, "final", *p.FinalizedResult)

	// Second resume fails: the proposal left WorkersCompleted.
	err = l.CoordinatorResume(testCoord, id, "final",
		hashing.Fingerprint("cfg-A"), hashing.Fingerprint("final"))
	require.ErrorIs(t, err, ErrNotAwaitingResume)
}

// localHostLedger wires the ledger to the real in-process continuation
// host, with fake timers driving the horizon.
func localHostLedger(t *testing.T) (*Ledger, *yield.LocalHost, *hostTimers) {
	t.Helper()

	timers := &hostTimers{}
	host := yield.NewLocalHost(yield.Config{Horizon: time.Minute, Timers: timers}, zerolog.Nop())
	l, err := New(zerolog.Nop(),
		WithOwner(testOwner),
		WithStore(newFakeStore()),
		WithHost(host),
	)
	require.NoError(t, err)
	require.NoError(t, l.SetManifesto(testOwner, "policy"))
	require.NoError(t, l.ApproveCodehash(testOwner, "hash-a"))
	require.NoError(t, l.RegisterCoordinator(testCoord, "cs", "hash-a"))
	return l, host, timers
}

type hostTimer struct {
	mu      sync.Mutex
	fn      func()
	stopped bool
}

func (t *hostTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := t.stopped
	t.stopped = true
	return !was
}

func (t *hostTimer) fire() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	fn := t.fn
	t.mu.Unlock()
	fn()
}

type hostTimers struct {
	mu     sync.Mutex
	timers []*hostTimer
}

func (f *hostTimers) AfterFunc(_ time.Duration, fn func()) yield.Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	timer := &hostTimer{fn: fn}
	f.timers = append(f.timers, timer)
	return timer
}

func TestLocalHostFinalizeDelivery(t *testing.T) {
	l, _, _ := localHostLedger(t)
	registerWorkers(t, l, "w1")

	id, err := l.StartTask("alice.near", "cfg-A")
	require.NoError(t, err)
	require.NoError(t, l.RecordWorkerSubmissions(testCoord, id, []proposal.SubmissionInput{
		{WorkerID: "w1", ResultFingerprint: "r1"},
	}))
	require.NoError(t, l.CoordinatorResume(testCoord, id, "final",
		hashing.Fingerprint("cfg-A"), hashing.Fingerprint("final")))

	// Delivery is asynchronous, like a real host receipt.
	require.Eventually(t, func() bool {
		p, _ := l.GetProposal(id)
		return p.State == proposal.StateFinalized
	}, time.Second, 5*time.Millisecond)

	result, ok := l.GetFinalizedCoordination(id)
	require.True(t, ok)
	require.Equal(t, "final", result)
}

func TestLocalHostTimeoutDelivery(t *testing.T) {
	l, _, timers := localHostLedger(t)

	id, err := l.StartTask("alice.near", "cfg-A")
	require.NoError(t, err)

	timers.timers[0].fire()

	p, _ := l.GetProposal(id)
	require.Equal(t, proposal.StateTimedOut, p.State)

	// The ledger never retries: resolving a timed-out task means starting
	// a new one or purging the record.
	err = l.CoordinatorResume(testCoord, id, "final",
		hashing.Fingerprint("cfg-A"), hashing.Fingerprint("final"))
	require.ErrorIs(t, err, ErrNotAwaitingResume)
}
