package coordinator

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/shadeboard/coordinator/store"
	"github.com/shadeboard/coordinator/x/accessctl"
	"github.com/shadeboard/coordinator/x/proposal"
	"github.com/shadeboard/coordinator/x/workers"
	"github.com/shadeboard/coordinator/x/yield"
)

var errInjected = errors.New("injected store failure")

// fakeStore keeps everything in maps and lets tests inject failures.
type fakeStore struct {
	owner      string
	manifesto  *proposal.Manifesto
	current    uint64
	proposals  map[uint64]proposal.Proposal
	workers    map[string]workers.RegisteredWorker
	codehashes map[string]struct{}
	bindings   map[string]accessctl.Binding

	failNextWrite error
}

var _ store.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		proposals:  make(map[uint64]proposal.Proposal),
		workers:    make(map[string]workers.RegisteredWorker),
		codehashes: make(map[string]struct{}),
		bindings:   make(map[string]accessctl.Binding),
	}
}

func (s *fakeStore) write() error {
	if s.failNextWrite != nil {
		err := s.failNextWrite
		s.failNextWrite = nil
		return err
	}
	return nil
}

func (s *fakeStore) Load() (*store.Snapshot, error) {
	snap := &store.Snapshot{
		Owner:             s.owner,
		CurrentProposalID: s.current,
		Manifesto:         s.manifesto,
		Proposals:         make(map[uint64]*proposal.Proposal),
		Bindings:          make(map[string]accessctl.Binding),
	}
	for id, p := range s.proposals {
		cp := p
		snap.Proposals[id] = &cp
	}
	for _, w := range s.workers {
		snap.Workers = append(snap.Workers, w)
	}
	for ch := range s.codehashes {
		snap.Codehashes = append(snap.Codehashes, ch)
	}
	for k, v := range s.bindings {
		snap.Bindings[k] = v
	}
	return snap, nil
}

func (s *fakeStore) PutOwner(owner string) error {
	if err := s.write(); err != nil {
		return err
	}
	s.owner = owner
	return nil
}

func (s *fakeStore) PutManifesto(m proposal.Manifesto) error {
	if err := s.write(); err != nil {
		return err
	}
	s.manifesto = &m
	return nil
}

func (s *fakeStore) CreateProposal(id uint64, p *proposal.Proposal) error {
	if err := s.write(); err != nil {
		return err
	}
	s.proposals[id] = *p
	s.current = id
	return nil
}

func (s *fakeStore) PutProposal(id uint64, p *proposal.Proposal) error {
	if err := s.write(); err != nil {
		return err
	}
	s.proposals[id] = *p
	return nil
}

func (s *fakeStore) DeleteProposal(id uint64) error {
	if err := s.write(); err != nil {
		return err
	}
	delete(s.proposals, id)
	return nil
}

func (s *fakeStore) PutWorker(w workers.RegisteredWorker) error {
	if err := s.write(); err != nil {
		return err
	}
	s.workers[w.WorkerID] = w
	return nil
}

func (s *fakeStore) DeleteWorker(workerID string) error {
	if err := s.write(); err != nil {
		return err
	}
	delete(s.workers, workerID)
	return nil
}

func (s *fakeStore) PutCodehash(codehash string) error {
	if err := s.write(); err != nil {
		return err
	}
	s.codehashes[codehash] = struct{}{}
	return nil
}

func (s *fakeStore) DeleteCodehash(codehash string) error {
	if err := s.write(); err != nil {
		return err
	}
	delete(s.codehashes, codehash)
	return nil
}

func (s *fakeStore) PutBinding(accountID string, b accessctl.Binding) error {
	if err := s.write(); err != nil {
		return err
	}
	s.bindings[accountID] = b
	return nil
}

func (s *fakeStore) Close() error { return nil }

// fakeHost records continuations and lets tests drive the finalize
// callback synchronously.
type fakeHost struct {
	next      int
	callbacks map[string]yield.Callback
	payloads  map[yield.Token][]byte
	created   map[yield.Token]string
	resumed   map[yield.Token][]byte
	resolved  map[yield.Token]bool
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		callbacks: make(map[string]yield.Callback),
		payloads:  make(map[yield.Token][]byte),
		created:   make(map[yield.Token]string),
		resumed:   make(map[yield.Token][]byte),
		resolved:  make(map[yield.Token]bool),
	}
}

func (h *fakeHost) RegisterCallback(name string, fn yield.Callback) {
	h.callbacks[name] = fn
}

func (h *fakeHost) Create(callback string, payload []byte) (yield.Token, error) {
	if _, ok := h.callbacks[callback]; !ok {
		return "", yield.ErrUnknownCallback
	}
	h.next++
	token := yield.Token(fmt.Sprintf("token-%d", h.next))
	h.payloads[token] = payload
	h.created[token] = callback
	return token, nil
}

func (h *fakeHost) Resume(token yield.Token, result []byte) error {
	if _, ok := h.created[token]; !ok || h.resolved[token] {
		return yield.ErrTokenResolved
	}
	h.resumed[token] = result
	return nil
}

// deliverResume invokes the finalize callback the way the host would after
// a resume, returning the callback's error.
func (h *fakeHost) deliverResume(token yield.Token) error {
	h.resolved[token] = true
	fn := h.callbacks[h.created[token]]
	return fn(token, h.payloads[token], h.resumed[token], nil)
}

// deliverTimeout invokes the finalize callback with the timeout signal.
func (h *fakeHost) deliverTimeout(token yield.Token) error {
	h.resolved[token] = true
	fn := h.callbacks[h.created[token]]
	return fn(token, h.payloads[token], nil, yield.ErrTimedOut)
}

const (
	testOwner = "owner.near"
	testCoord = "coordinator.near"
)

// newTestLedger builds a ledger with an approved, registered coordinator
// and a manifesto already in place.
func newTestLedger(t *testing.T) (*Ledger, *fakeStore, *fakeHost) {
	t.Helper()

	st := newFakeStore()
	host := newFakeHost()
	l, err := New(zerolog.Nop(),
		WithOwner(testOwner),
		WithStore(st),
		WithHost(host),
	)
	require.NoError(t, err)

	require.NoError(t, l.SetManifesto(testOwner, "We vote for good things."))
	require.NoError(t, l.ApproveCodehash(testOwner, "hash-a"))
	require.NoError(t, l.RegisterCoordinator(testCoord, "checksum-1", "hash-a"))

	return l, st, host
}

func registerWorkers(t *testing.T, l *Ledger, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, l.RegisterWorker(testOwner, id, nil))
	}
}
