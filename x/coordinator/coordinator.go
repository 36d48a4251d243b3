// Package coordinator implements the proposal lifecycle state machine: it
// issues coordination tasks, suspends them as durable continuations, records
// worker participation under the nullifier rule, and finalizes results after
// integrity checks. All contract state hangs off one Ledger object; there is
// no ambient mutable state.
package coordinator

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/shadeboard/coordinator/store"
	"github.com/shadeboard/coordinator/x/accessctl"
	"github.com/shadeboard/coordinator/x/proposal"
	"github.com/shadeboard/coordinator/x/workers"
	"github.com/shadeboard/coordinator/x/yield"
)

// FinalizeCallback is the name the ledger registers its finalize function
// under with the continuation host.
const FinalizeCallback = "return_coordination_result"

// MaxConfigLen bounds task configs and the manifesto text.
const MaxConfigLen = 10000

// ContinuationHost is the suspend/resume primitive the ledger needs: the
// yield surface plus callback registration at startup.
type ContinuationHost interface {
	yield.Host
	RegisterCallback(name string, fn yield.Callback)
}

// Ledger is the single explicit state object for the coordination contract.
// Every public operation runs under one mutex, so each call executes against
// a consistent snapshot and either fully applies or leaves nothing behind.
type Ledger struct {
	log     zerolog.Logger
	metrics Metrics

	host  ContinuationHost
	store store.Store

	mu        sync.RWMutex
	owner     string
	manifesto *proposal.Manifesto
	access    *accessctl.Ledger
	workers   *workers.Registry
	current   uint64
	proposals map[uint64]*proposal.Proposal
}

// New builds the ledger, restoring persisted state and registering the
// finalize callback with the host.
func New(log zerolog.Logger, opts ...Option) (*Ledger, error) {
	cfg := &config{
		metrics: NewNoOpMetrics(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.host == nil {
		return nil, fmt.Errorf("continuation host is required")
	}

	snap, err := cfg.store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading persisted state: %w", err)
	}

	l := &Ledger{
		log:       log.With().Str("component", "coordinator").Logger(),
		metrics:   cfg.metrics,
		host:      cfg.host,
		store:     cfg.store,
		access:    accessctl.NewLedger(),
		workers:   workers.NewRegistry(),
		proposals: snap.Proposals,
		current:   snap.CurrentProposalID,
		manifesto: snap.Manifesto,
		owner:     snap.Owner,
	}
	if l.proposals == nil {
		l.proposals = make(map[uint64]*proposal.Proposal)
	}

	for _, ch := range snap.Codehashes {
		l.access.Approve(ch)
	}
	for account, b := range snap.Bindings {
		l.access.Restore(account, b)
	}
	for _, w := range snap.Workers {
		l.workers.Put(w)
	}

	if l.owner == "" {
		if cfg.owner == "" {
			return nil, fmt.Errorf("owner is required on first initialization")
		}
		if err := l.store.PutOwner(cfg.owner); err != nil {
			return nil, fmt.Errorf("persisting owner: %w", err)
		}
		l.owner = cfg.owner
	}

	l.host.RegisterCallback(FinalizeCallback, l.finalize)

	l.log.Info().
		Str("owner", l.owner).
		Uint64("current_proposal_id", l.current).
		Int("proposals", len(l.proposals)).
		Int("registered_workers", len(snap.Workers)).
		Msg("Coordination ledger initialized")

	return l, nil
}

// requireOwner is the admin role predicate.
func (l *Ledger) requireOwner(caller string) error {
	if caller != l.owner {
		return fmt.Errorf("%w (owner: %s, caller: %s)", ErrNotOwner, l.owner, caller)
	}
	return nil
}

// requireApproved is the codehash gate used by privileged calls.
func (l *Ledger) requireApproved(caller string) error {
	if err := l.access.Authorize(caller); err != nil {
		return fmt.Errorf("%w: caller %s: %v", ErrUnauthorized, caller, err)
	}
	return nil
}

// requireOwnerOrCoordinator gates worker registry management.
func (l *Ledger) requireOwnerOrCoordinator(caller string) error {
	if caller == l.owner {
		return nil
	}
	if err := l.access.Authorize(caller); err != nil {
		return fmt.Errorf("only owner or registered coordinator can manage workers: caller %s: %w", caller, err)
	}
	return nil
}
