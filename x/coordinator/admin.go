package coordinator

import (
	"fmt"
	"time"

	"github.com/shadeboard/coordinator/x/hashing"
	"github.com/shadeboard/coordinator/x/proposal"
	"github.com/shadeboard/coordinator/x/workers"
)

// SetManifesto installs the policy document that must exist before any
// task may start. Owner only.
func (l *Ledger) SetManifesto(caller, text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireOwner(caller); err != nil {
		return err
	}
	if len(text) > MaxConfigLen {
		return fmt.Errorf("%w (%d > %d)", ErrManifestoLong, len(text), MaxConfigLen)
	}

	m := proposal.Manifesto{Text: text, Fingerprint: hashing.Fingerprint(text)}
	if err := l.store.PutManifesto(m); err != nil {
		return fmt.Errorf("persisting manifesto: %w", err)
	}
	l.manifesto = &m

	l.log.Info().Str("fingerprint", m.Fingerprint).Msg("Manifesto set")
	return nil
}

// ApproveCodehash adds a codehash to the approved set. Owner only.
func (l *Ledger) ApproveCodehash(caller, codehash string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireOwner(caller); err != nil {
		return err
	}
	if err := l.store.PutCodehash(codehash); err != nil {
		return fmt.Errorf("persisting codehash: %w", err)
	}
	l.access.Approve(codehash)

	l.log.Info().Str("codehash", codehash).Msg("Approved codehash")
	return nil
}

// RemoveCodehash revokes a codehash. Every coordinator bound to it loses
// authorization immediately. Owner only.
func (l *Ledger) RemoveCodehash(caller, codehash string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireOwner(caller); err != nil {
		return err
	}
	if err := l.store.DeleteCodehash(codehash); err != nil {
		return fmt.Errorf("deleting codehash: %w", err)
	}
	l.access.Remove(codehash)

	l.log.Info().Str("codehash", codehash).Msg("Removed codehash")
	return nil
}

// RegisterCoordinator binds the caller to a codehash. Open to any caller,
// gated on the codehash being approved at registration time.
func (l *Ledger) RegisterCoordinator(caller, checksum, codehash string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.access.Register(caller, checksum, codehash); err != nil {
		return fmt.Errorf("registering coordinator %s: %w", caller, err)
	}
	b, _ := l.access.Binding(caller)
	if err := l.store.PutBinding(caller, b); err != nil {
		return fmt.Errorf("persisting binding for %s: %w", caller, err)
	}

	l.log.Info().Str("caller", caller).Str("codehash", codehash).Msg("Coordinator registered")
	return nil
}

// ClearProposal unconditionally removes a proposal regardless of state.
// Owner only; not part of the normal lifecycle. A second clear of the same
// id fails loudly.
func (l *Ledger) ClearProposal(caller string, id uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireOwner(caller); err != nil {
		return err
	}
	if _, ok := l.proposals[id]; !ok {
		return fmt.Errorf("%w: %d", ErrProposalNotFound, id)
	}
	if err := l.store.DeleteProposal(id); err != nil {
		return fmt.Errorf("deleting proposal %d: %w", id, err)
	}
	delete(l.proposals, id)

	l.log.Info().Uint64("proposal_id", id).Msg("Cleared proposal")
	return nil
}

// RegisterWorker adds an agent to the registry, active immediately.
// Allowed for the owner or any currently-authorized coordinator.
func (l *Ledger) RegisterWorker(caller, workerID string, accountID *string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireOwnerOrCoordinator(caller); err != nil {
		return err
	}

	w := workers.RegisteredWorker{
		WorkerID:     workerID,
		AccountID:    accountID,
		RegisteredAt: time.Now().Unix(),
		RegisteredBy: caller,
		Active:       true,
	}
	if err := l.store.PutWorker(w); err != nil {
		return fmt.Errorf("persisting worker %s: %w", workerID, err)
	}
	l.workers.Put(w)

	l.log.Info().Str("worker_id", workerID).Str("registered_by", caller).Msg("Registered worker")
	return nil
}

// RemoveWorker purges a registry entry. Owner only; fails loudly on
// unknown ids.
func (l *Ledger) RemoveWorker(caller, workerID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireOwner(caller); err != nil {
		return err
	}
	if _, ok := l.workers.Get(workerID); !ok {
		return fmt.Errorf("worker %s not found", workerID)
	}
	if err := l.store.DeleteWorker(workerID); err != nil {
		return fmt.Errorf("deleting worker %s: %w", workerID, err)
	}
	_ = l.workers.Remove(workerID)

	l.log.Info().Str("worker_id", workerID).Msg("Removed worker")
	return nil
}

// DeactivateWorker keeps the registration but blocks participation.
func (l *Ledger) DeactivateWorker(caller, workerID string) error {
	return l.setWorkerActive(caller, workerID, false)
}

// ActivateWorker re-enables a previously deactivated worker.
func (l *Ledger) ActivateWorker(caller, workerID string) error {
	return l.setWorkerActive(caller, workerID, true)
}

func (l *Ledger) setWorkerActive(caller, workerID string, active bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireOwnerOrCoordinator(caller); err != nil {
		return err
	}
	w, ok := l.workers.Get(workerID)
	if !ok {
		return fmt.Errorf("worker %s not found", workerID)
	}
	w.Active = active
	if err := l.store.PutWorker(w); err != nil {
		return fmt.Errorf("persisting worker %s: %w", workerID, err)
	}
	l.workers.Put(w)

	l.log.Info().Str("worker_id", workerID).Bool("active", active).Msg("Worker state changed")
	return nil
}

// TransferOwnership hands the admin role to a new account. Owner only.
func (l *Ledger) TransferOwnership(caller, newOwner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireOwner(caller); err != nil {
		return err
	}
	if err := l.store.PutOwner(newOwner); err != nil {
		return fmt.Errorf("persisting owner: %w", err)
	}
	l.owner = newOwner

	l.log.Info().Str("new_owner", newOwner).Msg("Ownership transferred")
	return nil
}
