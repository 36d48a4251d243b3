package coordinator

import (
	"sort"

	"github.com/shadeboard/coordinator/x/proposal"
	"github.com/shadeboard/coordinator/x/workers"
)

// ProposalEntry pairs a proposal snapshot with its id in list views.
type ProposalEntry struct {
	ID       uint64            `json:"id"`
	Proposal proposal.Proposal `json:"proposal"`
}

// FinalizedEntry pairs a finalized result with its proposal id.
type FinalizedEntry struct {
	ID     uint64 `json:"id"`
	Result string `json:"result"`
}

func cloneProposal(p *proposal.Proposal) proposal.Proposal {
	out := *p
	out.WorkerSubmissions = append([]proposal.WorkerSubmission{}, p.WorkerSubmissions...)
	if p.FinalizedResult != nil {
		result := *p.FinalizedResult
		out.FinalizedResult = &result
	}
	return out
}

// sortedIDs returns proposal ids at or above from, ascending.
func (l *Ledger) sortedIDs(from uint64) []uint64 {
	ids := make([]uint64, 0, len(l.proposals))
	for id := range l.proposals {
		if id >= from {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func normalizeLimit(limit uint64, total int) int {
	if limit == 0 || limit > uint64(total) {
		return total
	}
	return int(limit)
}

// GetProposal returns a snapshot of the proposal with the given id.
func (l *Ledger) GetProposal(id uint64) (proposal.Proposal, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.proposals[id]
	if !ok {
		return proposal.Proposal{}, false
	}
	return cloneProposal(p), true
}

// GetAllProposals lists proposals with id >= from, ascending, up to limit
// entries (0 = no limit).
func (l *Ledger) GetAllProposals(from, limit uint64) []ProposalEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := l.sortedIDs(from)
	max := normalizeLimit(limit, len(ids))

	out := make([]ProposalEntry, 0, max)
	for _, id := range ids[:max] {
		out = append(out, ProposalEntry{ID: id, Proposal: cloneProposal(l.proposals[id])})
	}
	return out
}

// GetProposalsByState lists proposals in the given state, same pagination
// as GetAllProposals; records in other states are skipped, not counted.
func (l *Ledger) GetProposalsByState(state proposal.State, from, limit uint64) []ProposalEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]ProposalEntry, 0)
	count := 0
	for _, id := range l.sortedIDs(from) {
		p := l.proposals[id]
		if p.State != state {
			continue
		}
		out = append(out, ProposalEntry{ID: id, Proposal: cloneProposal(p)})
		count++
		if limit > 0 && uint64(count) >= limit {
			break
		}
	}
	return out
}

// GetPendingCoordinations lists proposals still waiting for workers.
func (l *Ledger) GetPendingCoordinations(from, limit uint64) []ProposalEntry {
	return l.GetProposalsByState(proposal.StateCreated, from, limit)
}

// GetWorkerSubmissions returns the recorded submissions for a proposal.
func (l *Ledger) GetWorkerSubmissions(id uint64) []proposal.WorkerSubmission {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.proposals[id]
	if !ok {
		return nil
	}
	return append([]proposal.WorkerSubmission{}, p.WorkerSubmissions...)
}

// GetFinalizedCoordination returns the finalized result for a proposal,
// present only once the proposal reached Finalized.
func (l *Ledger) GetFinalizedCoordination(id uint64) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.proposals[id]
	if !ok || p.State != proposal.StateFinalized || p.FinalizedResult == nil {
		return "", false
	}
	return *p.FinalizedResult, true
}

// GetAllFinalizedCoordinations lists finalized results, ascending by id.
func (l *Ledger) GetAllFinalizedCoordinations(from, limit uint64) []FinalizedEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]FinalizedEntry, 0)
	count := 0
	for _, id := range l.sortedIDs(from) {
		p := l.proposals[id]
		if p.State != proposal.StateFinalized || p.FinalizedResult == nil {
			continue
		}
		out = append(out, FinalizedEntry{ID: id, Result: *p.FinalizedResult})
		count++
		if limit > 0 && uint64(count) >= limit {
			break
		}
	}
	return out
}

// GetManifesto returns the current policy document, if set.
func (l *Ledger) GetManifesto() *proposal.Manifesto {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.manifesto == nil {
		return nil
	}
	m := *l.manifesto
	return &m
}

// GetRegisteredWorkers lists every registry entry.
func (l *Ledger) GetRegisteredWorkers() []workers.RegisteredWorker {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.workers.All()
}

// GetActiveWorkers lists only active registry entries.
func (l *Ledger) GetActiveWorkers() []workers.RegisteredWorker {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.workers.Active()
}

// IsWorkerRegistered reports whether a worker is registered and active.
func (l *Ledger) IsWorkerRegistered(workerID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.workers.IsActive(workerID)
}

// GetWorkerCount returns the number of active workers.
func (l *Ledger) GetWorkerCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.workers.ActiveCount()
}

// IsCodehashApproved reports approved-set membership.
func (l *Ledger) IsCodehashApproved(codehash string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.access.IsApproved(codehash)
}

// GetOwner returns the admin account.
func (l *Ledger) GetOwner() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.owner
}

// GetCurrentProposalID returns the last allocated proposal id.
func (l *Ledger) GetCurrentProposalID() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}
