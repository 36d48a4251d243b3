// Package store persists the coordination ledger's keyed collections.
// Each logical collection lives under a versioned storage namespace so that
// redeploying with a changed record shape never aliases or discards entries
// written by a previous deployment.
package store

import (
	"github.com/shadeboard/coordinator/x/accessctl"
	"github.com/shadeboard/coordinator/x/proposal"
	"github.com/shadeboard/coordinator/x/workers"
)

// Snapshot is the full persisted state, loaded once at startup.
type Snapshot struct {
	Owner             string
	CurrentProposalID uint64
	Manifesto         *proposal.Manifesto
	Proposals         map[uint64]*proposal.Proposal
	Workers           []workers.RegisteredWorker
	Codehashes        []string
	Bindings          map[string]accessctl.Binding
}

// Store is the persistence surface the ledger writes through. Every method
// is atomic: it either fully applies or leaves storage untouched.
type Store interface {
	Load() (*Snapshot, error)

	PutOwner(owner string) error
	PutManifesto(m proposal.Manifesto) error

	// CreateProposal persists a new proposal and the advanced id counter
	// in one transaction.
	CreateProposal(id uint64, p *proposal.Proposal) error
	PutProposal(id uint64, p *proposal.Proposal) error
	DeleteProposal(id uint64) error

	PutWorker(w workers.RegisteredWorker) error
	DeleteWorker(workerID string) error

	PutCodehash(codehash string) error
	DeleteCodehash(codehash string) error
	PutBinding(accountID string, b accessctl.Binding) error

	Close() error
}
