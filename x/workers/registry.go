// Package workers tracks the agents allowed to participate in coordination
// tasks. Registration history is kept through deactivation; submission
// validation reads only the current active flag.
package workers

import (
	"fmt"
	"sort"
)

// RegisteredWorker is one registry entry.
type RegisteredWorker struct {
	WorkerID     string  `json:"worker_id"`
	AccountID    *string `json:"account_id,omitempty"`
	RegisteredAt int64   `json:"registered_at"`
	RegisteredBy string  `json:"registered_by"`
	Active       bool    `json:"active"`
}

// Registry is the in-memory worker collection, owned by the contract state
// object; callers serialize access.
type Registry struct {
	workers map[string]RegisteredWorker
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{workers: make(map[string]RegisteredWorker)}
}

// Put inserts or replaces a registry entry.
func (r *Registry) Put(w RegisteredWorker) {
	r.workers[w.WorkerID] = w
}

// Get returns the entry for workerID.
func (r *Registry) Get(workerID string) (RegisteredWorker, bool) {
	w, ok := r.workers[workerID]
	return w, ok
}

// Remove physically deletes workerID. Fails loudly on unknown ids so a
// second purge does not silently succeed.
func (r *Registry) Remove(workerID string) error {
	if _, ok := r.workers[workerID]; !ok {
		return fmt.Errorf("worker %s not found", workerID)
	}
	delete(r.workers, workerID)
	return nil
}

// SetActive toggles the active flag, keeping registration history.
func (r *Registry) SetActive(workerID string, active bool) error {
	w, ok := r.workers[workerID]
	if !ok {
		return fmt.Errorf("worker %s not found", workerID)
	}
	w.Active = active
	r.workers[workerID] = w
	return nil
}

// IsActive reports whether workerID is registered and currently active.
func (r *Registry) IsActive(workerID string) bool {
	w, ok := r.workers[workerID]
	return ok && w.Active
}

// All returns every entry ordered by worker id.
func (r *Registry) All() []RegisteredWorker {
	out := make([]RegisteredWorker, 0, len(r.workers))
	for _, w := range r.workers {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkerID < out[j].WorkerID })
	return out
}

// Active returns the active entries ordered by worker id.
func (r *Registry) Active() []RegisteredWorker {
	out := make([]RegisteredWorker, 0, len(r.workers))
	for _, w := range r.workers {
		if w.Active {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkerID < out[j].WorkerID })
	return out
}

// ActiveCount returns the number of active workers.
func (r *Registry) ActiveCount() int {
	n := 0
	for _, w := range r.workers {
		if w.Active {
			n++
		}
	}
	return n
}
