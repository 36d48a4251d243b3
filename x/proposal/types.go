// Package proposal defines the per-task record types tracked by the
// coordination ledger.
package proposal

import "fmt"

// State is the lifecycle state of a proposal.
type State int

const (
	// StateCreated - continuation issued, waiting for worker submissions.
	StateCreated State = iota
	// StateWorkersCompleted - all worker submissions recorded.
	StateWorkersCompleted
	// StateFinalized - aggregated result settled.
	StateFinalized
	// StateTimedOut - the host timed the continuation out before resolution.
	StateTimedOut
)

var stateNames = map[State]string{
	StateCreated:          "Created",
	StateWorkersCompleted: "WorkersCompleted",
	StateFinalized:        "Finalized",
	StateTimedOut:         "TimedOut",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ParseState maps a state name back to its State value.
func ParseState(name string) (State, error) {
	for s, n := range stateNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown proposal state %q", name)
}

// Terminal reports whether no further transitions are legal from s.
func (s State) Terminal() bool {
	return s == StateFinalized || s == StateTimedOut
}

// MarshalText implements encoding.TextMarshaler so states render as names
// in JSON payloads and stored records.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	parsed, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// SubmissionInput is the caller-supplied form of a worker submission.
// Only the nullifier (worker id) and the opaque result fingerprint go
// on the ledger; vote contents never do.
type SubmissionInput struct {
	WorkerID          string `json:"worker_id"`
	ResultFingerprint string `json:"result_fingerprint"`
}

// WorkerSubmission is the recorded form: nullifier plus proof of participation.
type WorkerSubmission struct {
	WorkerID          string `json:"worker_id"`
	ResultFingerprint string `json:"result_fingerprint"`
	Timestamp         int64  `json:"timestamp"`
}

// Proposal is the authoritative record of one coordination task.
// Only the owning ledger mutates State, WorkerSubmissions and FinalizedResult.
type Proposal struct {
	ContinuationToken string             `json:"continuation_token"`
	TaskConfig        string             `json:"task_config"`
	ConfigFingerprint string             `json:"config_fingerprint"`
	CreatedAt         int64              `json:"created_at"`
	Requester         string             `json:"requester"`
	State             State              `json:"state"`
	WorkerSubmissions []WorkerSubmission `json:"worker_submissions"`
	FinalizedResult   *string            `json:"finalized_result,omitempty"`
}

// HasSubmission reports whether workerID already appears in the
// submission list (the nullifier check).
func (p *Proposal) HasSubmission(workerID string) bool {
	for _, s := range p.WorkerSubmissions {
		if s.WorkerID == workerID {
			return true
		}
	}
	return false
}

// Manifesto is the shared policy document that must be configured before
// any coordination task may start.
type Manifesto struct {
	Text        string `json:"text"`
	Fingerprint string `json:"fingerprint"`
}
