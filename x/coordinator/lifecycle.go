package coordinator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shadeboard/coordinator/x/hashing"
	"github.com/shadeboard/coordinator/x/proposal"
	"github.com/shadeboard/coordinator/x/yield"
)

// resumeEnvelope is the versioned continuation payload carried from task
// creation to the finalize callback.
type resumeEnvelope struct {
	V          int    `json:"v"`
	ProposalID uint64 `json:"proposal_id"`
	TaskConfig string `json:"task_config"`
}

const envelopeVersion = 1

func encodeEnvelope(id uint64, taskConfig string) ([]byte, error) {
	return json.Marshal(resumeEnvelope{
		V:          envelopeVersion,
		ProposalID: id,
		TaskConfig: taskConfig,
	})
}

// decodeEnvelope fails closed: unknown fields, missing fields, or a version
// this build does not understand all reject the payload.
func decodeEnvelope(payload []byte) (resumeEnvelope, error) {
	var env resumeEnvelope
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&env); err != nil {
		return resumeEnvelope{}, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	if env.V != envelopeVersion {
		return resumeEnvelope{}, fmt.Errorf("%w: unsupported version %d", ErrBadEnvelope, env.V)
	}
	if env.ProposalID == 0 {
		return resumeEnvelope{}, fmt.Errorf("%w: missing proposal id", ErrBadEnvelope)
	}
	return env, nil
}

// StartTask opens a new coordination task: it fingerprints the config,
// suspends a continuation with the host, and records the proposal in
// Created state. The task itself resolves later, through the finalize
// callback.
func (l *Ledger) StartTask(caller, taskConfig string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.manifesto == nil {
		l.metrics.RecordRejection("start_task", "manifesto_not_set")
		return 0, ErrManifestoNotSet
	}
	if len(taskConfig) > MaxConfigLen {
		l.metrics.RecordRejection("start_task", "config_too_long")
		return 0, fmt.Errorf("%w (%d > %d)", ErrConfigTooLong, len(taskConfig), MaxConfigLen)
	}

	id := l.current + 1
	configFingerprint := hashing.Fingerprint(taskConfig)

	payload, err := encodeEnvelope(id, taskConfig)
	if err != nil {
		return 0, fmt.Errorf("encoding continuation payload: %w", err)
	}
	token, err := l.host.Create(FinalizeCallback, payload)
	if err != nil {
		return 0, fmt.Errorf("creating continuation: %w", err)
	}

	p := &proposal.Proposal{
		ContinuationToken: string(token),
		TaskConfig:        taskConfig,
		ConfigFingerprint: configFingerprint,
		CreatedAt:         time.Now().Unix(),
		Requester:         caller,
		State:             proposal.StateCreated,
	}
	if err := l.store.CreateProposal(id, p); err != nil {
		// The continuation is abandoned; it expires at the horizon and is
		// dropped in finalize because no proposal carries its token.
		l.log.Warn().Err(err).Uint64("proposal_id", id).Str("token", string(token)).
			Msg("Abandoning continuation after persist failure")
		return 0, fmt.Errorf("persisting proposal %d: %w", id, err)
	}
	l.current = id
	l.proposals[id] = p

	l.metrics.RecordTaskStarted(len(taskConfig))
	l.log.Info().
		Uint64("proposal_id", id).
		Str("config_fingerprint", configFingerprint).
		Str("requester", caller).
		Msg("Created proposal")

	return id, nil
}

// RecordWorkerSubmissions appends one submission per worker under the
// nullifier rule and moves the proposal to WorkersCompleted. Any invalid
// submission aborts the whole batch with nothing recorded.
func (l *Ledger) RecordWorkerSubmissions(caller string, id uint64, subs []proposal.SubmissionInput) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireApproved(caller); err != nil {
		l.metrics.RecordRejection("record_worker_submissions", "unauthorized")
		return err
	}

	p, ok := l.proposals[id]
	if !ok {
		l.metrics.RecordRejection("record_worker_submissions", "not_found")
		return fmt.Errorf("%w: %d", ErrProposalNotFound, id)
	}
	if p.State != proposal.StateCreated {
		l.metrics.RecordRejection("record_worker_submissions", "wrong_state")
		return fmt.Errorf("%w (state: %s)", ErrNotAwaitingWork, p.State)
	}
	if len(subs) == 0 {
		l.metrics.RecordRejection("record_worker_submissions", "empty_batch")
		return ErrEmptySubmissions
	}

	// Validate the entire batch before touching anything.
	seen := make(map[string]struct{}, len(subs))
	now := time.Now().Unix()
	recorded := make([]proposal.WorkerSubmission, 0, len(subs))
	for _, sub := range subs {
		if !l.workers.IsActive(sub.WorkerID) {
			l.metrics.RecordRejection("record_worker_submissions", "worker_inactive")
			return fmt.Errorf("%w: %s", ErrWorkerNotActive, sub.WorkerID)
		}
		if _, dup := seen[sub.WorkerID]; dup || p.HasSubmission(sub.WorkerID) {
			l.metrics.RecordRejection("record_worker_submissions", "nullifier")
			return fmt.Errorf("%w: worker %s, proposal %d", ErrDuplicateSubmission, sub.WorkerID, id)
		}
		seen[sub.WorkerID] = struct{}{}
		recorded = append(recorded, proposal.WorkerSubmission{
			WorkerID:          sub.WorkerID,
			ResultFingerprint: sub.ResultFingerprint,
			Timestamp:         now,
		})
	}

	updated := *p
	updated.WorkerSubmissions = append(append([]proposal.WorkerSubmission{}, p.WorkerSubmissions...), recorded...)
	updated.State = proposal.StateWorkersCompleted
	if err := l.store.PutProposal(id, &updated); err != nil {
		return fmt.Errorf("persisting proposal %d: %w", id, err)
	}
	l.proposals[id] = &updated

	l.metrics.RecordSubmissions(len(recorded))
	l.log.Info().
		Uint64("proposal_id", id).
		Int("submissions", len(updated.WorkerSubmissions)).
		Msg("Recorded worker submissions")

	return nil
}

// CoordinatorResume checks both fingerprint claims and resumes the
// proposal's continuation with the aggregated result. The proposal record
// itself is untouched here; mutation happens in the finalize callback,
// because resumption can still fail or time out after this call returns.
func (l *Ledger) CoordinatorResume(caller string, id uint64, aggregatedResult, configFingerprint, resultFingerprint string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireApproved(caller); err != nil {
		l.metrics.RecordRejection("coordinator_resume", "unauthorized")
		return err
	}

	p, ok := l.proposals[id]
	if !ok {
		l.metrics.RecordRejection("coordinator_resume", "not_found")
		return fmt.Errorf("%w: %d", ErrProposalNotFound, id)
	}
	if p.State != proposal.StateWorkersCompleted {
		l.metrics.RecordRejection("coordinator_resume", "wrong_state")
		return fmt.Errorf("%w (state: %s)", ErrNotAwaitingResume, p.State)
	}
	if p.ConfigFingerprint != configFingerprint {
		l.metrics.RecordRejection("coordinator_resume", "config_fingerprint")
		return ErrConfigFingerprintMismatch
	}
	if hashing.Fingerprint(aggregatedResult) != resultFingerprint {
		l.metrics.RecordRejection("coordinator_resume", "result_fingerprint")
		return ErrResultFingerprintMismatch
	}

	if err := l.host.Resume(yield.Token(p.ContinuationToken), []byte(aggregatedResult)); err != nil {
		l.metrics.RecordRejection("coordinator_resume", "host")
		return fmt.Errorf("resuming continuation for proposal %d: %w", id, err)
	}

	l.metrics.RecordResume()
	l.log.Info().
		Uint64("proposal_id", id).
		Int("result_bytes", len(aggregatedResult)).
		Msg("Coordinator resumed proposal")

	return nil
}

// finalize is invoked by the host exactly once per continuation, with
// either the resumed result or the timeout signal. On timeout it marks the
// proposal TimedOut and raises a fatal failure so the delivering execution
// is recorded as failed, while the record keeps the timeout permanently.
//
// A delivery counts only if its token matches the proposal's recorded
// continuation. A continuation leaked by a failed StartTask persist can
// expire long after its id was reissued to a healthy proposal; without the
// token check that expiry would kill the wrong record.
func (l *Ledger) finalize(token yield.Token, payload, result []byte, hostErr error) error {
	env, err := decodeEnvelope(payload)
	if err != nil {
		l.log.Error().Err(err).Msg("Rejecting continuation with bad payload")
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.proposals[env.ProposalID]
	if ok && p.ContinuationToken != string(token) {
		l.log.Warn().
			Uint64("proposal_id", env.ProposalID).
			Str("token", string(token)).
			Msg("Dropping continuation whose proposal id was reissued")
		return fmt.Errorf("%w: proposal %d", ErrStaleContinuation, env.ProposalID)
	}

	if hostErr != nil {
		l.log.Warn().Uint64("proposal_id", env.ProposalID).Msg("Proposal timed out")
		if ok && !p.State.Terminal() {
			updated := *p
			updated.State = proposal.StateTimedOut
			if err := l.store.PutProposal(env.ProposalID, &updated); err != nil {
				l.log.Error().Err(err).Uint64("proposal_id", env.ProposalID).
					Msg("Failed to persist timeout state")
			} else {
				l.proposals[env.ProposalID] = &updated
				l.metrics.RecordTimeout()
			}
		}
		return ErrCoordinationTimedOut
	}

	if !ok {
		l.log.Warn().Uint64("proposal_id", env.ProposalID).
			Msg("Result delivered for a purged proposal")
		return fmt.Errorf("%w: %d", ErrProposalNotFound, env.ProposalID)
	}
	if p.State.Terminal() {
		return fmt.Errorf("%w (state: %s)", ErrNotAwaitingResume, p.State)
	}

	finalized := string(result)
	updated := *p
	updated.State = proposal.StateFinalized
	updated.FinalizedResult = &finalized
	if err := l.store.PutProposal(env.ProposalID, &updated); err != nil {
		return fmt.Errorf("persisting finalized proposal %d: %w", env.ProposalID, err)
	}
	l.proposals[env.ProposalID] = &updated

	l.metrics.RecordFinalized()
	l.log.Info().Uint64("proposal_id", env.ProposalID).Msg("Proposal finalized")
	return nil
}
