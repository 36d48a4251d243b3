package coordinator

import "errors"

var (
	ErrManifestoNotSet = errors.New("manifesto not set - owner must set the manifesto first")
	ErrConfigTooLong   = errors.New("task config exceeds the maximum length")
	ErrManifestoLong   = errors.New("manifesto text exceeds the maximum length")

	ErrProposalNotFound  = errors.New("no proposal with this id")
	ErrNotAwaitingWork   = errors.New("proposal not in Created state - cannot record submissions")
	ErrNotAwaitingResume = errors.New(
		"proposal not in WorkersCompleted state - record worker submissions first")

	ErrEmptySubmissions    = errors.New("submission batch is empty")
	ErrWorkerNotActive     = errors.New("worker is not registered or not active")
	ErrDuplicateSubmission = errors.New("worker already submitted for this proposal")

	ErrConfigFingerprintMismatch = errors.New(
		"config fingerprint mismatch - configuration was tampered with")
	ErrResultFingerprintMismatch = errors.New(
		"result fingerprint mismatch - result integrity check failed")

	ErrNotOwner     = errors.New("only the owner can call this function")
	ErrUnauthorized = errors.New("only a registered coordinator can call this function")

	// ErrCoordinationTimedOut is the fatal failure raised by the finalize
	// callback after marking a proposal TimedOut, so the delivering
	// execution itself is recorded as failed.
	ErrCoordinationTimedOut = errors.New("coordination request timed out")

	// ErrBadEnvelope signals a continuation payload that does not match the
	// documented schema. Consumers fail closed.
	ErrBadEnvelope = errors.New("malformed continuation payload")

	// ErrStaleContinuation signals a continuation whose token no longer
	// matches the proposal under its id. The delivery is dropped without
	// touching the record.
	ErrStaleContinuation = errors.New("continuation does not match the current proposal")
)
