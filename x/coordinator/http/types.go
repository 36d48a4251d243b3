package http

import "github.com/shadeboard/coordinator/x/proposal"

type startTaskReq struct {
	TaskConfig string `json:"task_config"`
}

type startTaskResp struct {
	ProposalID uint64 `json:"proposal_id"`
}

type submissionsReq struct {
	Submissions []proposal.SubmissionInput `json:"submissions"`
}

type resumeReq struct {
	AggregatedResult  string `json:"aggregated_result"`
	ConfigFingerprint string `json:"config_fingerprint"`
	ResultFingerprint string `json:"result_fingerprint"`
}

type manifestoReq struct {
	Text string `json:"text"`
}

type codehashReq struct {
	Codehash string `json:"codehash"`
}

type coordinatorReq struct {
	Checksum string `json:"checksum"`
	Codehash string `json:"codehash"`
}

type workerReq struct {
	WorkerID  string  `json:"worker_id"`
	AccountID *string `json:"account_id,omitempty"`
}

type transferOwnershipReq struct {
	NewOwner string `json:"new_owner"`
}

type resultResp struct {
	ProposalID uint64 `json:"proposal_id"`
	Result     string `json:"result"`
}

type statusResp struct {
	Owner             string `json:"owner"`
	CurrentProposalID uint64 `json:"current_proposal_id"`
	WorkerCount       int    `json:"worker_count"`
	ManifestoSet      bool   `json:"manifesto_set"`
}
