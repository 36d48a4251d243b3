package http

// Route patterns for the coordination ledger HTTP surface. Numeric id
// segments are constrained so literal sub-resources like "pending" do
// not collide with them.
const (
	routeTasks            = "/v1/tasks"
	routeProposals        = "/v1/proposals"
	routePendingProposals = "/v1/proposals/pending"
	routeProposalByID     = "/v1/proposals/{id:[0-9]+}"
	routeSubmissions      = "/v1/proposals/{id:[0-9]+}/submissions"
	routeResume           = "/v1/proposals/{id:[0-9]+}/resume"
	routeResult           = "/v1/proposals/{id:[0-9]+}/result"
	routeResults          = "/v1/results"
	routeManifesto        = "/v1/manifesto"
	routeCodehashes       = "/v1/codehashes"
	routeCodehashByHash   = "/v1/codehashes/{hash}"
	routeCoordinators     = "/v1/coordinators"
	routeWorkers          = "/v1/workers"
	routeActiveWorkers    = "/v1/workers/active"
	routeWorkerCount      = "/v1/workers/count"
	routeWorkerByID       = "/v1/workers/{worker_id}"
	routeWorkerActivate   = "/v1/workers/{worker_id}/activate"
	routeWorkerDeactivate = "/v1/workers/{worker_id}/deactivate"
	routeOwner            = "/v1/owner"
	routeStatus           = "/v1/status"
)

// Route names for mux URL building.
const (
	routeNameTasks            = "coordination_tasks"
	routeNameProposals        = "coordination_proposals"
	routeNamePendingProposals = "coordination_proposals_pending"
	routeNameProposalByID     = "coordination_proposal_by_id"
	routeNameSubmissions      = "coordination_submissions"
	routeNameResume           = "coordination_resume"
	routeNameResult           = "coordination_result"
	routeNameResults          = "coordination_results"
	routeNameManifesto        = "coordination_manifesto"
	routeNameCodehashes       = "coordination_codehashes"
	routeNameCodehashByHash   = "coordination_codehash_by_hash"
	routeNameCoordinators     = "coordination_coordinators"
	routeNameWorkers          = "coordination_workers"
	routeNameActiveWorkers    = "coordination_workers_active"
	routeNameWorkerCount      = "coordination_worker_count"
	routeNameWorkerByID       = "coordination_worker_by_id"
	routeNameWorkerActivate   = "coordination_worker_activate"
	routeNameWorkerDeactivate = "coordination_worker_deactivate"
	routeNameOwner            = "coordination_owner"
	routeNameStatus           = "coordination_status"
)
