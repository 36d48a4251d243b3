package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterMux binds gorilla/mux routes. Literal routes are registered
// before parameterized ones.
func (h *Handler) RegisterMux(r *mux.Router) {
	r.HandleFunc(routeTasks, h.handleStartTask).
		Methods(http.MethodPost).
		Name(routeNameTasks)

	r.HandleFunc(routePendingProposals, h.handlePendingProposals).
		Methods(http.MethodGet).
		Name(routeNamePendingProposals)

	r.HandleFunc(routeProposals, h.handleListProposals).
		Methods(http.MethodGet).
		Name(routeNameProposals)

	r.HandleFunc(routeProposalByID, h.handleGetProposal).
		Methods(http.MethodGet).
		Name(routeNameProposalByID)

	r.HandleFunc(routeProposalByID, h.handleClearProposal).
		Methods(http.MethodDelete).
		Name(routeNameProposalByID + "_delete")

	r.HandleFunc(routeSubmissions, h.handleRecordSubmissions).
		Methods(http.MethodPost).
		Name(routeNameSubmissions)

	r.HandleFunc(routeSubmissions, h.handleGetSubmissions).
		Methods(http.MethodGet).
		Name(routeNameSubmissions + "_list")

	r.HandleFunc(routeResume, h.handleResume).
		Methods(http.MethodPost).
		Name(routeNameResume)

	r.HandleFunc(routeResult, h.handleGetResult).
		Methods(http.MethodGet).
		Name(routeNameResult)

	r.HandleFunc(routeResults, h.handleListResults).
		Methods(http.MethodGet).
		Name(routeNameResults)

	r.HandleFunc(routeManifesto, h.handleGetManifesto).
		Methods(http.MethodGet).
		Name(routeNameManifesto)

	r.HandleFunc(routeManifesto, h.handleSetManifesto).
		Methods(http.MethodPost).
		Name(routeNameManifesto + "_set")

	r.HandleFunc(routeCodehashes, h.handleApproveCodehash).
		Methods(http.MethodPost).
		Name(routeNameCodehashes)

	r.HandleFunc(routeCodehashByHash, h.handleCodehashStatus).
		Methods(http.MethodGet).
		Name(routeNameCodehashByHash)

	r.HandleFunc(routeCodehashByHash, h.handleRemoveCodehash).
		Methods(http.MethodDelete).
		Name(routeNameCodehashByHash + "_delete")

	r.HandleFunc(routeCoordinators, h.handleRegisterCoordinator).
		Methods(http.MethodPost).
		Name(routeNameCoordinators)

	r.HandleFunc(routeActiveWorkers, h.handleActiveWorkers).
		Methods(http.MethodGet).
		Name(routeNameActiveWorkers)

	r.HandleFunc(routeWorkerCount, h.handleWorkerCount).
		Methods(http.MethodGet).
		Name(routeNameWorkerCount)

	r.HandleFunc(routeWorkers, h.handleListWorkers).
		Methods(http.MethodGet).
		Name(routeNameWorkers)

	r.HandleFunc(routeWorkers, h.handleRegisterWorker).
		Methods(http.MethodPost).
		Name(routeNameWorkers + "_register")

	r.HandleFunc(routeWorkerActivate, h.handleActivateWorker).
		Methods(http.MethodPost).
		Name(routeNameWorkerActivate)

	r.HandleFunc(routeWorkerDeactivate, h.handleDeactivateWorker).
		Methods(http.MethodPost).
		Name(routeNameWorkerDeactivate)

	r.HandleFunc(routeWorkerByID, h.handleGetWorker).
		Methods(http.MethodGet).
		Name(routeNameWorkerByID)

	r.HandleFunc(routeWorkerByID, h.handleRemoveWorker).
		Methods(http.MethodDelete).
		Name(routeNameWorkerByID + "_delete")

	r.HandleFunc(routeOwner, h.handleGetOwner).
		Methods(http.MethodGet).
		Name(routeNameOwner)

	r.HandleFunc(routeOwner, h.handleTransferOwnership).
		Methods(http.MethodPost).
		Name(routeNameOwner + "_transfer")

	r.HandleFunc(routeStatus, h.handleStatus).
		Methods(http.MethodGet).
		Name(routeNameStatus)
}
