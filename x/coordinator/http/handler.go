package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	apicommon "github.com/shadeboard/coordinator/server/api"
	"github.com/shadeboard/coordinator/server/api/middleware"
	"github.com/shadeboard/coordinator/x/accessctl"
	"github.com/shadeboard/coordinator/x/coordinator"
	"github.com/shadeboard/coordinator/x/proposal"
)

type Handler struct {
	ledger *coordinator.Ledger
	log    zerolog.Logger
}

func NewHandler(ledger *coordinator.Ledger, log zerolog.Logger) *Handler {
	return &Handler{
		ledger: ledger,
		log:    log.With().Str("component", "coordinator-http").Logger(),
	}
}

// caller resolves the request identity. Mutating handlers refuse
// anonymous requests.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller := middleware.CallerFrom(r.Context())
	if caller == "" {
		apicommon.WriteError(w, r, http.StatusUnauthorized, "missing_caller", "X-Caller-ID header is required", nil)
		return "", false
	}
	return caller, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_json", "failed to decode request", nil)
		return false
	}
	return true
}

func proposalID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
}

// pagination reads the from/limit query parameters. Both default to
// zero, which means "start at the lowest id" and "no cap".
func pagination(r *http.Request) (from, limit uint64) {
	q := r.URL.Query()
	from, _ = strconv.ParseUint(q.Get("from"), 10, 64)
	limit, _ = strconv.ParseUint(q.Get("limit"), 10, 64)
	return from, limit
}

// writeLedgerError maps ledger errors onto HTTP statuses.
func (h *Handler) writeLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status = http.StatusInternalServerError
		code   = "internal_error"
	)

	switch {
	case errors.Is(err, coordinator.ErrProposalNotFound):
		status, code = http.StatusNotFound, "proposal_not_found"
	case errors.Is(err, coordinator.ErrNotOwner),
		errors.Is(err, coordinator.ErrUnauthorized),
		errors.Is(err, accessctl.ErrCodehashNotApproved),
		errors.Is(err, accessctl.ErrNotRegistered),
		errors.Is(err, accessctl.ErrBindingRevoked):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, coordinator.ErrNotAwaitingWork),
		errors.Is(err, coordinator.ErrNotAwaitingResume),
		errors.Is(err, coordinator.ErrDuplicateSubmission),
		errors.Is(err, coordinator.ErrCoordinationTimedOut):
		status, code = http.StatusConflict, "invalid_state"
	case errors.Is(err, coordinator.ErrManifestoNotSet),
		errors.Is(err, coordinator.ErrConfigTooLong),
		errors.Is(err, coordinator.ErrManifestoLong),
		errors.Is(err, coordinator.ErrEmptySubmissions),
		errors.Is(err, coordinator.ErrWorkerNotActive),
		errors.Is(err, coordinator.ErrConfigFingerprintMismatch),
		errors.Is(err, coordinator.ErrResultFingerprintMismatch):
		status, code = http.StatusBadRequest, "invalid_request"
	}

	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("Ledger operation failed")
	}
	apicommon.WriteError(w, r, status, code, err.Error(), nil)
}

func (h *Handler) handleStartTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req startTaskReq
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.ledger.StartTask(caller, req.TaskConfig)
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusCreated, startTaskResp{ProposalID: id})
}

func (h *Handler) handleRecordSubmissions(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	id, err := proposalID(r)
	if err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_proposal_id", "proposal id must be numeric", nil)
		return
	}

	var req submissionsReq
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.ledger.RecordWorkerSubmissions(caller, id, req.Submissions); err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, map[string]any{"recorded": len(req.Submissions)})
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	id, err := proposalID(r)
	if err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_proposal_id", "proposal id must be numeric", nil)
		return
	}

	var req resumeReq
	if !h.decode(w, r, &req) {
		return
	}

	err = h.ledger.CoordinatorResume(caller, id, req.AggregatedResult, req.ConfigFingerprint, req.ResultFingerprint)
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusAccepted, map[string]any{"proposal_id": id})
}

func (h *Handler) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	id, err := proposalID(r)
	if err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_proposal_id", "proposal id must be numeric", nil)
		return
	}

	p, ok := h.ledger.GetProposal(id)
	if !ok {
		apicommon.WriteError(w, r, http.StatusNotFound, "proposal_not_found", "no such proposal", nil)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleListProposals(w http.ResponseWriter, r *http.Request) {
	from, limit := pagination(r)

	if stateParam := r.URL.Query().Get("state"); stateParam != "" {
		state, err := proposal.ParseState(stateParam)
		if err != nil {
			apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_state", err.Error(), nil)
			return
		}
		apicommon.WriteJSON(w, http.StatusOK, h.ledger.GetProposalsByState(state, from, limit))
		return
	}

	apicommon.WriteJSON(w, http.StatusOK, h.ledger.GetAllProposals(from, limit))
}

func (h *Handler) handlePendingProposals(w http.ResponseWriter, r *http.Request) {
	from, limit := pagination(r)
	apicommon.WriteJSON(w, http.StatusOK, h.ledger.GetPendingCoordinations(from, limit))
}

func (h *Handler) handleGetSubmissions(w http.ResponseWriter, r *http.Request) {
	id, err := proposalID(r)
	if err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_proposal_id", "proposal id must be numeric", nil)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, h.ledger.GetWorkerSubmissions(id))
}

func (h *Handler) handleGetResult(w http.ResponseWriter, r *http.Request) {
	id, err := proposalID(r)
	if err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_proposal_id", "proposal id must be numeric", nil)
		return
	}

	result, ok := h.ledger.GetFinalizedCoordination(id)
	if !ok {
		apicommon.WriteError(w, r, http.StatusNotFound, "result_not_available", "proposal is not finalized", nil)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, resultResp{ProposalID: id, Result: result})
}

func (h *Handler) handleListResults(w http.ResponseWriter, r *http.Request) {
	from, limit := pagination(r)
	apicommon.WriteJSON(w, http.StatusOK, h.ledger.GetAllFinalizedCoordinations(from, limit))
}

func (h *Handler) handleClearProposal(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	id, err := proposalID(r)
	if err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_proposal_id", "proposal id must be numeric", nil)
		return
	}

	if err := h.ledger.ClearProposal(caller, id); err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, map[string]any{"proposal_id": id})
}

func (h *Handler) handleGetManifesto(w http.ResponseWriter, r *http.Request) {
	m := h.ledger.GetManifesto()
	if m == nil {
		apicommon.WriteError(w, r, http.StatusNotFound, "manifesto_not_set", "no manifesto has been published", nil)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) handleSetManifesto(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req manifestoReq
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.ledger.SetManifesto(caller, req.Text); err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, h.ledger.GetManifesto())
}

func (h *Handler) handleApproveCodehash(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req codehashReq
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.ledger.ApproveCodehash(caller, req.Codehash); err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, map[string]any{"codehash": req.Codehash})
}

func (h *Handler) handleRemoveCodehash(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	hash := mux.Vars(r)["hash"]
	if err := h.ledger.RemoveCodehash(caller, hash); err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, map[string]any{"codehash": hash})
}

func (h *Handler) handleCodehashStatus(w http.ResponseWriter, r *http.Request) {
	hash := mux.Vars(r)["hash"]
	apicommon.WriteJSON(w, http.StatusOK, map[string]any{
		"codehash": hash,
		"approved": h.ledger.IsCodehashApproved(hash),
	})
}

func (h *Handler) handleRegisterCoordinator(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req coordinatorReq
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.ledger.RegisterCoordinator(caller, req.Checksum, req.Codehash); err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusCreated, map[string]any{"account": caller, "codehash": req.Codehash})
}

func (h *Handler) handleListWorkers(w http.ResponseWriter, r *http.Request) {
	apicommon.WriteJSON(w, http.StatusOK, h.ledger.GetRegisteredWorkers())
}

func (h *Handler) handleActiveWorkers(w http.ResponseWriter, r *http.Request) {
	apicommon.WriteJSON(w, http.StatusOK, h.ledger.GetActiveWorkers())
}

func (h *Handler) handleWorkerCount(w http.ResponseWriter, r *http.Request) {
	apicommon.WriteJSON(w, http.StatusOK, map[string]any{"count": h.ledger.GetWorkerCount()})
}

func (h *Handler) handleGetWorker(w http.ResponseWriter, r *http.Request) {
	workerID := mux.Vars(r)["worker_id"]
	apicommon.WriteJSON(w, http.StatusOK, map[string]any{
		"worker_id":  workerID,
		"registered": h.ledger.IsWorkerRegistered(workerID),
	})
}

func (h *Handler) handleRegisterWorker(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req workerReq
	if !h.decode(w, r, &req) {
		return
	}
	if req.WorkerID == "" {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_worker_id", "worker_id is required", nil)
		return
	}

	if err := h.ledger.RegisterWorker(caller, req.WorkerID, req.AccountID); err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusCreated, map[string]any{"worker_id": req.WorkerID})
}

func (h *Handler) handleRemoveWorker(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	workerID := mux.Vars(r)["worker_id"]
	if err := h.ledger.RemoveWorker(caller, workerID); err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, map[string]any{"worker_id": workerID})
}

func (h *Handler) handleActivateWorker(w http.ResponseWriter, r *http.Request) {
	h.setWorkerActive(w, r, true)
}

func (h *Handler) handleDeactivateWorker(w http.ResponseWriter, r *http.Request) {
	h.setWorkerActive(w, r, false)
}

func (h *Handler) setWorkerActive(w http.ResponseWriter, r *http.Request, active bool) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	workerID := mux.Vars(r)["worker_id"]
	var err error
	if active {
		err = h.ledger.ActivateWorker(caller, workerID)
	} else {
		err = h.ledger.DeactivateWorker(caller, workerID)
	}
	if err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, map[string]any{"worker_id": workerID, "active": active})
}

func (h *Handler) handleGetOwner(w http.ResponseWriter, r *http.Request) {
	apicommon.WriteJSON(w, http.StatusOK, map[string]any{"owner": h.ledger.GetOwner()})
}

func (h *Handler) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req transferOwnershipReq
	if !h.decode(w, r, &req) {
		return
	}
	if req.NewOwner == "" {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_owner", "new_owner is required", nil)
		return
	}

	if err := h.ledger.TransferOwnership(caller, req.NewOwner); err != nil {
		h.writeLedgerError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, map[string]any{"owner": req.NewOwner})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	apicommon.WriteJSON(w, http.StatusOK, statusResp{
		Owner:             h.ledger.GetOwner(),
		CurrentProposalID: h.ledger.GetCurrentProposalID(),
		WorkerCount:       h.ledger.GetWorkerCount(),
		ManifestoSet:      h.ledger.GetManifesto() != nil,
	})
}
