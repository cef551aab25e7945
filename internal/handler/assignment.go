package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/choreloop/choreloop/internal/assignment"
	"github.com/choreloop/choreloop/internal/cycle"
	"github.com/choreloop/choreloop/internal/model"
	"github.com/choreloop/choreloop/internal/store"
	"github.com/choreloop/choreloop/internal/websocket"
)

type AssignmentHandler struct {
	service         *assignment.Service
	homeStore       *store.HomeStore
	memberStore     *store.MemberStore
	assignmentStore *store.AssignmentStore
	hub             *websocket.Hub
	logger          *slog.Logger
}

func NewAssignmentHandler(
	svc *assignment.Service,
	hs *store.HomeStore,
	ms *store.MemberStore,
	as *store.AssignmentStore,
	hub *websocket.Hub,
	logger *slog.Logger,
) *AssignmentHandler {
	return &AssignmentHandler{
		service:         svc,
		homeStore:       hs,
		memberStore:     ms,
		assignmentStore: as,
		hub:             hub,
		logger:          logger,
	}
}

func (h *AssignmentHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// serviceError maps the assignment service's error taxonomy onto HTTP status
// codes: missing records are 404, rejected state transitions are 409.
func (h *AssignmentHandler) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, assignment.ErrAssignmentNotFound),
		errors.Is(err, assignment.ErrTaskNotFound),
		errors.Is(err, assignment.ErrMemberNotFound),
		errors.Is(err, assignment.ErrHomeNotFound),
		errors.Is(err, assignment.ErrCancellationNotFound),
		errors.Is(err, assignment.ErrExchangeNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, assignment.ErrNotPending),
		errors.Is(err, assignment.ErrNotOwner),
		errors.Is(err, assignment.ErrMemberInactive),
		errors.Is(err, assignment.ErrHomeMismatch),
		errors.Is(err, assignment.ErrDuplicateAssignment),
		errors.Is(err, assignment.ErrAlreadyResolved),
		errors.Is(err, assignment.ErrNotAvailable):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("assignment operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// ListCurrent returns the home's assignments for the cycle containing now.
func (h *AssignmentHandler) ListCurrent(w http.ResponseWriter, r *http.Request) {
	homeID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	home, err := h.homeStore.GetByID(homeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get home")
		return
	}
	if home == nil {
		writeError(w, http.StatusNotFound, "home not found")
		return
	}

	start := cycle.Start(home.RotationPolicy, h.service.Now())
	end := cycle.End(home.RotationPolicy, start)

	assignments, err := h.assignmentStore.ListByHomeAndRange(homeID, start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list assignments")
		return
	}
	if assignments == nil {
		assignments = []model.Assignment{}
	}
	writeJSON(w, http.StatusOK, assignments)
}

func (h *AssignmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		MemberID int64 `json:"member_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MemberID < 1 {
		writeError(w, http.StatusBadRequest, "member_id is required")
		return
	}

	result, err := h.service.Complete(id, req.MemberID)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	if member, err := h.memberStore.GetByID(req.MemberID); err == nil && member != nil {
		h.broadcast(websocket.NewMessage("assignment", "completed", member.HomeID, id, map[string]any{
			"member_id": req.MemberID,
			"points":    result.Completion.PointsEarned,
		}))
		if result.LevelChanged {
			h.broadcast(websocket.NewMessage("member", "level_changed", member.HomeID, req.MemberID, map[string]any{
				"level": result.Level,
			}))
		}
		for _, a := range result.NewlyUnlocked {
			h.broadcast(websocket.NewMessage("achievement", "unlocked", member.HomeID, a.ID, map[string]any{
				"member_id": req.MemberID,
				"code":      a.Code,
			}))
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *AssignmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		MemberID int64  `json:"member_id"`
		Reason   string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MemberID < 1 {
		writeError(w, http.StatusBadRequest, "member_id is required")
		return
	}

	c, err := h.service.Cancel(id, req.MemberID, req.Reason)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	if member, err := h.memberStore.GetByID(req.MemberID); err == nil && member != nil {
		h.broadcast(websocket.NewMessage("assignment", "cancelled", member.HomeID, id, map[string]any{
			"member_id": req.MemberID,
		}))
	}

	writeJSON(w, http.StatusOK, c)
}

// Reclaimable returns the home's current reclaim pool.
func (h *AssignmentHandler) Reclaimable(w http.ResponseWriter, r *http.Request) {
	homeID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	entries, err := h.service.ListReclaimable(homeID)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	if entries == nil {
		entries = []assignment.ReclaimEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *AssignmentHandler) Reclaim(w http.ResponseWriter, r *http.Request) {
	var req assignment.ReclaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.TaskID < 1 || req.MemberID < 1 {
		writeError(w, http.StatusBadRequest, "task_id and member_id are required")
		return
	}
	if req.Source != assignment.SourceCancellation && req.Source != assignment.SourceUnassigned {
		writeError(w, http.StatusBadRequest, "source must be cancellation or unassigned")
		return
	}
	if req.Source == assignment.SourceCancellation && req.CancellationID < 1 {
		writeError(w, http.StatusBadRequest, "cancellation_id is required for cancellation reclaims")
		return
	}

	a, err := h.service.Reclaim(req)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	if member, err := h.memberStore.GetByID(req.MemberID); err == nil && member != nil {
		h.broadcast(websocket.NewMessage("assignment", "reclaimed", member.HomeID, a.ID, map[string]any{
			"member_id": req.MemberID,
			"task_id":   a.TaskID,
		}))
	}

	writeJSON(w, http.StatusCreated, a)
}

type exchangeRequest struct {
	AssignmentID int64              `json:"assignment_id"`
	RequestedBy  int64              `json:"requested_by"`
	ResponderID  int64              `json:"responder_id"`
	Kind         model.ExchangeKind `json:"kind"`
	Message      string             `json:"message"`
}

func (h *AssignmentHandler) OpenExchange(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.AssignmentID < 1 || req.RequestedBy < 1 || req.ResponderID < 1 {
		writeError(w, http.StatusBadRequest, "assignment_id, requested_by, and responder_id are required")
		return
	}
	if req.Kind == "" {
		req.Kind = model.ExchangeSwap
	}
	if req.Kind != model.ExchangeSwap && req.Kind != model.ExchangeCover {
		writeError(w, http.StatusBadRequest, "kind must be swap or cover")
		return
	}

	e, err := h.service.OpenExchange(req.AssignmentID, req.RequestedBy, req.ResponderID, req.Kind, req.Message)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, e)
}

func (h *AssignmentHandler) RespondExchange(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Accept *bool `json:"accept"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Accept == nil {
		writeError(w, http.StatusBadRequest, "accept is required")
		return
	}

	e, err := h.service.RespondToExchange(id, *req.Accept)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	if member, err := h.memberStore.GetByID(e.ResponderID); err == nil && member != nil {
		h.broadcast(websocket.NewMessage("exchange", string(e.Status), member.HomeID, e.ID, map[string]any{
			"assignment_id": e.AssignmentID,
		}))
	}

	writeJSON(w, http.StatusOK, e)
}
