package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/choreloop/choreloop/internal/metrics"
	"github.com/choreloop/choreloop/internal/model"
	"github.com/choreloop/choreloop/internal/rotation"
	"github.com/choreloop/choreloop/internal/store"
	"github.com/choreloop/choreloop/internal/websocket"
)

const defaultGoalPercentage = 80

type HomeHandler struct {
	homeStore  *store.HomeStore
	auditStore *store.AuditStore
	metrics    *metrics.Engine
	manager    *rotation.Manager
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewHomeHandler(hs *store.HomeStore, as *store.AuditStore, me *metrics.Engine, rm *rotation.Manager, hub *websocket.Hub, logger *slog.Logger) *HomeHandler {
	return &HomeHandler{homeStore: hs, auditStore: as, metrics: me, manager: rm, hub: hub, logger: logger}
}

func (h *HomeHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type homeRequest struct {
	Name           string               `json:"name"`
	RotationPolicy model.RotationPolicy `json:"rotation_policy"`
	GoalPercentage *int                 `json:"goal_percentage"`
}

func (req *homeRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if !model.ValidPolicy(req.RotationPolicy) {
		return "rotation_policy must be daily, weekly, biweekly, or monthly"
	}
	if req.GoalPercentage != nil && (*req.GoalPercentage < 0 || *req.GoalPercentage > 100) {
		return "goal_percentage must be between 0 and 100"
	}
	return ""
}

func (h *HomeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req homeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	goal := defaultGoalPercentage
	if req.GoalPercentage != nil {
		goal = *req.GoalPercentage
	}

	home, err := h.homeStore.Create(req.Name, req.RotationPolicy, goal)
	if err != nil {
		h.logger.Error("create home failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create home")
		return
	}

	writeJSON(w, http.StatusCreated, home)
}

func (h *HomeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	home, err := h.homeStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get home")
		return
	}
	if home == nil {
		writeError(w, http.StatusNotFound, "home not found")
		return
	}
	writeJSON(w, http.StatusOK, home)
}

func (h *HomeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.homeStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get home")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "home not found")
		return
	}

	var req homeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	goal := existing.GoalPercentage
	if req.GoalPercentage != nil {
		goal = *req.GoalPercentage
	}

	home, err := h.homeStore.Update(id, req.Name, req.RotationPolicy, goal)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update home")
		return
	}

	h.broadcast(websocket.NewMessage("home", "updated", id, id, nil))

	writeJSON(w, http.StatusOK, home)
}

func (h *HomeHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	m, err := h.metrics.HomeMetrics(id)
	if err != nil {
		if errors.Is(err, metrics.ErrHomeNotFound) {
			writeError(w, http.StatusNotFound, "home not found")
			return
		}
		h.logger.Error("compute metrics failed", "home_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute metrics")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *HomeHandler) Audit(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.auditStore.ListByHome(id, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}
	if entries == nil {
		entries = []model.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *HomeHandler) Rollover(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	result, err := h.manager.RolloverIfNeeded(id)
	if err != nil {
		if errors.Is(err, rotation.ErrHomeNotFound) {
			writeError(w, http.StatusNotFound, "home not found")
			return
		}
		h.logger.Error("rollover failed", "home_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to roll over cycle")
		return
	}

	if result.RolledOver {
		h.broadcast(websocket.NewMessage("cycle", "rolled_over", id, 0, map[string]any{
			"closed":           result.Closed,
			"assigned":         result.Assigned,
			"next_cycle_start": result.NextCycleStart,
		}))
	}

	writeJSON(w, http.StatusOK, result)
}
