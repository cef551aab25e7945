package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/choreloop/choreloop/internal/model"
	"github.com/choreloop/choreloop/internal/progression"
	"github.com/choreloop/choreloop/internal/store"
	"github.com/choreloop/choreloop/internal/websocket"
)

type MemberHandler struct {
	homeStore   *store.HomeStore
	memberStore *store.MemberStore
	progression *progression.Engine
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewMemberHandler(hs *store.HomeStore, ms *store.MemberStore, pe *progression.Engine, hub *websocket.Hub, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{homeStore: hs, memberStore: ms, progression: pe, hub: hub, logger: logger}
}

func (h *MemberHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type memberRequest struct {
	Name   string             `json:"name"`
	Status model.MemberStatus `json:"status"`
}

func validMemberStatus(s model.MemberStatus) bool {
	switch s {
	case model.MemberActive, model.MemberPending, model.MemberInactive:
		return true
	}
	return false
}

// Create adds a member to the home in the path. Status defaults to active.
func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Status == "" {
		req.Status = model.MemberActive
	}
	if !validMemberStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "status must be active, pending, or inactive")
		return
	}

	member, err := h.memberStore.Create(homeID, req.Name, req.Status)
	if err != nil {
		h.logger.Error("create member failed", "home_id", homeID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create member")
		return
	}

	h.broadcast(websocket.NewMessage("member", "created", homeID, member.ID, nil))

	writeJSON(w, http.StatusCreated, member)
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	homeID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	members, err := h.memberStore.ListByHome(homeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.memberStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Status == "" {
		req.Status = existing.Status
	}
	if !validMemberStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "status must be active, pending, or inactive")
		return
	}

	member, err := h.memberStore.Update(id, req.Name, req.Status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update member")
		return
	}

	h.broadcast(websocket.NewMessage("member", "updated", member.HomeID, id, nil))

	writeJSON(w, http.StatusOK, member)
}

// Progress returns the member's mastery level, composite score, and unlocked
// achievements.
func (h *MemberHandler) Progress(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	progress, err := h.progression.Progress(id)
	if err != nil {
		if errors.Is(err, progression.ErrMemberNotFound) {
			writeError(w, http.StatusNotFound, "member not found")
			return
		}
		h.logger.Error("compute progress failed", "member_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute progress")
		return
	}
	writeJSON(w, http.StatusOK, progress)
}
