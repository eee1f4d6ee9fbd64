package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/npc-engine/internal/session"
	"github.com/jwebster45206/npc-engine/pkg/world"
)

// SessionRequest starts, ends, or toggles a conversation.
type SessionRequest struct {
	ActorID  string `json:"actor_id"`
	EntityID string `json:"entity_id,omitempty"`
	Action   string `json:"action"` // "start", "end", "toggle"
}

// SessionResponse reports session state after the action.
type SessionResponse struct {
	Active   bool   `json:"active"`
	EntityID string `json:"entity_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Error    string `json:"error,omitempty"`
}

// SessionHandler handles session lifecycle requests.
type SessionHandler struct {
	registry *session.Registry
	dir      world.Directory
	logger   *slog.Logger
}

func NewSessionHandler(registry *session.Registry, dir world.Directory, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		registry: registry,
		dir:      dir,
		logger:   logger,
	}
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPost:
		h.post(w, r)
	default:
		writeJSON(w, h.logger, http.StatusMethodNotAllowed, SessionResponse{
			Error: "Method not allowed.",
		})
	}
}

func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request) {
	actorID := world.ActorID(r.URL.Query().Get("actor_id"))
	if actorID == "" {
		writeJSON(w, h.logger, http.StatusBadRequest, SessionResponse{Error: "actor_id is required."})
		return
	}

	partner, ok := h.registry.PartnerOf(actorID)
	if !ok {
		writeJSON(w, h.logger, http.StatusOK, SessionResponse{Active: false})
		return
	}
	writeJSON(w, h.logger, http.StatusOK, SessionResponse{Active: true, EntityID: string(partner)})
}

func (h *SessionHandler) post(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid session request body", "error", err)
		writeJSON(w, h.logger, http.StatusBadRequest, SessionResponse{Error: "Invalid request body."})
		return
	}

	actorID := world.ActorID(req.ActorID)
	if actorID == "" {
		writeJSON(w, h.logger, http.StatusBadRequest, SessionResponse{Error: "actor_id is required."})
		return
	}

	switch req.Action {
	case "end":
		h.registry.End(actorID)
		writeJSON(w, h.logger, http.StatusOK, SessionResponse{Active: false})

	case "start", "toggle":
		actor, ok := h.dir.Actor(actorID)
		if !ok {
			writeJSON(w, h.logger, http.StatusNotFound, SessionResponse{Error: "Unknown actor."})
			return
		}
		entity, ok := h.dir.Entity(world.EntityID(req.EntityID))
		if !ok {
			writeJSON(w, h.logger, http.StatusNotFound, SessionResponse{Error: "Unknown entity."})
			return
		}

		var active bool
		var reason string
		if req.Action == "start" {
			active, reason = h.registry.Start(actor, entity)
		} else {
			active, reason = h.registry.Toggle(actor, entity)
		}

		resp := SessionResponse{Active: active, Reason: reason}
		if active {
			resp.EntityID = req.EntityID
		}
		writeJSON(w, h.logger, http.StatusOK, resp)

	default:
		writeJSON(w, h.logger, http.StatusBadRequest, SessionResponse{
			Error: "Unknown action. Expected start, end, or toggle.",
		})
	}
}
