package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/npc-engine/internal/session"
	"github.com/jwebster45206/npc-engine/pkg/world"
)

const turnTimeout = 60 * time.Second

// ChatRequest is one user message to an active session.
type ChatRequest struct {
	ActorID string `json:"actor_id"`
	Message string `json:"message"`
}

// ChatResponse carries the NPC's reply.
type ChatResponse struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ChatHandler handles chat requests
type ChatHandler struct {
	registry *session.Registry
	logger   *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(registry *session.Registry, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		registry: registry,
		logger:   logger,
	}
}

// ServeHTTP handles HTTP requests for chat
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for chat endpoint",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)
		writeJSON(w, h.logger, http.StatusMethodNotAllowed, ChatResponse{
			Error: "Method not allowed. Only POST is supported.",
		})
		return
	}

	var request ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeJSON(w, h.logger, http.StatusBadRequest, ChatResponse{
			Error: "Invalid request body. Expected JSON with 'actor_id' and 'message' fields.",
		})
		return
	}

	if request.ActorID == "" || request.Message == "" {
		writeJSON(w, h.logger, http.StatusBadRequest, ChatResponse{
			Error: "actor_id and message are required.",
		})
		return
	}

	actorID := world.ActorID(request.ActorID)
	if !h.registry.IsActive(actorID) {
		writeJSON(w, h.logger, http.StatusConflict, ChatResponse{
			Error: "No active conversation for this actor.",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), turnTimeout)
	defer cancel()

	text, ok := h.registry.ProcessMessage(ctx, actorID, request.Message)
	if !ok {
		// Total failure resolves to the fixed apology, never a raw
		// error payload.
		writeJSON(w, h.logger, http.StatusOK, ChatResponse{Message: session.ApologyMessage})
		return
	}

	writeJSON(w, h.logger, http.StatusOK, ChatResponse{Message: text})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Error encoding response", "error", err)
	}
}
