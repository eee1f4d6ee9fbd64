package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

type HealthResponse struct {
	Status     string         `json:"status"`
	Timestamp  time.Time      `json:"timestamp"`
	Service    string         `json:"service"`
	Components map[string]any `json:"components"`
}

type HealthHandler struct {
	providerConfigured bool
	logger             *slog.Logger
}

func NewHealthHandler(providerConfigured bool, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		providerConfigured: providerConfigured,
		logger:             logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	components := make(map[string]any)
	overallStatus := "healthy"

	if h.providerConfigured {
		components["llm_provider"] = "configured"
	} else {
		components["llm_provider"] = "not configured"
		overallStatus = "degraded"
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    "npc-engine",
		Components: components,
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding health response", "error", err)
	}
}
