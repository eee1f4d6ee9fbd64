package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/npc-engine/pkg/world"
)

// EntityLister enumerates loaded entities for discovery endpoints.
type EntityLister interface {
	EntityList() []world.Entity
}

// EntityInfo is one row of the entity listing.
type EntityInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Region   string `json:"region"`
	Activity string `json:"activity,omitempty"`
}

// EntitiesHandler lists entities available for conversation.
type EntitiesHandler struct {
	lister EntityLister
	logger *slog.Logger
}

func NewEntitiesHandler(lister EntityLister, logger *slog.Logger) *EntitiesHandler {
	return &EntitiesHandler{lister: lister, logger: logger}
}

func (h *EntitiesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		writeJSON(w, h.logger, http.StatusMethodNotAllowed, map[string]string{
			"error": "Method not allowed. Only GET is supported.",
		})
		return
	}

	entities := h.lister.EntityList()
	out := make([]EntityInfo, 0, len(entities))
	for _, e := range entities {
		if !e.Valid() {
			continue
		}
		out = append(out, EntityInfo{
			ID:       string(e.ID()),
			Name:     e.Name(),
			Role:     e.Role(),
			Region:   e.Position().RegionKey,
			Activity: e.Activity(),
		})
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}
