package api

import (
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/okian/venuemap/internal/domain/selection"
)

// CatalogDependencies defines the interface for catalog lookups.
type CatalogDependencies interface {
	Sports() []string
	Leagues(sport string) ([]string, error)
}

// CatalogHandler serves the static sport and league enumeration.
type CatalogHandler struct {
	deps CatalogDependencies
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(deps CatalogDependencies) *CatalogHandler {
	return &CatalogHandler{deps: deps}
}

// HandleSports handles GET /api/sports requests.
func (h *CatalogHandler) HandleSports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sports": h.deps.Sports()})
}

// HandleLeagues handles GET /api/leagues/{sport} requests.
func (h *CatalogHandler) HandleLeagues(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	sport := strings.TrimPrefix(r.URL.Path, "/api/leagues/")
	if sport == "" || strings.Contains(sport, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	leagues, err := h.deps.Leagues(sport)
	if err != nil {
		if errors.Is(err, selection.ErrUnknownSport) {
			writeError(w, http.StatusNotFound, "unknown_sport", errors.Mark(err, ErrNotFound))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sport": sport, "leagues": leagues})
}
