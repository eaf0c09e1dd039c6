// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	service "github.com/okian/venuemap/internal/app"
	"github.com/okian/venuemap/internal/domain/selection"
)

// View is the response shape of every selection endpoint.
type View = service.View

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CatalogDependencies
	SelectionDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	catalogHandler   *CatalogHandler
	selectionHandler *SelectionHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		catalogHandler:   NewCatalogHandler(deps),
		selectionHandler: NewSelectionHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/sports", MetricsMiddleware(s.catalogHandler.HandleSports, "sports"))
	mux.HandleFunc("/api/leagues/", MetricsMiddleware(s.catalogHandler.HandleLeagues, "leagues"))
	mux.HandleFunc("/api/selection", MetricsMiddleware(s.selectionHandler.HandleSelection, "selection"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// selectionError maps a rejected selection event to a status and code.
func selectionError(err error) (int, string) {
	switch {
	case errors.Is(err, selection.ErrUnknownSport):
		return http.StatusBadRequest, "unknown_sport"
	case errors.Is(err, selection.ErrUnknownLeague):
		return http.StatusBadRequest, "unknown_league"
	case errors.Is(err, selection.ErrUnknownSeason):
		return http.StatusBadRequest, "unknown_season"
	case errors.Is(err, selection.ErrSportNotChosen):
		return http.StatusBadRequest, "sport_not_chosen"
	case errors.Is(err, selection.ErrLeagueNotChosen):
		return http.StatusBadRequest, "league_not_chosen"
	case errors.Is(err, selection.ErrUnknownStage), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	}
	return http.StatusInternalServerError, "internal_error"
}
