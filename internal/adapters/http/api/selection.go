package api

import (
	"context"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/okian/venuemap/internal/domain/model"
	"github.com/okian/venuemap/internal/domain/session"
)

// SessionCookie carries the session id between requests.
const SessionCookie = "venuemap_session"

const maxSelectionBody = 4 << 10

var validate = validator.New(validator.WithRequiredStructEnabled())

// SelectionDependencies defines the interface for per-session selection.
type SelectionDependencies interface {
	View(ctx context.Context, sessionID string) View
	Choose(ctx context.Context, sessionID, stage, value string) (View, error)
	Reset(ctx context.Context, sessionID string) View
}

// selectionRequest mirrors the OpenAPI schema for POST /api/selection.
// Value accepts a JSON string or number so seasons may be sent either way.
type selectionRequest struct {
	Stage string   `json:"stage" validate:"required,oneof=sport league season"`
	Value model.ID `json:"value" validate:"required"`
}

// SelectionHandler applies selection events for the caller's session.
type SelectionHandler struct {
	deps SelectionDependencies
}

// NewSelectionHandler creates a new selection handler.
func NewSelectionHandler(deps SelectionDependencies) *SelectionHandler {
	return &SelectionHandler{deps: deps}
}

// HandleSelection handles GET, POST and DELETE /api/selection requests.
func (h *SelectionHandler) HandleSelection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		id := sessionID(w, r)
		writeJSON(w, http.StatusOK, h.deps.View(r.Context(), id))
	case http.MethodPost:
		h.handleChoose(w, r)
	case http.MethodDelete:
		id := sessionID(w, r)
		writeJSON(w, http.StatusOK, h.deps.Reset(r.Context(), id))
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

func (h *SelectionHandler) handleChoose(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSelectionBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.Mark(errors.Wrap(err, "read body"), ErrBadRequest))
		return
	}
	var req selectionRequest
	if err := sonic.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.Mark(errors.Wrap(err, "invalid json"), ErrBadRequest))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.Mark(errors.Wrap(err, "invalid selection"), ErrBadRequest))
		return
	}

	id := sessionID(w, r)
	view, err := h.deps.Choose(r.Context(), id, req.Stage, req.Value.String())
	if err != nil {
		status, code := selectionError(err)
		writeError(w, status, code, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// sessionID returns the caller's session id, issuing a new cookie when the
// request has none or an invalid one.
func sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && session.ValidID(c.Value) {
		return c.Value
	}
	id := session.NewID()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
