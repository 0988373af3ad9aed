package handlers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-campus/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-campus/pkg/config"
	"github.com/ekaya-inc/ekaya-campus/pkg/explorer"
	"github.com/ekaya-inc/ekaya-campus/pkg/models"
)

// SessionCookieName is the cookie that carries the explorer session id.
const SessionCookieName = "campus-session"

const sessionKeyID = "sid"

// ModeRequest is the body of POST /api/mode.
type ModeRequest struct {
	Mode string `json:"mode"`
}

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Query string `json:"query"`
}

// ExplorerHandler exposes one explorer session per browser over HTTP.
type ExplorerHandler struct {
	registry *explorer.Registry
	store    *sessions.CookieStore
	logger   *zap.Logger
}

// NewExplorerHandler creates the handler. The cookie signing key is the
// SHA-256 of cfg.Secret; an empty secret gets a random one, so sessions do
// not survive a restart.
func NewExplorerHandler(registry *explorer.Registry, cfg config.SessionConfig, logger *zap.Logger) *ExplorerHandler {
	secret := cfg.Secret
	if secret == "" {
		logger.Warn("SESSION_SECRET not set, using a random secret; sessions reset on restart")
		secret = rand.Text()
	}
	key := sha256.Sum256([]byte(secret))

	store := sessions.NewCookieStore(key[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &ExplorerHandler{
		registry: registry,
		store:    store,
		logger:   logger.Named("explorer-http"),
	}
}

// RegisterRoutes registers the explorer handler's routes on the given mux.
func (h *ExplorerHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/state", h.State)
	mux.HandleFunc("POST /api/start", h.Start)
	mux.HandleFunc("POST /api/mode", h.SwitchMode)
	mux.HandleFunc("POST /api/search", h.Search)
	mux.HandleFunc("POST /api/universities/{id}/select", h.SelectUniversity)
	mux.HandleFunc("POST /api/programs/{name}/select", h.SelectProgram)
	mux.HandleFunc("POST /api/back", h.Back)
	mux.HandleFunc("POST /api/saved/toggle", h.ToggleSave)
	mux.HandleFunc("POST /api/location", h.LoadLocation)
}

// State handles GET /api/state.
// A new session runs its entry action before the first snapshot is returned.
func (h *ExplorerHandler) State(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeState(w, s)
}

// Start handles POST /api/start: re-runs the current mode's entry action.
func (h *ExplorerHandler) Start(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, s, s.Start(fetchContext(r)))
}

// SwitchMode handles POST /api/mode.
func (h *ExplorerHandler) SwitchMode(w http.ResponseWriter, r *http.Request) {
	var req ModeRequest
	if !DecodeJSONBody(w, r, &req, h.logger) {
		return
	}
	mode, err := ParseViewMode(req.Mode)
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, s, s.SwitchMode(fetchContext(r), mode))
}

// Search handles POST /api/search. The query must not be blank.
func (h *ExplorerHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !DecodeJSONBody(w, r, &req, h.logger) {
		return
	}

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, s, s.Search(fetchContext(r), req.Query))
}

// SelectUniversity handles POST /api/universities/{id}/select.
// The optional body carries the device location used for the map lookup,
// which runs in the background together with the saved check.
func (h *ExplorerHandler) SelectUniversity(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseUniversityID(w, r, h.logger)
	if !ok {
		return
	}
	var loc LocationRequest
	if !DecodeJSONBody(w, r, &loc, h.logger) {
		return
	}
	userLocation, err := loc.LatLng()
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	ctx := fetchContext(r)
	if err := s.SelectUniversity(ctx, id); err != nil {
		h.writeError(w, err)
		return
	}

	snap := s.Snapshot()
	if snap.CurrentView() == models.ViewUniversity && snap.SelectedUniversity.ID == id {
		s.StartDetailExtras(ctx, userLocation)
	}
	h.writeSnapshot(w, snap)
}

// SelectProgram handles POST /api/programs/{name}/select.
func (h *ExplorerHandler) SelectProgram(w http.ResponseWriter, r *http.Request) {
	name, ok := ParseProgramName(w, r, h.logger)
	if !ok {
		return
	}

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, s, s.SelectProgram(fetchContext(r), name))
}

// Back handles POST /api/back.
func (h *ExplorerHandler) Back(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, s, s.Back())
}

// ToggleSave handles POST /api/saved/toggle.
func (h *ExplorerHandler) ToggleSave(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, s, s.ToggleSave(fetchContext(r)))
}

// LoadLocation handles POST /api/location: reloads the map description of
// the selected university relative to the given coordinates.
func (h *ExplorerHandler) LoadLocation(w http.ResponseWriter, r *http.Request) {
	var loc LocationRequest
	if !DecodeJSONBody(w, r, &loc, h.logger) {
		return
	}
	userLocation, err := loc.LatLng()
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err))
		return
	}

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, s, s.LoadLocation(fetchContext(r), userLocation))
}

// session resolves the caller's explorer session from the cookie, creating
// and starting a new one when the cookie is missing, invalid or evicted.
func (h *ExplorerHandler) session(w http.ResponseWriter, r *http.Request) (*explorer.Session, bool) {
	cookie, err := h.store.Get(r, SessionCookieName)
	if err != nil {
		// A cookie signed with another key decodes to a fresh session.
		h.logger.Debug("Ignoring invalid session cookie", zap.Error(err))
	}
	id, _ := cookie.Values[sessionKeyID].(string)

	s, created := h.registry.GetOrCreate(id)
	if !created {
		return s, true
	}

	cookie.Values[sessionKeyID] = s.ID()
	if err := cookie.Save(r, w); err != nil {
		h.logger.Error("Failed to save session cookie", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to create session"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return nil, false
	}

	if err := s.Start(fetchContext(r)); err != nil && !errors.Is(err, apperrors.ErrBusy) {
		h.logger.Warn("Failed to start explorer session", zap.String("session_id", s.ID()), zap.Error(err))
	}
	return s, true
}

// respond writes the session snapshot, or the mapped error when err is set.
func (h *ExplorerHandler) respond(w http.ResponseWriter, s *explorer.Session, err error) {
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeState(w, s)
}

func (h *ExplorerHandler) writeState(w http.ResponseWriter, s *explorer.Session) {
	h.writeSnapshot(w, s.Snapshot())
}

func (h *ExplorerHandler) writeSnapshot(w http.ResponseWriter, snap models.AppState) {
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: snap}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *ExplorerHandler) writeError(w http.ResponseWriter, err error) {
	status, code := statusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Explorer request failed", zap.Error(err))
	}
	if err := ErrorResponse(w, status, code, err.Error()); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

// fetchContext detaches session fetches from the request lifetime. The
// session keeps the result even if the client has gone away.
func fetchContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}
