package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-campus/pkg/config"
	"github.com/ekaya-inc/ekaya-campus/pkg/logging"
)

// PingResponse contains service status and version information.
type PingResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	GoVersion   string `json:"go_version"`
	Hostname    string `json:"hostname"`
	Environment string `json:"environment"`
}

// HealthResponse reports the state of the two backends.
type HealthResponse struct {
	Status   string          `json:"status"`
	Content  ComponentHealth `json:"content"`
	Store    ComponentHealth `json:"store"`
	Sessions int             `json:"sessions"`
}

// ComponentHealth describes one backend.
type ComponentHealth struct {
	Configured bool   `json:"configured"`
	Provider   string `json:"provider,omitempty"`
	Reachable  *bool  `json:"reachable,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Pinger is satisfied by *database.DB.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionCounter is satisfied by *explorer.Registry.
type SessionCounter interface {
	Len() int
}

// HealthHandler handles health check and ping endpoints.
type HealthHandler struct {
	cfg      *config.Config
	store    Pinger
	sessions SessionCounter
	logger   *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. store is nil when the
// repository store is not configured; sessions may be nil.
func NewHealthHandler(cfg *config.Config, store Pinger, sessions SessionCounter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, store: store, sessions: sessions, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ping", h.Ping)
}

// Health handles GET /health requests.
// Always 200; an unreachable store reports status "degraded".
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status: "ok",
		Content: ComponentHealth{
			Configured: h.cfg.Content.HasCredential(),
			Provider:   h.cfg.Content.Provider,
		},
		Store: ComponentHealth{Configured: h.store != nil},
	}

	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		reachable := true
		if err := h.store.Ping(ctx); err != nil {
			reachable = false
			response.Status = "degraded"
			response.Store.Error = logging.SanitizeError(err)
			h.logger.Warn("Store health check failed", zap.String("error", response.Store.Error))
		}
		response.Store.Reachable = &reachable
	}
	if h.sessions != nil {
		response.Sessions = h.sessions.Len()
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}

// Ping handles GET /ping requests.
// Returns detailed service information including version and environment.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		http.Error(w, "failed to get hostname", http.StatusInternalServerError)
		return
	}

	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     "ekaya-campus",
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Environment: h.cfg.Env,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
