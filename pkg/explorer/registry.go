package explorer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-campus/pkg/services"
)

// Registry owns the live sessions of the HTTP surface and evicts idle ones.
type Registry struct {
	catalog     services.CatalogService
	saved       services.SavedUniversityService
	idleTimeout time.Duration
	now         func() time.Time
	logger      *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry. A zero idleTimeout disables eviction.
func NewRegistry(catalog services.CatalogService, saved services.SavedUniversityService, idleTimeout time.Duration, logger *zap.Logger) *Registry {
	return &Registry{
		catalog:     catalog,
		saved:       saved,
		idleTimeout: idleTimeout,
		now:         time.Now,
		logger:      logger,
		sessions:    make(map[string]*Session),
	}
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Create registers a new session under a fresh id. The caller runs Start.
func (r *Registry) Create() *Session {
	s := newSession(uuid.NewString(), r.catalog, r.saved, r.now, r.logger)

	r.mu.Lock()
	r.sessions[s.ID()] = s
	count := len(r.sessions)
	r.mu.Unlock()

	r.logger.Debug("Created explorer session", zap.String("session_id", s.ID()), zap.Int("sessions", count))
	return s
}

// GetOrCreate returns the session for id, creating one when id is unknown.
// created reports whether the returned session is new.
func (r *Registry) GetOrCreate(id string) (s *Session, created bool) {
	if id != "" {
		if s, ok := r.Get(id); ok {
			return s, false
		}
	}
	return r.Create(), true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictIdle drops sessions unused for longer than the idle timeout and
// returns how many were removed.
func (r *Registry) EvictIdle() int {
	if r.idleTimeout <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTimeout)

	r.mu.Lock()
	var evicted []*Session
	for id, s := range r.sessions {
		if s.LastActive().Before(cutoff) {
			delete(r.sessions, id)
			evicted = append(evicted, s)
		}
	}
	r.mu.Unlock()

	for _, s := range evicted {
		s.Wait()
	}
	if len(evicted) > 0 {
		r.logger.Info("Evicted idle explorer sessions", zap.Int("count", len(evicted)))
	}
	return len(evicted)
}

// Run evicts idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.EvictIdle()
		}
	}
}

// Close waits for every session's background work.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Wait()
	}
}
