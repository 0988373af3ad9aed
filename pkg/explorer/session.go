// Package explorer implements the view/selection state machine behind one
// user's browsing session: which mode is active, what is listed, what is
// drilled into, and which fetches are still allowed to land.
package explorer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ekaya-inc/ekaya-campus/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-campus/pkg/logging"
	"github.com/ekaya-inc/ekaya-campus/pkg/models"
	"github.com/ekaya-inc/ekaya-campus/pkg/services"
)

// pendingKind names the primary fetch currently in flight.
type pendingKind int

const (
	pendingNone pendingKind = iota
	pendingList
	pendingUniversity
	pendingProgram
)

// Session is one explorer session. It is safe for concurrent use: state is
// guarded by a mutex and service calls are made without holding it.
//
// Two generation counters decide whether a response may still be applied.
// primaryGen covers the list and drill-in fetches; detailGen covers the
// location and saved-status panel of the selected university. savedGen
// additionally orders saved-status reads against saves and removals. Any
// transition that makes an in-flight response meaningless bumps the matching
// counter.
type Session struct {
	id      string
	catalog services.CatalogService
	saved   services.SavedUniversityService
	logger  *zap.Logger
	now     func() time.Time

	mu         sync.Mutex
	state      models.AppState
	pending    pendingKind
	primaryGen uint64
	detailGen  uint64
	savedGen   uint64
	lastActive time.Time

	background sync.WaitGroup
}

// NewSession creates a session in explorer mode with an empty list.
// Call Start to run the initial load.
func NewSession(id string, catalog services.CatalogService, saved services.SavedUniversityService, logger *zap.Logger) *Session {
	return newSession(id, catalog, saved, time.Now, logger)
}

func newSession(id string, catalog services.CatalogService, saved services.SavedUniversityService, now func() time.Time, logger *zap.Logger) *Session {
	return &Session{
		id:      id,
		catalog: catalog,
		saved:   saved,
		logger:  logger.Named("explorer").With(zap.String("session_id", id)),
		now:     now,
		state: models.AppState{
			Mode:             models.ModeExplorer,
			View:             models.ViewList,
			Universities:     []models.University{},
			StoreConfigured:  saved.IsConfigured(),
			SuggestedQueries: SuggestedQueries,
		},
		lastActive: now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() models.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()
	return s.state.Clone()
}

// LastActive returns when the session was last used.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Start runs the entry action of the current mode: the default search in
// explorer mode, the repository listing in repository mode.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Loading {
		s.mu.Unlock()
		return apperrors.ErrBusy
	}
	mode := s.state.Mode
	gen := s.beginPrimaryLocked(pendingList)
	s.mu.Unlock()

	s.loadList(ctx, mode, gen)
	return nil
}

// SwitchMode changes between explorer and repository mode. Switching to the
// current mode does nothing. Switching is never blocked by a pending fetch:
// the old fetch is abandoned and the list is cleared before the new one starts.
func (s *Session) SwitchMode(ctx context.Context, mode models.ViewMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("%w: unknown mode %q", apperrors.ErrInvalidInput, mode)
	}

	s.mu.Lock()
	s.lastActive = s.now()
	if s.state.Mode == mode {
		s.mu.Unlock()
		return nil
	}

	s.state.Mode = mode
	s.state.Universities = []models.University{}
	s.clearSelectionLocked()
	s.state.Error = nil
	s.state.ScrollSeq++
	gen := s.beginPrimaryLocked(pendingList)
	s.mu.Unlock()

	s.logger.Info("Switched mode", zap.String("mode", mode.String()))
	s.loadList(ctx, mode, gen)
	return nil
}

// Search replaces the explorer list with the results for query.
// Only available in explorer mode on the list view.
func (s *Session) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return fmt.Errorf("%w: search query is required", apperrors.ErrInvalidInput)
	}

	s.mu.Lock()
	s.lastActive = s.now()
	if s.state.Mode != models.ModeExplorer || s.state.CurrentView() != models.ViewList {
		s.mu.Unlock()
		return apperrors.ErrUnavailableInView
	}
	if s.state.Loading {
		s.mu.Unlock()
		return apperrors.ErrBusy
	}
	gen := s.beginPrimaryLocked(pendingList)
	s.mu.Unlock()

	s.search(ctx, query, gen)
	return nil
}

// SelectUniversity drills into a university from the current list.
func (s *Session) SelectUniversity(ctx context.Context, id string) error {
	s.mu.Lock()
	s.lastActive = s.now()
	if s.state.CurrentView() != models.ViewList {
		s.mu.Unlock()
		return apperrors.ErrUnavailableInView
	}
	if s.state.Loading {
		s.mu.Unlock()
		return apperrors.ErrBusy
	}
	university, ok := s.findUniversityLocked(id)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: university %q is not in the current list", apperrors.ErrNotFound, id)
	}
	gen := s.beginPrimaryLocked(pendingUniversity)
	s.mu.Unlock()

	details, err := s.catalog.GetDetails(ctx, university.Name)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finishPrimaryLocked(gen) {
		s.logger.Debug("Dropped stale university details", zap.String("university", university.Name))
		return nil
	}

	switch {
	case err != nil:
		s.logger.Warn("Failed to load university details",
			zap.String("university", university.Name),
			zap.String("error", logging.SanitizeError(err)))
		s.setErrorLocked(BannerDetailsFailed)
	case details == nil:
		s.setErrorLocked(BannerDetailsNotFound)
	default:
		// Keep the list row's id so repository rows stay addressable.
		details.ID = university.ID
		s.state.SelectedUniversity = details
		s.state.SelectedProgram = nil
		s.state.Error = nil
		s.state.ScrollSeq++
		s.resetDetailLocked()
	}
	return nil
}

// SelectProgram drills into a program of the selected university. Without a
// selected university it returns ErrUnavailableInView and changes nothing.
func (s *Session) SelectProgram(ctx context.Context, programName string) error {
	s.mu.Lock()
	s.lastActive = s.now()
	if s.state.CurrentView() != models.ViewUniversity {
		s.mu.Unlock()
		return apperrors.ErrUnavailableInView
	}
	if s.state.Loading {
		s.mu.Unlock()
		return apperrors.ErrBusy
	}
	program, ok := s.state.SelectedUniversity.FindProgram(programName)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: program %q", apperrors.ErrNotFound, programName)
	}
	universityName := s.state.SelectedUniversity.Name
	gen := s.beginPrimaryLocked(pendingProgram)
	s.mu.Unlock()

	details, err := s.catalog.GetProgramDetails(ctx, universityName, program)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finishPrimaryLocked(gen) {
		s.logger.Debug("Dropped stale program details", zap.String("program", program.Name))
		return nil
	}

	switch {
	case err != nil:
		s.logger.Warn("Failed to load program details",
			zap.String("university", universityName),
			zap.String("program", program.Name),
			zap.String("error", logging.SanitizeError(err)))
		s.setErrorLocked(BannerProgramFailed)
	case details == nil:
		s.setErrorLocked(BannerProgramNotFound)
	default:
		s.state.SelectedProgram = details
		s.state.Error = nil
		s.state.ScrollSeq++
	}
	return nil
}

// Back leaves the program view for the university view, or the university
// view for the list. A pending drill-in fetch is abandoned; from the list
// view that is all Back does.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()

	abandoned := s.abandonDrillInLocked()

	switch s.state.CurrentView() {
	case models.ViewProgram:
		s.state.SelectedProgram = nil
	case models.ViewUniversity:
		s.clearSelectionLocked()
	default:
		if !abandoned {
			return apperrors.ErrUnavailableInView
		}
	}
	return nil
}

// ToggleSave saves the selected university, or removes it if already saved.
// Guarded by its own isSaving flag rather than the primary loading flag.
// Store failures are logged and leave isSaved unchanged.
func (s *Session) ToggleSave(ctx context.Context) error {
	s.mu.Lock()
	s.lastActive = s.now()
	if s.state.CurrentView() != models.ViewUniversity {
		s.mu.Unlock()
		return apperrors.ErrUnavailableInView
	}
	if s.state.Detail.IsSaving {
		s.mu.Unlock()
		return apperrors.ErrBusy
	}
	details := s.state.SelectedUniversity.Clone()
	wasSaved := s.state.Detail.IsSaved
	gen := s.detailGen
	s.savedGen++
	s.state.Detail.IsSaving = true
	s.mu.Unlock()

	var err error
	if wasSaved {
		err = s.saved.Remove(ctx, details.Name)
	} else {
		err = s.saved.Save(ctx, details)
	}
	if err != nil {
		s.logger.Error("Failed to update repository",
			zap.String("university", details.Name),
			zap.Bool("was_saved", wasSaved),
			zap.String("error", logging.SanitizeError(err)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.detailGen {
		return nil
	}
	s.savedGen++
	s.state.Detail.IsSaving = false
	if err == nil {
		s.state.Detail.IsSaved = !wasSaved
	}
	return nil
}

// LoadLocation fills the location panel of the selected university.
// Ignored with ErrBusy while a location lookup is already running.
func (s *Session) LoadLocation(ctx context.Context, userLocation *models.LatLng) error {
	s.mu.Lock()
	s.lastActive = s.now()
	if s.state.SelectedUniversity == nil {
		s.mu.Unlock()
		return apperrors.ErrUnavailableInView
	}
	if s.state.Detail.LoadingLocation {
		s.mu.Unlock()
		return apperrors.ErrBusy
	}
	name := s.state.SelectedUniversity.Name
	gen := s.detailGen
	s.state.Detail.LoadingLocation = true
	s.mu.Unlock()

	info := s.catalog.GetLocationInfo(ctx, name, userLocation)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.detailGen {
		return nil
	}
	s.state.Detail.Location = &info
	s.state.Detail.LoadingLocation = false
	return nil
}

// CheckSaved refreshes whether the selected university is in the repository.
// A read that overlaps a save or removal is dropped: the toggle result wins.
func (s *Session) CheckSaved(ctx context.Context) error {
	s.mu.Lock()
	s.lastActive = s.now()
	if s.state.SelectedUniversity == nil {
		s.mu.Unlock()
		return apperrors.ErrUnavailableInView
	}
	name := s.state.SelectedUniversity.Name
	gen, savedGen := s.detailGen, s.savedGen
	s.mu.Unlock()

	saved := s.saved.IsSaved(ctx, name)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.detailGen || savedGen != s.savedGen {
		s.logger.Debug("Dropped stale saved status", zap.String("university", name))
		return nil
	}
	s.state.Detail.IsSaved = saved
	return nil
}

// LoadDetailExtras runs LoadLocation and CheckSaved concurrently. A busy
// location slot does not cancel the saved-status read.
func (s *Session) LoadDetailExtras(ctx context.Context, userLocation *models.LatLng) error {
	var g errgroup.Group
	g.Go(func() error {
		return s.LoadLocation(ctx, userLocation)
	})
	g.Go(func() error {
		return s.CheckSaved(ctx)
	})
	return g.Wait()
}

// StartDetailExtras runs LoadDetailExtras in the background, detached from
// ctx cancellation. Use Wait to block until background work finishes.
func (s *Session) StartDetailExtras(ctx context.Context, userLocation *models.LatLng) {
	ctx = context.WithoutCancel(ctx)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		if err := s.LoadDetailExtras(ctx, userLocation); err != nil {
			s.logger.Debug("Detail extras skipped", zap.Error(err))
		}
	}()
}

// Wait blocks until background work started by StartDetailExtras is done.
func (s *Session) Wait() {
	s.background.Wait()
}

func (s *Session) loadList(ctx context.Context, mode models.ViewMode, gen uint64) {
	if mode == models.ModeExplorer {
		s.search(ctx, DefaultQuery, gen)
		return
	}

	if !s.saved.IsConfigured() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.finishPrimaryLocked(gen) {
			s.state.Universities = []models.University{}
			s.setErrorLocked(BannerStoreNotConfigured)
		}
		return
	}

	rows := s.saved.ListAll(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finishPrimaryLocked(gen) {
		return
	}
	universities := make([]models.University, 0, len(rows))
	for _, row := range rows {
		universities = append(universities, row.University)
	}
	s.state.Universities = universities
	s.state.Error = nil
}

func (s *Session) search(ctx context.Context, query string, gen uint64) {
	results, err := s.catalog.Search(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finishPrimaryLocked(gen) {
		s.logger.Debug("Dropped stale search results", zap.String("query", logging.SanitizePrompt(query)))
		return
	}
	if err != nil {
		s.state.Universities = []models.University{}
		s.setErrorLocked(BannerSearchFailed)
		return
	}
	s.state.Universities = results
	s.state.Error = nil
}

// beginPrimaryLocked claims the primary slot and returns its generation.
func (s *Session) beginPrimaryLocked(kind pendingKind) uint64 {
	s.primaryGen++
	s.pending = kind
	s.state.Loading = true
	return s.primaryGen
}

// finishPrimaryLocked releases the primary slot if gen still owns it.
func (s *Session) finishPrimaryLocked(gen uint64) bool {
	if gen != s.primaryGen {
		return false
	}
	s.pending = pendingNone
	s.state.Loading = false
	return true
}

func (s *Session) abandonDrillInLocked() bool {
	if s.pending != pendingUniversity && s.pending != pendingProgram {
		return false
	}
	s.primaryGen++
	s.pending = pendingNone
	s.state.Loading = false
	return true
}

func (s *Session) clearSelectionLocked() {
	s.state.SelectedUniversity = nil
	s.state.SelectedProgram = nil
	s.resetDetailLocked()
}

func (s *Session) resetDetailLocked() {
	s.detailGen++
	s.state.Detail = models.DetailPanel{}
}

func (s *Session) setErrorLocked(msg string) {
	s.state.Error = &msg
}

func (s *Session) findUniversityLocked(id string) (models.University, bool) {
	for _, u := range s.state.Universities {
		if u.ID == id {
			return u, true
		}
	}
	return models.University{}, false
}
