package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-campus/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-campus/pkg/logging"
	"github.com/ekaya-inc/ekaya-campus/pkg/models"
	"github.com/ekaya-inc/ekaya-campus/pkg/repositories"
	"github.com/ekaya-inc/ekaya-campus/pkg/retry"
)

// SavedUniversityService manages the user's repository of saved universities.
// A service built without a repository is unconfigured: reads return empty
// results and writes fail with apperrors.ErrStoreNotConfigured.
type SavedUniversityService interface {
	// IsConfigured reports whether store credentials were supplied. No network.
	IsConfigured() bool

	// ListAll returns saved universities newest first. Store errors are
	// logged and yield an empty slice.
	ListAll(ctx context.Context) []models.UniversityDetails

	// Save upserts by name. Grounding sources are dropped.
	Save(ctx context.Context, details *models.UniversityDetails) error

	// IsSaved is false when the row is absent, the store is unconfigured, or the lookup fails.
	IsSaved(ctx context.Context, name string) bool

	// Remove deletes by name. It is a no-op when the store is unconfigured.
	Remove(ctx context.Context, name string) error
}

type savedUniversityService struct {
	repo   repositories.UniversityRepository
	retry  *retry.Config
	logger *zap.Logger
}

// NewSavedUniversityService creates a SavedUniversityService. Pass a nil
// repository when the store is not configured. Reads are retried on
// transient store failures.
func NewSavedUniversityService(repo repositories.UniversityRepository, logger *zap.Logger) SavedUniversityService {
	return newSavedUniversityService(repo, retry.DefaultConfig(), logger)
}

func newSavedUniversityService(repo repositories.UniversityRepository, retryCfg *retry.Config, logger *zap.Logger) *savedUniversityService {
	return &savedUniversityService{
		repo:   repo,
		retry:  retryCfg,
		logger: logger.Named("saved"),
	}
}

var _ SavedUniversityService = (*savedUniversityService)(nil)

func (s *savedUniversityService) IsConfigured() bool {
	return s.repo != nil
}

func (s *savedUniversityService) ListAll(ctx context.Context) []models.UniversityDetails {
	if s.repo == nil {
		return []models.UniversityDetails{}
	}

	universities, err := retry.DoWithResult(ctx, s.retry, func() ([]models.UniversityDetails, error) {
		return s.repo.List(ctx)
	})
	if err != nil {
		s.logger.Error("Failed to list saved universities",
			zap.String("error", logging.SanitizeError(err)))
		return []models.UniversityDetails{}
	}

	s.logger.Debug("Listed saved universities", zap.Int("count", len(universities)))
	return universities
}

func (s *savedUniversityService) Save(ctx context.Context, details *models.UniversityDetails) error {
	if s.repo == nil {
		return apperrors.ErrStoreNotConfigured
	}
	if details == nil || strings.TrimSpace(details.Name) == "" {
		return fmt.Errorf("%w: university name is required", apperrors.ErrInvalidInput)
	}

	if err := s.repo.Upsert(ctx, details); err != nil {
		s.logger.Error("Failed to save university",
			zap.String("university", details.Name),
			zap.String("error", logging.SanitizeError(err)))
		return err
	}

	s.logger.Info("Saved university", zap.String("university", details.Name))
	return nil
}

func (s *savedUniversityService) IsSaved(ctx context.Context, name string) bool {
	if s.repo == nil || strings.TrimSpace(name) == "" {
		return false
	}

	saved, err := retry.DoWithResult(ctx, s.retry, func() (bool, error) {
		return s.repo.Exists(ctx, name)
	})
	if err != nil {
		s.logger.Warn("Failed to check saved status",
			zap.String("university", name),
			zap.String("error", logging.SanitizeError(err)))
		return false
	}
	return saved
}

func (s *savedUniversityService) Remove(ctx context.Context, name string) error {
	if s.repo == nil {
		return nil
	}

	if err := s.repo.Delete(ctx, name); err != nil {
		s.logger.Error("Failed to remove university",
			zap.String("university", name),
			zap.String("error", logging.SanitizeError(err)))
		return err
	}

	s.logger.Info("Removed university", zap.String("university", name))
	return nil
}
