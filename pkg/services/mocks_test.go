package services

import (
	"context"
	"strconv"
	"sync"

	"github.com/ekaya-inc/ekaya-campus/pkg/models"
	"github.com/ekaya-inc/ekaya-campus/pkg/repositories"
)

// memoryUniversityRepository is an in-memory UniversityRepository keyed by
// name. Set the *Err fields to force failures.
type memoryUniversityRepository struct {
	mu     sync.Mutex
	rows   []models.UniversityDetails
	nextID int

	UpsertErr error
	ListErr   error
	ExistsErr error
	DeleteErr error

	// FailLists limits ListErr to the first N calls when non-zero.
	FailLists int
	ListCalls int
}

var _ repositories.UniversityRepository = (*memoryUniversityRepository)(nil)

func (r *memoryUniversityRepository) Upsert(ctx context.Context, details *models.UniversityDetails) error {
	if r.UpsertErr != nil {
		return r.UpsertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *details.Clone()
	stored.Sources = []models.GroundingSource{}
	for i, row := range r.rows {
		if row.Name == details.Name {
			stored.ID = row.ID
			r.rows[i] = stored
			return nil
		}
	}
	r.nextID++
	stored.ID = strconv.Itoa(r.nextID)
	// newest first, matching ORDER BY created_at DESC
	r.rows = append([]models.UniversityDetails{stored}, r.rows...)
	return nil
}

func (r *memoryUniversityRepository) List(ctx context.Context) ([]models.UniversityDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ListCalls++
	if r.ListErr != nil && (r.FailLists == 0 || r.ListCalls <= r.FailLists) {
		return nil, r.ListErr
	}
	out := make([]models.UniversityDetails, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, *row.Clone())
	}
	return out, nil
}

func (r *memoryUniversityRepository) Exists(ctx context.Context, name string) (bool, error) {
	if r.ExistsErr != nil {
		return false, r.ExistsErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryUniversityRepository) Delete(ctx context.Context, name string) error {
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, row := range r.rows {
		if row.Name == name {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return nil
}
