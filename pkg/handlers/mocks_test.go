package handlers

import (
	"context"
	"sync"

	"github.com/ekaya-inc/ekaya-campus/pkg/models"
	"github.com/ekaya-inc/ekaya-campus/pkg/services"
)

// mockCatalogService answers every query with three universities named
// after the query.
type mockCatalogService struct {
	mu           sync.Mutex
	searches     []string
	userLocation *models.LatLng
}

var _ services.CatalogService = (*mockCatalogService)(nil)

func (m *mockCatalogService) Search(ctx context.Context, query string) ([]models.University, error) {
	m.mu.Lock()
	m.searches = append(m.searches, query)
	m.mu.Unlock()

	universities := make([]models.University, 0, 3)
	for i, suffix := range []string{"North", "South", "East"} {
		universities = append(universities, models.University{
			ID:   query + "-" + string(rune('0'+i)),
			Name: suffix + " " + query + " University",
		})
	}
	return universities, nil
}

func (m *mockCatalogService) GetDetails(ctx context.Context, name string) (*models.UniversityDetails, error) {
	return &models.UniversityDetails{
		University: models.University{Name: name},
		Programs: []models.Program{
			{Name: "Law", Degree: models.DegreePostgraduate},
			{Name: "Computer Science", Degree: models.DegreeUndergraduate},
		},
		Sources: []models.GroundingSource{},
	}, nil
}

func (m *mockCatalogService) GetProgramDetails(ctx context.Context, universityName string, program models.Program) (*models.ProgramDetails, error) {
	return &models.ProgramDetails{Program: program, Overview: program.Name + " at " + universityName}, nil
}

func (m *mockCatalogService) GetLocationInfo(ctx context.Context, name string, userLocation *models.LatLng) models.LocationInfo {
	m.mu.Lock()
	m.userLocation = userLocation
	m.mu.Unlock()
	return models.LocationInfo{Text: name + " campus"}
}

func (m *mockCatalogService) searchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.searches)
}

func (m *mockCatalogService) lastUserLocation() *models.LatLng {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userLocation
}

// mockSavedService is an in-memory SavedUniversityService keyed by name.
type mockSavedService struct {
	configured bool

	mu    sync.Mutex
	names []string
}

var _ services.SavedUniversityService = (*mockSavedService)(nil)

func (m *mockSavedService) IsConfigured() bool { return m.configured }

func (m *mockSavedService) ListAll(ctx context.Context) []models.UniversityDetails {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := make([]models.UniversityDetails, 0, len(m.names))
	for i := len(m.names) - 1; i >= 0; i-- {
		rows = append(rows, models.UniversityDetails{University: models.University{ID: m.names[i], Name: m.names[i]}})
	}
	return rows
}

func (m *mockSavedService) Save(ctx context.Context, details *models.UniversityDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names = append(m.names, details.Name)
	return nil
}

func (m *mockSavedService) IsSaved(ctx context.Context, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.names {
		if n == name {
			return true
		}
	}
	return false
}

func (m *mockSavedService) Remove(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.names[:0]
	for _, n := range m.names {
		if n != name {
			kept = append(kept, n)
		}
	}
	m.names = kept
	return nil
}
