package explorer

import (
	"context"
	"sync"

	"github.com/ekaya-inc/ekaya-campus/pkg/models"
	"github.com/ekaya-inc/ekaya-campus/pkg/services"
)

// mockCatalog is a function-field CatalogService. Nil fields fall back to
// empty successful answers.
type mockCatalog struct {
	SearchFunc            func(ctx context.Context, query string) ([]models.University, error)
	GetDetailsFunc        func(ctx context.Context, name string) (*models.UniversityDetails, error)
	GetProgramDetailsFunc func(ctx context.Context, universityName string, program models.Program) (*models.ProgramDetails, error)
	GetLocationInfoFunc   func(ctx context.Context, name string, userLocation *models.LatLng) models.LocationInfo

	mu       sync.Mutex
	searches []string
}

var _ services.CatalogService = (*mockCatalog)(nil)

func (m *mockCatalog) Search(ctx context.Context, query string) ([]models.University, error) {
	m.mu.Lock()
	m.searches = append(m.searches, query)
	m.mu.Unlock()
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query)
	}
	return []models.University{}, nil
}

func (m *mockCatalog) GetDetails(ctx context.Context, name string) (*models.UniversityDetails, error) {
	if m.GetDetailsFunc != nil {
		return m.GetDetailsFunc(ctx, name)
	}
	return detailsFor(name), nil
}

func (m *mockCatalog) GetProgramDetails(ctx context.Context, universityName string, program models.Program) (*models.ProgramDetails, error) {
	if m.GetProgramDetailsFunc != nil {
		return m.GetProgramDetailsFunc(ctx, universityName, program)
	}
	return &models.ProgramDetails{Program: program, Overview: "Overview of " + program.Name}, nil
}

func (m *mockCatalog) GetLocationInfo(ctx context.Context, name string, userLocation *models.LatLng) models.LocationInfo {
	if m.GetLocationInfoFunc != nil {
		return m.GetLocationInfoFunc(ctx, name, userLocation)
	}
	return models.LocationInfo{Text: name + " campus"}
}

func (m *mockCatalog) Searches() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.searches...)
}

// mockSaved is an in-memory SavedUniversityService.
type mockSaved struct {
	Configured bool
	SaveErr    error
	RemoveErr  error
	// SaveFunc replaces Save entirely when set.
	SaveFunc func(ctx context.Context, details *models.UniversityDetails) error
	// AfterIsSaved runs after IsSaved has read the rows, before it returns.
	AfterIsSaved func()

	mu        sync.Mutex
	rows      []models.UniversityDetails
	listCalls int
}

var _ services.SavedUniversityService = (*mockSaved)(nil)

func (m *mockSaved) IsConfigured() bool { return m.Configured }

func (m *mockSaved) ListAll(ctx context.Context) []models.UniversityDetails {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	return append([]models.UniversityDetails{}, m.rows...)
}

func (m *mockSaved) Save(ctx context.Context, details *models.UniversityDetails) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, details)
	}
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append([]models.UniversityDetails{*details.Clone()}, m.rows...)
	return nil
}

func (m *mockSaved) IsSaved(ctx context.Context, name string) bool {
	found := m.hasRow(name)
	if m.AfterIsSaved != nil {
		m.AfterIsSaved()
	}
	return found
}

func (m *mockSaved) hasRow(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Name == name {
			return true
		}
	}
	return false
}

func (m *mockSaved) Remove(ctx context.Context, name string) error {
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.Name == name {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockSaved) ListCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

func universities(names ...string) []models.University {
	out := make([]models.University, len(names))
	for i, n := range names {
		out[i] = models.University{ID: "batch-" + n, Name: n, Type: models.InstitutionPublic}
	}
	return out
}

func detailsFor(name string) *models.UniversityDetails {
	return &models.UniversityDetails{
		University: models.University{ID: name, Name: name},
		Programs: []models.Program{
			{Name: "Law", Degree: models.DegreePostgraduate},
			{Name: "Medicine", Degree: models.DegreeUndergraduate},
		},
		Sources: []models.GroundingSource{},
	}
}
