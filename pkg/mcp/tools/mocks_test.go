package tools

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-campus/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-campus/pkg/models"
	"github.com/ekaya-inc/ekaya-campus/pkg/services"
)

// mockCatalog implements services.CatalogService with function fields.
type mockCatalog struct {
	searchFunc   func(ctx context.Context, query string) ([]models.University, error)
	detailsFunc  func(ctx context.Context, name string) (*models.UniversityDetails, error)
	programFunc  func(ctx context.Context, university string, program models.Program) (*models.ProgramDetails, error)
	locationFunc func(ctx context.Context, university string, userLocation *models.LatLng) models.LocationInfo
}

var _ services.CatalogService = (*mockCatalog)(nil)

func (m *mockCatalog) Search(ctx context.Context, query string) ([]models.University, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, query)
	}
	return []models.University{}, nil
}

func (m *mockCatalog) GetDetails(ctx context.Context, name string) (*models.UniversityDetails, error) {
	if m.detailsFunc != nil {
		return m.detailsFunc(ctx, name)
	}
	return detailsFor(name), nil
}

func (m *mockCatalog) GetProgramDetails(ctx context.Context, university string, program models.Program) (*models.ProgramDetails, error) {
	if m.programFunc != nil {
		return m.programFunc(ctx, university, program)
	}
	return &models.ProgramDetails{Program: program, Overview: program.Name + " at " + university}, nil
}

func (m *mockCatalog) GetLocationInfo(ctx context.Context, university string, userLocation *models.LatLng) models.LocationInfo {
	if m.locationFunc != nil {
		return m.locationFunc(ctx, university, userLocation)
	}
	return models.LocationInfo{Text: university + " campus"}
}

// mockSaved is an in-memory services.SavedUniversityService.
type mockSaved struct {
	mu         sync.Mutex
	configured bool
	saveErr    error
	rows       []models.UniversityDetails
}

var _ services.SavedUniversityService = (*mockSaved)(nil)

func (m *mockSaved) IsConfigured() bool { return m.configured }

func (m *mockSaved) ListAll(ctx context.Context) []models.UniversityDetails {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.UniversityDetails{}, m.rows...)
}

func (m *mockSaved) Save(ctx context.Context, details *models.UniversityDetails) error {
	if !m.configured {
		return apperrors.ErrStoreNotConfigured
	}
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row := *details.Clone()
	row.Sources = []models.GroundingSource{}
	m.rows = append([]models.UniversityDetails{row}, m.rows...)
	return nil
}

func (m *mockSaved) IsSaved(ctx context.Context, name string) bool {
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
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.Name != name {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	return nil
}

func detailsFor(name string) *models.UniversityDetails {
	return &models.UniversityDetails{
		University: models.University{Name: name, Country: "USA", Type: models.InstitutionPrivate},
		Programs: []models.Program{
			{Name: "Law", Degree: models.DegreePostgraduate},
			{Name: "Medicine", Degree: models.DegreeDoctoral},
		},
		Sources: []models.GroundingSource{{Title: name, URI: "https://example.edu"}},
	}
}

func newCatalogTestServer(catalog *mockCatalog, saved *mockSaved) *server.MCPServer {
	s := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	deps := &CatalogToolDeps{Catalog: catalog, Saved: saved, Logger: zap.NewNop()}
	RegisterCatalogTools(s, deps)
	RegisterSavedTools(s, deps)
	return s
}

// callTool invokes a tool through the JSON-RPC entry point and returns the
// text of the first content item along with the isError flag.
func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) (string, bool) {
	t.Helper()

	params := map[string]any{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	request, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  params,
	})
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	resultBytes, err := json.Marshal(s.HandleMessage(context.Background(), request))
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}

	var response struct {
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resultBytes, &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response.Error != nil {
		return response.Error.Message, true
	}
	if len(response.Result.Content) == 0 {
		t.Fatalf("expected content in response: %s", strings.TrimSpace(string(resultBytes)))
	}
	return response.Result.Content[0].Text, response.Result.IsError
}
