package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-campus/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-campus/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-campus/pkg/llm"
	"github.com/ekaya-inc/ekaya-campus/pkg/logging"
	"github.com/ekaya-inc/ekaya-campus/pkg/models"
	"github.com/ekaya-inc/ekaya-campus/pkg/prompts"
)

// Location fallbacks shown instead of an error.
const (
	LocationRateLimitedText = "Location lookup is temporarily rate limited. Please try again in a moment."
	LocationUnavailableText = "Location information is unavailable right now."
)

// CatalogService turns queries and university names into structured catalog
// records using the content service.
type CatalogService interface {
	// Search returns at most five universities matching a free-text query.
	// Transport, rate-limit and parse failures are returned as errors, never
	// as an empty result.
	Search(ctx context.Context, query string) ([]models.University, error)

	// GetDetails returns the grounded profile of a university. A response that
	// cannot be parsed yields (nil, nil).
	GetDetails(ctx context.Context, universityName string) (*models.UniversityDetails, error)

	// GetProgramDetails enriches one program. A response that cannot be parsed
	// yields (nil, nil).
	GetProgramDetails(ctx context.Context, universityName string, program models.Program) (*models.ProgramDetails, error)

	// GetLocationInfo never fails; problems degrade to an explanatory text.
	GetLocationInfo(ctx context.Context, universityName string, userLocation *models.LatLng) models.LocationInfo
}

// CatalogConfig selects models per operation.
type CatalogConfig struct {
	// Model is the primary model; empty means the client's default.
	Model string
	// FallbackModel is tried once after a non-rate-limit failure. Empty disables fallback.
	FallbackModel string
	// LocationModel serves maps lookups; empty means Model.
	LocationModel string
}

type catalogService struct {
	client ContentClient
	cfg    CatalogConfig
	now    func() time.Time
	logger *zap.Logger
}

// ContentClient is the subset of llm.ContentClient the catalog needs.
type ContentClient interface {
	Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResult, error)
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(client ContentClient, cfg CatalogConfig, logger *zap.Logger) CatalogService {
	return newCatalogService(client, cfg, time.Now, logger)
}

func newCatalogService(client ContentClient, cfg CatalogConfig, now func() time.Time, logger *zap.Logger) *catalogService {
	return &catalogService{
		client: client,
		cfg:    cfg,
		now:    now,
		logger: logger.Named("catalog"),
	}
}

var _ CatalogService = (*catalogService)(nil)

// Wire shapes. Models are inconsistent about types, so anything that is
// not reliably a string is decoded as raw JSON and normalized afterwards.

type universityResponse struct {
	Name           string          `json:"name"`
	Location       json.RawMessage `json:"location"`
	Country        json.RawMessage `json:"country"`
	Type           json.RawMessage `json:"type"`
	Classification json.RawMessage `json:"classification"`
	Description    json.RawMessage `json:"description"`
	Website        json.RawMessage `json:"website"`
	WorldRanking   json.RawMessage `json:"worldRanking"`
}

type detailsResponse struct {
	universityResponse
	Programs []programResponse `json:"programs"`
}

type programResponse struct {
	Name            string          `json:"name"`
	Degree          json.RawMessage `json:"degree"`
	Faculty         json.RawMessage `json:"faculty"`
	Duration        json.RawMessage `json:"duration"`
	TuitionEstimate json.RawMessage `json:"tuitionEstimate"`
}

type programEnrichmentResponse struct {
	Overview              json.RawMessage   `json:"overview"`
	Curriculum            []json.RawMessage `json:"curriculum"`
	CareerProspects       []json.RawMessage `json:"careerProspects"`
	AdmissionRequirements []json.RawMessage `json:"admissionRequirements"`
}

type locationResponse struct {
	Address   json.RawMessage `json:"address"`
	Landmarks json.RawMessage `json:"landmarks"`
	Latitude  json.RawMessage `json:"latitude"`
	Longitude json.RawMessage `json:"longitude"`
}

// Search implements CatalogService.
func (s *catalogService) Search(ctx context.Context, query string) ([]models.University, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", apperrors.ErrInvalidInput)
	}
	ctx = llm.WithOperation(ctx, "search", query)

	var parsed []universityResponse
	err := s.generate(ctx, &llm.GenerateRequest{
		SystemMessage: prompts.SystemMessage,
		Prompt:        prompts.BuildSearchPrompt(query),
		Schema:        prompts.SearchSchema(),
		Temperature:   0.3,
	}, func(res *llm.GenerateResult) error {
		var perr error
		parsed, perr = llm.ParseJSONArray[universityResponse](res.Content)
		return perr
	})
	if err != nil {
		s.logger.Error("University search failed",
			zap.String("query", logging.SanitizePrompt(query)),
			zap.String("error_type", string(llm.GetErrorType(err))),
			zap.String("error", logging.SanitizeError(err)))
		return nil, err
	}

	batch := s.now().UnixMilli()
	results := make([]models.University, 0, prompts.MaxSearchResults)
	for _, raw := range parsed {
		if len(results) == prompts.MaxSearchResults {
			break
		}
		u, ok := raw.toUniversity()
		if !ok {
			continue
		}
		u.ID = fmt.Sprintf("%d-%d", batch, len(results))
		results = append(results, u)
	}

	s.logger.Info("University search completed",
		zap.String("query", logging.SanitizePrompt(query)),
		zap.Int("returned", len(parsed)),
		zap.Int("kept", len(results)))

	return results, nil
}

// GetDetails implements CatalogService.
func (s *catalogService) GetDetails(ctx context.Context, universityName string) (*models.UniversityDetails, error) {
	universityName = strings.TrimSpace(universityName)
	if universityName == "" {
		return nil, fmt.Errorf("%w: university name is required", apperrors.ErrInvalidInput)
	}
	ctx = llm.WithOperation(ctx, "details", universityName)

	var (
		parsed  detailsResponse
		sources []models.GroundingSource
	)
	err := s.generate(ctx, &llm.GenerateRequest{
		SystemMessage: prompts.SystemMessage,
		Prompt:        prompts.BuildDetailsPrompt(universityName),
		Schema:        prompts.DetailsSchema(),
		Grounding:     llm.GroundingSearch,
		Temperature:   0.2,
	}, func(res *llm.GenerateResult) error {
		var perr error
		parsed, perr = llm.ParseJSONResponse[detailsResponse](res.Content)
		sources = res.Sources
		return perr
	})
	if err != nil {
		if llm.GetErrorType(err) == llm.ErrorTypeParse {
			s.logger.Warn("Could not parse university details",
				zap.String("university", universityName),
				zap.String("error", logging.SanitizeError(err)))
			return nil, nil
		}
		s.logger.Error("University details failed",
			zap.String("university", universityName),
			zap.String("error_type", string(llm.GetErrorType(err))),
			zap.String("error", logging.SanitizeError(err)))
		return nil, err
	}

	u, _ := parsed.universityResponse.toUniversity()
	if u.Name == "" {
		u.Name = universityName
	}
	u.ID = universityName

	details := &models.UniversityDetails{
		University: u,
		Programs:   make([]models.Program, 0, len(parsed.Programs)),
		Sources:    sources,
	}
	if details.Sources == nil {
		details.Sources = []models.GroundingSource{}
	}
	for _, p := range parsed.Programs {
		if program, ok := p.toProgram(); ok {
			details.Programs = append(details.Programs, program)
		}
	}

	s.logger.Info("University details loaded",
		zap.String("university", u.Name),
		zap.Int("programs", len(details.Programs)),
		zap.Int("sources", len(details.Sources)))

	return details, nil
}

// GetProgramDetails implements CatalogService.
func (s *catalogService) GetProgramDetails(ctx context.Context, universityName string, program models.Program) (*models.ProgramDetails, error) {
	if strings.TrimSpace(program.Name) == "" {
		return nil, fmt.Errorf("%w: program name is required", apperrors.ErrInvalidInput)
	}
	ctx = llm.WithOperation(ctx, "program", universityName+" / "+program.Name)

	var parsed programEnrichmentResponse
	err := s.generate(ctx, &llm.GenerateRequest{
		SystemMessage: prompts.SystemMessage,
		Prompt:        prompts.BuildProgramPrompt(universityName, program),
		Schema:        prompts.ProgramSchema(),
		Temperature:   0.3,
	}, func(res *llm.GenerateResult) error {
		var perr error
		parsed, perr = llm.ParseJSONResponse[programEnrichmentResponse](res.Content)
		return perr
	})
	if err != nil {
		if llm.GetErrorType(err) == llm.ErrorTypeParse {
			s.logger.Warn("Could not parse program details",
				zap.String("university", universityName),
				zap.String("program", program.Name),
				zap.String("error", logging.SanitizeError(err)))
			return nil, nil
		}
		s.logger.Error("Program details failed",
			zap.String("university", universityName),
			zap.String("program", program.Name),
			zap.String("error_type", string(llm.GetErrorType(err))),
			zap.String("error", logging.SanitizeError(err)))
		return nil, err
	}

	return &models.ProgramDetails{
		Program:               program,
		Overview:              jsonutil.FlexibleStringValue(parsed.Overview),
		Curriculum:            flexibleStrings(parsed.Curriculum),
		CareerProspects:       flexibleStrings(parsed.CareerProspects),
		AdmissionRequirements: flexibleStrings(parsed.AdmissionRequirements),
	}, nil
}

// GetLocationInfo implements CatalogService.
func (s *catalogService) GetLocationInfo(ctx context.Context, universityName string, userLocation *models.LatLng) models.LocationInfo {
	ctx = llm.WithOperation(ctx, "location", universityName)

	model := s.cfg.LocationModel
	if model == "" {
		model = s.cfg.Model
	}

	res, err := s.client.Generate(ctx, &llm.GenerateRequest{
		Model:        model,
		Prompt:       prompts.BuildLocationPrompt(universityName),
		Schema:       prompts.LocationSchema(),
		Grounding:    llm.GroundingMaps,
		UserLocation: userLocation,
	})
	if err != nil {
		s.logger.Warn("Location lookup failed",
			zap.String("university", universityName),
			zap.String("error_type", string(llm.GetErrorType(err))),
			zap.String("error", logging.SanitizeError(err)))
		if llm.IsRateLimited(err) {
			return models.LocationInfo{Text: LocationRateLimitedText}
		}
		return models.LocationInfo{Text: LocationUnavailableText}
	}

	return buildLocationInfo(res)
}

// buildLocationInfo picks the map link in order of preference: maps grounding,
// coordinates, address search. Unparseable responses keep the raw text.
func buildLocationInfo(res *llm.GenerateResult) models.LocationInfo {
	info := models.LocationInfo{Text: strings.TrimSpace(res.Content)}

	parsed, err := llm.ParseJSONResponse[locationResponse](res.Content)
	var address string
	if err == nil {
		address = strings.TrimSpace(jsonutil.FlexibleStringValue(parsed.Address))
		landmarks := strings.TrimSpace(jsonutil.FlexibleStringValue(parsed.Landmarks))
		if text := strings.TrimSpace(strings.Join(nonEmpty(address, landmarks), "\n\n")); text != "" {
			info.Text = text
		}
	}
	if info.Text == "" {
		info.Text = LocationUnavailableText
	}

	switch {
	case len(res.MapURIs) > 0:
		info.MapURL = &res.MapURIs[0]
	case err == nil && validCoordinates(parsed.Latitude, parsed.Longitude):
		lat, _ := flexibleFloat(parsed.Latitude)
		lng, _ := flexibleFloat(parsed.Longitude)
		link := fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%s,%s",
			strconv.FormatFloat(lat, 'f', -1, 64), strconv.FormatFloat(lng, 'f', -1, 64))
		info.MapURL = &link
	case address != "":
		link := "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(address)
		info.MapURL = &link
	}

	return info
}

// generate runs a request and parses the result, retrying once on the
// fallback model when the failure allows it.
func (s *catalogService) generate(ctx context.Context, req *llm.GenerateRequest, parse func(*llm.GenerateResult) error) error {
	if req.Model == "" {
		req.Model = s.cfg.Model
	}

	err := s.attempt(ctx, req, parse)
	if err == nil {
		return nil
	}
	if s.cfg.FallbackModel == "" || s.cfg.FallbackModel == req.Model || !llm.ShouldFallback(err) {
		return err
	}

	s.logger.Warn("Primary model failed, trying fallback model",
		zap.String("operation", llm.GetOperation(ctx)),
		zap.String("model", req.Model),
		zap.String("fallback_model", s.cfg.FallbackModel),
		zap.String("error_type", string(llm.GetErrorType(err))))

	fallback := *req
	fallback.Model = s.cfg.FallbackModel
	return s.attempt(ctx, &fallback, parse)
}

func (s *catalogService) attempt(ctx context.Context, req *llm.GenerateRequest, parse func(*llm.GenerateResult) error) error {
	res, err := s.client.Generate(ctx, req)
	if err != nil {
		return err
	}
	if res == nil {
		return llm.NewParseError("empty response", nil)
	}
	return parse(res)
}

func (r universityResponse) toUniversity() (models.University, bool) {
	name := strings.TrimSpace(r.Name)
	u := models.University{
		Name:           name,
		Location:       strings.TrimSpace(jsonutil.FlexibleStringValue(r.Location)),
		Country:        strings.TrimSpace(jsonutil.FlexibleStringValue(r.Country)),
		Type:           models.ParseInstitutionType(jsonutil.FlexibleStringValue(r.Type)),
		Classification: flexibleClassification(r.Classification),
		Description:    strings.TrimSpace(jsonutil.FlexibleStringValue(r.Description)),
		Website:        strings.TrimSpace(jsonutil.FlexibleStringValue(r.Website)),
		WorldRanking:   jsonutil.FlexibleIntValue(r.WorldRanking),
	}
	return u, name != ""
}

func (r programResponse) toProgram() (models.Program, bool) {
	name := strings.TrimSpace(r.Name)
	return models.Program{
		Name:            name,
		Degree:          models.ParseDegreeLevel(jsonutil.FlexibleStringValue(r.Degree)),
		Faculty:         strings.TrimSpace(jsonutil.FlexibleStringValue(r.Faculty)),
		Duration:        strings.TrimSpace(jsonutil.FlexibleStringValue(r.Duration)),
		TuitionEstimate: strings.TrimSpace(jsonutil.FlexibleStringValue(r.TuitionEstimate)),
	}, name != ""
}

// flexibleClassification accepts a string or an array of labels.
func flexibleClassification(raw json.RawMessage) string {
	var labels []string
	if err := json.Unmarshal(raw, &labels); err == nil {
		return strings.Join(nonEmpty(labels...), ", ")
	}
	return strings.TrimSpace(jsonutil.FlexibleStringValue(raw))
}

func flexibleStrings(raws []json.RawMessage) []string {
	out := make([]string, 0, len(raws))
	for _, raw := range raws {
		if s := strings.TrimSpace(jsonutil.FlexibleStringValue(raw)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func flexibleFloat(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func validCoordinates(latRaw, lngRaw json.RawMessage) bool {
	lat, ok := flexibleFloat(latRaw)
	if !ok {
		return false
	}
	lng, ok := flexibleFloat(lngRaw)
	if !ok {
		return false
	}
	if lat == 0 && lng == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
