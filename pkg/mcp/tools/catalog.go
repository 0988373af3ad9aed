// Package tools provides the MCP tools that expose the university catalog.
package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-campus/pkg/logging"
	"github.com/ekaya-inc/ekaya-campus/pkg/models"
	"github.com/ekaya-inc/ekaya-campus/pkg/services"
)

// CatalogToolDeps contains dependencies for catalog and repository tools.
type CatalogToolDeps struct {
	Catalog services.CatalogService
	Saved   services.SavedUniversityService
	Logger  *zap.Logger
}

// RegisterCatalogTools registers the read-only catalog lookups.
func RegisterCatalogTools(s *server.MCPServer, deps *CatalogToolDeps) {
	registerSearchUniversitiesTool(s, deps)
	registerGetUniversityDetailsTool(s, deps)
	registerGetProgramDetailsTool(s, deps)
	registerGetUniversityLocationTool(s, deps)
}

type searchUniversitiesResult struct {
	Query        string              `json:"query"`
	Universities []models.University `json:"universities"`
	Count        int                 `json:"count"`
}

func registerSearchUniversitiesTool(s *server.MCPServer, deps *CatalogToolDeps) {
	tool := mcp.NewTool(
		"search_universities",
		mcp.WithDescription(
			"Search for universities matching a free-text query such as 'Ivy League', "+
				"'Top Engineering' or 'Affordable public universities in Europe'. "+
				"Returns at most five summaries. Use get_university_details for programs and sources.",
		),
		mcp.WithString(
			"query",
			mcp.Required(),
			mcp.Description("Free-text search query"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, errResult := requireText(req, "query")
		if errResult != nil {
			return errResult, nil
		}

		universities, err := deps.Catalog.Search(ctx, query)
		if err != nil {
			deps.Logger.Debug("search_universities failed",
				zap.String("query", logging.SanitizePrompt(query)),
				zap.String("error", logging.SanitizeError(err)))
			return errorResult(fmt.Errorf("failed to search universities: %w", err))
		}

		return jsonResult(searchUniversitiesResult{
			Query:        query,
			Universities: universities,
			Count:        len(universities),
		})
	})
}

func registerGetUniversityDetailsTool(s *server.MCPServer, deps *CatalogToolDeps) {
	tool := mcp.NewTool(
		"get_university_details",
		mcp.WithDescription(
			"Get the profile of one university by name, including its programs and the web sources the answer was grounded on.",
		),
		mcp.WithString(
			"name",
			mcp.Required(),
			mcp.Description("University name, e.g. 'Stanford University'"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, errResult := requireText(req, "name")
		if errResult != nil {
			return errResult, nil
		}

		details, errResult, err := lookupDetails(ctx, deps, name)
		if errResult != nil || err != nil {
			return errResult, err
		}
		return jsonResult(details)
	})
}

func registerGetProgramDetailsTool(s *server.MCPServer, deps *CatalogToolDeps) {
	tool := mcp.NewTool(
		"get_program_details",
		mcp.WithDescription(
			"Get curriculum, career prospects and admission requirements for one program of a university. "+
				"The program must be listed by get_university_details.",
		),
		mcp.WithString(
			"university",
			mcp.Required(),
			mcp.Description("University name"),
		),
		mcp.WithString(
			"program",
			mcp.Required(),
			mcp.Description("Program name as listed in the university's programs"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		universityName, errResult := requireText(req, "university")
		if errResult != nil {
			return errResult, nil
		}
		programName, errResult := requireText(req, "program")
		if errResult != nil {
			return errResult, nil
		}

		details, errResult, err := lookupDetails(ctx, deps, universityName)
		if errResult != nil || err != nil {
			return errResult, err
		}

		program, ok := details.FindProgram(programName)
		if !ok {
			names := make([]string, 0, len(details.Programs))
			for _, p := range details.Programs {
				names = append(names, p.Name)
			}
			return NewErrorResultWithDetails(
				"program_not_found",
				fmt.Sprintf("%s does not list a program named %s", details.Name, programName),
				map[string]any{"programs": names},
			), nil
		}

		programDetails, err := deps.Catalog.GetProgramDetails(ctx, details.Name, program)
		if err != nil {
			return errorResult(fmt.Errorf("failed to get program details: %w", err))
		}
		if programDetails == nil {
			return NewErrorResult("not_found", fmt.Sprintf("no details available for %s at %s", program.Name, details.Name)), nil
		}
		return jsonResult(programDetails)
	})
}

func registerGetUniversityLocationTool(s *server.MCPServer, deps *CatalogToolDeps) {
	tool := mcp.NewTool(
		"get_university_location",
		mcp.WithDescription(
			"Describe where a university is and return a map link when one is available. "+
				"Pass lat and lng to get directions-style context relative to the caller.",
		),
		mcp.WithString(
			"university",
			mcp.Required(),
			mcp.Description("University name"),
		),
		mcp.WithNumber("lat", mcp.Description("Caller latitude")),
		mcp.WithNumber("lng", mcp.Description("Caller longitude")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		universityName, errResult := requireText(req, "university")
		if errResult != nil {
			return errResult, nil
		}

		var userLocation *models.LatLng
		args := req.GetArguments()
		lat, hasLat := args["lat"].(float64)
		lng, hasLng := args["lng"].(float64)
		switch {
		case hasLat && hasLng:
			userLocation = &models.LatLng{Lat: lat, Lng: lng}
		case hasLat || hasLng:
			return NewErrorResult("invalid_parameters", "lat and lng must be given together"), nil
		}

		return jsonResult(deps.Catalog.GetLocationInfo(ctx, universityName, userLocation))
	})
}

// lookupDetails fetches details and converts a soft miss into a not_found result.
func lookupDetails(ctx context.Context, deps *CatalogToolDeps, name string) (*models.UniversityDetails, *mcp.CallToolResult, error) {
	details, err := deps.Catalog.GetDetails(ctx, name)
	if err != nil {
		deps.Logger.Debug("University details failed",
			zap.String("university", name),
			zap.String("error", logging.SanitizeError(err)))
		errResult, goErr := errorResult(fmt.Errorf("failed to get university details: %w", err))
		return nil, errResult, goErr
	}
	if details == nil {
		return nil, NewErrorResult("not_found", fmt.Sprintf("could not find details for %s", name)), nil
	}
	return details, nil, nil
}
