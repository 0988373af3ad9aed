package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-campus/pkg/models"
)

// RegisterSavedTools registers the repository tools. Write tools report
// store_not_configured when no store credentials are set.
func RegisterSavedTools(s *server.MCPServer, deps *CatalogToolDeps) {
	registerListSavedTool(s, deps)
	registerIsSavedTool(s, deps)
	registerSaveUniversityTool(s, deps)
	registerRemoveSavedTool(s, deps)
}

type listSavedResult struct {
	StoreConfigured bool                       `json:"store_configured"`
	Universities    []models.UniversityDetails `json:"universities"`
	Count           int                        `json:"count"`
}

type savedStatusResult struct {
	Name  string `json:"name"`
	Saved bool   `json:"saved"`
}

func registerListSavedTool(s *server.MCPServer, deps *CatalogToolDeps) {
	tool := mcp.NewTool(
		"list_saved_universities",
		mcp.WithDescription("List the universities saved to the repository, newest first."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rows := deps.Saved.ListAll(ctx)
		return jsonResult(listSavedResult{
			StoreConfigured: deps.Saved.IsConfigured(),
			Universities:    rows,
			Count:           len(rows),
		})
	})
}

func registerIsSavedTool(s *server.MCPServer, deps *CatalogToolDeps) {
	tool := mcp.NewTool(
		"is_university_saved",
		mcp.WithDescription("Check whether a university is in the repository."),
		mcp.WithString("name", mcp.Required(), mcp.Description("University name")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, errResult := requireText(req, "name")
		if errResult != nil {
			return errResult, nil
		}
		return jsonResult(savedStatusResult{Name: name, Saved: deps.Saved.IsSaved(ctx, name)})
	})
}

func registerSaveUniversityTool(s *server.MCPServer, deps *CatalogToolDeps) {
	tool := mcp.NewTool(
		"save_university",
		mcp.WithDescription(
			"Look up a university and save its profile to the repository. "+
				"Saving an existing name refreshes the stored profile.",
		),
		mcp.WithString("name", mcp.Required(), mcp.Description("University name")),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, errResult := requireText(req, "name")
		if errResult != nil {
			return errResult, nil
		}
		if !deps.Saved.IsConfigured() {
			return NewErrorResult("store_not_configured", "repository store is not configured"), nil
		}

		details, errResult, err := lookupDetails(ctx, deps, name)
		if errResult != nil || err != nil {
			return errResult, err
		}

		if err := deps.Saved.Save(ctx, details); err != nil {
			deps.Logger.Error("save_university failed", zap.String("university", details.Name), zap.Error(err))
			return errorResult(fmt.Errorf("failed to save university: %w", err))
		}
		return jsonResult(savedStatusResult{Name: details.Name, Saved: true})
	})
}

func registerRemoveSavedTool(s *server.MCPServer, deps *CatalogToolDeps) {
	tool := mcp.NewTool(
		"remove_saved_university",
		mcp.WithDescription("Remove a university from the repository by name."),
		mcp.WithString("name", mcp.Required(), mcp.Description("University name")),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, errResult := requireText(req, "name")
		if errResult != nil {
			return errResult, nil
		}
		if !deps.Saved.IsConfigured() {
			return NewErrorResult("store_not_configured", "repository store is not configured"), nil
		}

		if err := deps.Saved.Remove(ctx, name); err != nil {
			deps.Logger.Error("remove_saved_university failed", zap.String("university", name), zap.Error(err))
			return errorResult(fmt.Errorf("failed to remove university: %w", err))
		}
		return jsonResult(savedStatusResult{Name: name, Saved: false})
	})
}
