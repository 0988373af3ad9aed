package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/ekaya-campus/pkg/services"
)

type healthResult struct {
	Status            string `json:"status"`
	Version           string `json:"version"`
	ContentConfigured bool   `json:"content_configured"`
	StoreConfigured   bool   `json:"store_configured"`
}

// HealthToolDeps reports which backends are configured.
type HealthToolDeps struct {
	ContentConfigured bool
	Saved             services.SavedUniversityService
}

// RegisterHealthTool adds a health check tool to the MCP server.
// The tool returns the server version and which backends are configured.
// deps may be nil.
func RegisterHealthTool(s *server.MCPServer, version string, deps *HealthToolDeps) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status, version and whether the content service and repository store are configured"),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := healthResult{Status: "ok", Version: version}
		if deps != nil {
			result.ContentConfigured = deps.ContentConfigured
			result.StoreConfigured = deps.Saved != nil && deps.Saved.IsConfigured()
		}
		return jsonResult(result)
	})
}
