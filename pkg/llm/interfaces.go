// Package llm provides content service clients for Gemini, OpenAI-compatible
// and Anthropic providers behind a single ContentClient interface.
package llm

import (
	"context"

	"github.com/ekaya-inc/ekaya-campus/pkg/models"
)

// Grounding selects which retrieval tool the provider should attach to a request.
type Grounding int

const (
	GroundingNone Grounding = iota
	// GroundingSearch attaches web search; cited pages come back as Sources.
	GroundingSearch
	// GroundingMaps attaches maps retrieval; place links come back as MapURIs.
	GroundingMaps
)

func (g Grounding) String() string {
	switch g {
	case GroundingSearch:
		return "search"
	case GroundingMaps:
		return "maps"
	default:
		return "none"
	}
}

// GenerateRequest is a single structured or free-text generation call.
type GenerateRequest struct {
	// Model overrides the client's default model when set.
	Model         string
	SystemMessage string
	Prompt        string
	// Schema constrains the response to JSON. Providers without native
	// structured output (or when grounding is on) receive it in the prompt.
	Schema       *Schema
	Grounding    Grounding
	UserLocation *models.LatLng
	Temperature  float64
}

// GenerateResult holds the response text plus any grounding metadata.
type GenerateResult struct {
	Content          string
	Sources          []models.GroundingSource
	MapURIs          []string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// ContentClient defines the interface for content service operations.
// Use this interface for dependency injection to enable mocking in tests.
type ContentClient interface {
	// Generate runs one request against the provider.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error)

	// GetModel returns the configured default model name.
	GetModel() string

	// Provider returns the provider name ("gemini", "openai", "anthropic" or "unconfigured").
	Provider() string
}
