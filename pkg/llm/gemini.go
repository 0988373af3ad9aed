package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/ekaya-inc/ekaya-campus/pkg/models"
)

// GeminiClient talks to the Gemini API and supports search and maps grounding.
type GeminiClient struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiClient creates a Gemini client. The API key must be non-empty.
func NewGeminiClient(ctx context.Context, cfg *Config, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, NewMissingCredentialError()
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  cfg.Model,
		logger: logger.Named("llm").With(zap.String("provider", "gemini")),
	}, nil
}

// Generate implements ContentClient.
func (c *GeminiClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	prompt, config := c.buildRequest(req)

	c.logger.Debug("Content request",
		zap.String("model", model),
		zap.Stringer("grounding", req.Grounding),
		zap.Int("prompt_len", len(prompt)),
		zap.Any("context", GetContext(ctx)))

	start := time.Now()

	resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		classified := ClassifyError(err)
		classified.Model = model
		c.logger.Warn("Content request failed",
			zap.String("model", model),
			zap.String("error_type", string(classified.Type)),
			zap.Duration("elapsed", time.Since(start)))
		return nil, classified
	}

	result := &GenerateResult{
		Content: resp.Text(),
		Model:   model,
	}
	if resp.UsageMetadata != nil {
		result.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) > 0 {
		result.Sources, result.MapURIs = groundingFromMetadata(resp.Candidates[0].GroundingMetadata)
	}

	c.logger.Info("Content request completed",
		zap.String("model", model),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("completion_tokens", result.CompletionTokens),
		zap.Int("sources", len(result.Sources)),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// buildRequest maps a GenerateRequest onto the SDK config. Gemini rejects a
// response schema combined with grounding tools, so grounded requests carry
// the schema in the prompt instead.
func (c *GeminiClient) buildRequest(req *GenerateRequest) (string, *genai.GenerateContentConfig) {
	prompt := req.Prompt
	config := &genai.GenerateContentConfig{}

	if req.SystemMessage != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemMessage, genai.RoleUser)
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}

	switch req.Grounding {
	case GroundingSearch:
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	case GroundingMaps:
		config.Tools = []*genai.Tool{{GoogleMaps: &genai.GoogleMaps{}}}
		if req.UserLocation != nil {
			config.ToolConfig = &genai.ToolConfig{
				RetrievalConfig: &genai.RetrievalConfig{
					LatLng: &genai.LatLng{
						Latitude:  genai.Ptr(req.UserLocation.Lat),
						Longitude: genai.Ptr(req.UserLocation.Lng),
					},
				},
			}
		}
	}

	if req.Schema != nil {
		if req.Grounding == GroundingNone {
			config.ResponseMIMEType = "application/json"
			config.ResponseSchema = req.Schema.ToGenai()
		} else {
			prompt += req.Schema.PromptInstruction()
		}
	}

	return prompt, config
}

// groundingFromMetadata collects cited web pages and map links. Web chunks
// without a URI are dropped; a missing title becomes "Reference".
func groundingFromMetadata(md *genai.GroundingMetadata) ([]models.GroundingSource, []string) {
	sources := []models.GroundingSource{}
	var mapURIs []string
	if md == nil {
		return sources, mapURIs
	}

	for _, chunk := range md.GroundingChunks {
		if chunk == nil {
			continue
		}
		if chunk.Web != nil && chunk.Web.URI != "" {
			title := chunk.Web.Title
			if title == "" {
				title = "Reference"
			}
			sources = append(sources, models.GroundingSource{Title: title, URI: chunk.Web.URI})
		}
		if chunk.Maps != nil && chunk.Maps.URI != "" {
			mapURIs = append(mapURIs, chunk.Maps.URI)
		}
	}
	return sources, mapURIs
}

// GetModel implements ContentClient.
func (c *GeminiClient) GetModel() string {
	return c.model
}

// Provider implements ContentClient.
func (c *GeminiClient) Provider() string {
	return ProviderGemini
}

var _ ContentClient = (*GeminiClient)(nil)
