package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-campus/pkg/models"
)

// Config holds configuration for creating a content client.
type Config struct {
	Endpoint string // Base URL override, e.g., "https://api.openai.com/v1"
	Model    string // Default model name
	APIKey   string
}

// OpenAIClient provides access to OpenAI-compatible chat completion endpoints.
// Grounding is not available; grounded requests run ungrounded and return no sources.
type OpenAIClient struct {
	client   *openai.Client
	endpoint string
	model    string
	logger   *zap.Logger
}

// NewOpenAIClient creates a new OpenAI-compatible client.
func NewOpenAIClient(cfg *Config, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, NewMissingCredentialError()
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")
	}

	return &OpenAIClient{
		client:   openai.NewClientWithConfig(clientConfig),
		endpoint: clientConfig.BaseURL,
		model:    cfg.Model,
		logger:   logger.Named("llm").With(zap.String("provider", "openai")),
	}, nil
}

// Generate implements ContentClient.
func (c *OpenAIClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	prompt := req.Prompt
	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: float32(req.Temperature),
	}
	if req.Schema != nil {
		prompt += req.Schema.PromptInstruction()
		// json_object mode only accepts a top-level object
		if req.Schema.Type == TypeObject {
			chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			}
		}
	}
	if req.Grounding != GroundingNone {
		c.logger.Debug("Grounding not supported by provider, running ungrounded",
			zap.Stringer("grounding", req.Grounding))
	}

	if req.SystemMessage != "" {
		chatReq.Messages = append(chatReq.Messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleSystem, Content: req.SystemMessage,
		})
	}
	chatReq.Messages = append(chatReq.Messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser, Content: prompt,
	})

	c.logger.Debug("Content request",
		zap.String("model", model),
		zap.Int("prompt_len", len(prompt)),
		zap.Float64("temperature", req.Temperature),
		zap.Any("context", GetContext(ctx)))

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		c.logger.Warn("Content request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, c.parseError(err, model)
	}

	if len(resp.Choices) == 0 {
		return nil, NewParseError("no choices in response", nil)
	}

	c.logger.Info("Content request completed",
		zap.String("model", model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return &GenerateResult{
		Content:          resp.Choices[0].Message.Content,
		Sources:          []models.GroundingSource{},
		Model:            model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// GetModel implements ContentClient.
func (c *OpenAIClient) GetModel() string {
	return c.model
}

// Provider implements ContentClient.
func (c *OpenAIClient) Provider() string {
	return ProviderOpenAI
}

// parseError categorizes OpenAI API errors using the structured Error type.
func (c *OpenAIClient) parseError(err error, model string) error {
	classified := ClassifyError(err)
	classified.Model = model
	classified.Endpoint = c.endpoint
	return classified
}

var _ ContentClient = (*OpenAIClient)(nil)
