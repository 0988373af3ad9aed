package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-campus/pkg/models"
)

const anthropicMaxTokens = 4096

// AnthropicClient calls the Anthropic Messages API. Like the OpenAI client it
// has no grounding tools; schemas are enforced through the prompt.
type AnthropicClient struct {
	client   *anthropic.Client
	endpoint string
	model    string
	logger   *zap.Logger
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(cfg *Config, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, NewMissingCredentialError()
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	var opts []anthropic.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimSuffix(cfg.Endpoint, "/")))
	}

	return &AnthropicClient{
		client:   anthropic.NewClient(cfg.APIKey, opts...),
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		logger:   logger.Named("llm").With(zap.String("provider", "anthropic")),
	}, nil
}

// Generate implements ContentClient.
func (c *AnthropicClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	prompt := req.Prompt
	if req.Schema != nil {
		prompt += req.Schema.PromptInstruction()
	}

	msgReq := anthropic.MessagesRequest{
		Model:     anthropic.Model(model),
		System:    req.SystemMessage,
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(prompt),
				},
			},
		},
	}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		msgReq.Temperature = &temp
	}

	c.logger.Debug("Content request",
		zap.String("model", model),
		zap.Int("prompt_len", len(prompt)),
		zap.Any("context", GetContext(ctx)))

	start := time.Now()

	resp, err := c.client.CreateMessages(ctx, msgReq)
	if err != nil {
		c.logger.Warn("Content request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		classified := ClassifyError(err)
		classified.Model = model
		classified.Endpoint = c.endpoint
		return nil, classified
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			text.WriteString(*block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, NewParseError("no text content in response", nil)
	}

	c.logger.Info("Content request completed",
		zap.String("model", model),
		zap.Int("prompt_tokens", resp.Usage.InputTokens),
		zap.Int("completion_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	return &GenerateResult{
		Content:          text.String(),
		Sources:          []models.GroundingSource{},
		Model:            model,
		PromptTokens:     resp.Usage.InputTokens,
		CompletionTokens: resp.Usage.OutputTokens,
	}, nil
}

// GetModel implements ContentClient.
func (c *AnthropicClient) GetModel() string {
	return c.model
}

// Provider implements ContentClient.
func (c *AnthropicClient) Provider() string {
	return ProviderAnthropic
}

var _ ContentClient = (*AnthropicClient)(nil)
