package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-campus/pkg/config"
)

const (
	ProviderGemini       = "gemini"
	ProviderOpenAI       = "openai"
	ProviderAnthropic    = "anthropic"
	ProviderUnconfigured = "unconfigured"
)

// NewClient builds the content client for the configured provider. It is
// called once at startup. A missing API key is not an error here: the
// returned UnconfiguredClient fails every call with a missing-credential error
// so the rest of the application can start and report it per request.
func NewClient(ctx context.Context, cfg config.ContentConfig, logger *zap.Logger) (ContentClient, error) {
	if !cfg.HasCredential() {
		logger.Warn("Content service API key is not set; searches will fail until GEMINI_API_KEY or API_KEY is configured")
		return NewUnconfiguredClient(cfg.Model), nil
	}

	clientCfg := &Config{
		Endpoint: cfg.BaseURL,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, clientCfg, logger)
	case ProviderOpenAI:
		return NewOpenAIClient(clientCfg, logger)
	case ProviderAnthropic:
		return NewAnthropicClient(clientCfg, logger)
	default:
		return nil, fmt.Errorf("unsupported content provider %q", cfg.Provider)
	}
}
