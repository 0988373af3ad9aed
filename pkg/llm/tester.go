package llm

import (
	"context"
	"fmt"
	"time"
)

// TestResult contains the outcome of probing each configured model.
type TestResult struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Models  []ModelResult `json:"models"`
}

// ModelResult is the probe outcome for one model.
type ModelResult struct {
	Model          string    `json:"model"`
	Success        bool      `json:"success"`
	Message        string    `json:"message"`
	ErrorType      ErrorType `json:"error_type,omitempty"`
	ResponseTimeMs int64     `json:"response_time_ms,omitempty"`
}

// ConnectionTester probes a content client with a minimal request per model.
type ConnectionTester interface {
	Test(ctx context.Context, client ContentClient, models ...string) *TestResult
}

type connectionTester struct {
	timeout time.Duration
}

// NewConnectionTester creates a new tester.
func NewConnectionTester() ConnectionTester {
	return &connectionTester{timeout: 30 * time.Second}
}

// Test sends one short prompt to each distinct model. The overall result
// succeeds when the first (primary) model answers.
func (t *connectionTester) Test(ctx context.Context, client ContentClient, models ...string) *TestResult {
	if len(models) == 0 {
		models = []string{client.GetModel()}
	}

	result := &TestResult{}
	seen := make(map[string]bool, len(models))
	for _, model := range models {
		if model == "" || seen[model] {
			continue
		}
		seen[model] = true
		result.Models = append(result.Models, t.testModel(ctx, client, model))
	}

	if len(result.Models) > 0 && result.Models[0].Success {
		result.Success = true
		result.Message = fmt.Sprintf("Content service reachable via %s", client.Provider())
	} else if len(result.Models) > 0 {
		result.Message = result.Models[0].Message
	} else {
		result.Message = "no models configured"
	}
	return result
}

func (t *connectionTester) testModel(ctx context.Context, client ContentClient, model string) ModelResult {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	resp, err := client.Generate(WithOperation(ctx, "probe", model), &GenerateRequest{
		Model:  model,
		Prompt: "Say 'ok' and nothing else.",
	})
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		return ModelResult{
			Model:          model,
			Message:        describeError(err),
			ErrorType:      GetErrorType(err),
			ResponseTimeMs: elapsed,
		}
	}
	if resp == nil || resp.Content == "" {
		return ModelResult{Model: model, Message: "empty response", ErrorType: ErrorTypeParse, ResponseTimeMs: elapsed}
	}

	return ModelResult{
		Model:          model,
		Success:        true,
		Message:        fmt.Sprintf("ok (%dms)", elapsed),
		ResponseTimeMs: elapsed,
	}
}

// describeError turns a classified error into a short operator-facing hint.
func describeError(err error) string {
	switch GetErrorType(err) {
	case ErrorTypeMissingCredential:
		return "API key missing - set GEMINI_API_KEY or API_KEY"
	case ErrorTypeAuth:
		return "Invalid API key"
	case ErrorTypeModel:
		return "Model not found"
	case ErrorTypeRateLimited:
		return "Rate limited - quota exhausted"
	case ErrorTypeUnavailable:
		return "Service unavailable - check network or base URL"
	default:
		return err.Error()
	}
}

// Ensure connectionTester implements ConnectionTester at compile time.
var _ ConnectionTester = (*connectionTester)(nil)
