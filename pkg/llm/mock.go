package llm

import (
	"context"
	"sync"
)

// MockContentClient is a configurable mock for testing content functionality.
// Set the function fields to control behavior in tests. Safe for concurrent use.
type MockContentClient struct {
	// GenerateFunc is called when Generate is invoked.
	// If nil, returns an empty result and nil error.
	GenerateFunc func(ctx context.Context, req *GenerateRequest) (*GenerateResult, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	mu       sync.Mutex
	requests []GenerateRequest
}

// NewMockContentClient creates a new mock with sensible defaults.
func NewMockContentClient() *MockContentClient {
	return &MockContentClient{
		Model: "mock-model",
	}
}

// Generate implements ContentClient.
func (m *MockContentClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	m.mu.Lock()
	m.requests = append(m.requests, *req)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return &GenerateResult{Model: m.GetModel()}, nil
}

// GenerateCalls returns the number of Generate invocations.
func (m *MockContentClient) GenerateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of every request seen so far.
func (m *MockContentClient) Requests() []GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]GenerateRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// GetModel implements ContentClient.
func (m *MockContentClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// Provider implements ContentClient.
func (m *MockContentClient) Provider() string {
	return "mock"
}

// Reset clears call tracking.
func (m *MockContentClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

// Ensure MockContentClient implements ContentClient at compile time.
var _ ContentClient = (*MockContentClient)(nil)
