package llm

import "context"

// UnconfiguredClient stands in for a real client when no API key is set.
// Every call fails fast with a missing-credential error and no network traffic.
type UnconfiguredClient struct {
	model string
}

// NewUnconfiguredClient returns the sentinel client.
func NewUnconfiguredClient(model string) *UnconfiguredClient {
	return &UnconfiguredClient{model: model}
}

// Generate implements ContentClient.
func (c *UnconfiguredClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	return nil, NewMissingCredentialError()
}

// GetModel implements ContentClient.
func (c *UnconfiguredClient) GetModel() string {
	return c.model
}

// Provider implements ContentClient.
func (c *UnconfiguredClient) Provider() string {
	return ProviderUnconfigured
}

var _ ContentClient = (*UnconfiguredClient)(nil)
