package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/ekaya-inc/ekaya-campus/pkg/models"
)

func universityListSchema() *Schema {
	return ArrayOf(&Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"name":    String("Official name"),
			"country": String("Country"),
		},
		Order:    []string{"name", "country"},
		Required: []string{"name", "country"},
	})
}

func TestOpenAIClient_Generate(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "[{\"name\":\"MIT\",\"country\":\"USA\"}]"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20}
		}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient(&Config{Endpoint: server.URL + "/v1", Model: "gpt-test", APIKey: "sk-test"}, zap.NewNop())
	require.NoError(t, err)

	result, err := client.Generate(context.Background(), &GenerateRequest{
		SystemMessage: "You are a university guide.",
		Prompt:        "Find universities",
		Schema:        universityListSchema(),
		Grounding:     GroundingSearch,
	})
	require.NoError(t, err)

	assert.Equal(t, `[{"name":"MIT","country":"USA"}]`, result.Content)
	assert.Equal(t, "gpt-test", result.Model)
	assert.Equal(t, 12, result.PromptTokens)
	assert.Empty(t, result.Sources)

	messages := body["messages"].([]any)
	require.Len(t, messages, 2)
	user := messages[1].(map[string]any)["content"].(string)
	assert.Contains(t, user, "Find universities")
	assert.Contains(t, user, "JSON array", "schema should be rendered into the prompt")
	_, hasFormat := body["response_format"]
	assert.False(t, hasFormat, "array schemas cannot use json_object mode")
}

func TestOpenAIClient_Generate_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Rate limit reached", "type": "requests", "code": "rate_limit_exceeded"}}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient(&Config{Endpoint: server.URL + "/v1", Model: "gpt-test", APIKey: "sk-test"}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), &GenerateRequest{Prompt: "x"})
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	assert.False(t, ShouldFallback(err))
}

func TestNewOpenAIClient_MissingKey(t *testing.T) {
	_, err := NewOpenAIClient(&Config{Model: "gpt-test"}, zap.NewNop())
	require.Error(t, err)
	assert.True(t, IsMissingCredential(err))
}

func TestAnthropicClient_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/messages"))
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "{\"overview\": \"Solid program\"}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 30, "output_tokens": 9}
		}`))
	}))
	defer server.Close()

	client, err := NewAnthropicClient(&Config{Endpoint: server.URL + "/v1", Model: "claude-test", APIKey: "test-key"}, zap.NewNop())
	require.NoError(t, err)

	result, err := client.Generate(context.Background(), &GenerateRequest{
		Prompt: "Describe the program",
		Schema: &Schema{Type: TypeObject, Properties: map[string]*Schema{"overview": String("")}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"overview": "Solid program"}`, result.Content)
	assert.Equal(t, 30, result.PromptTokens)
	assert.Equal(t, 9, result.CompletionTokens)
}

func TestGeminiClient_BuildRequest_SchemaWithoutGrounding(t *testing.T) {
	c := &GeminiClient{model: "gemini-test", logger: zap.NewNop()}

	prompt, config := c.buildRequest(&GenerateRequest{
		Prompt:        "Find universities",
		SystemMessage: "guide",
		Schema:        universityListSchema(),
		Temperature:   0.2,
	})

	assert.Equal(t, "Find universities", prompt)
	assert.Equal(t, "application/json", config.ResponseMIMEType)
	require.NotNil(t, config.ResponseSchema)
	assert.Equal(t, genai.TypeArray, config.ResponseSchema.Type)
	require.NotNil(t, config.ResponseSchema.Items)
	assert.Equal(t, []string{"name", "country"}, config.ResponseSchema.Items.PropertyOrdering)
	assert.Empty(t, config.Tools)
	require.NotNil(t, config.Temperature)
	assert.InDelta(t, 0.2, *config.Temperature, 0.0001)
	require.NotNil(t, config.SystemInstruction)
}

func TestGeminiClient_BuildRequest_SearchGroundingMovesSchemaToPrompt(t *testing.T) {
	c := &GeminiClient{model: "gemini-test", logger: zap.NewNop()}

	prompt, config := c.buildRequest(&GenerateRequest{
		Prompt:    "Details for MIT",
		Schema:    &Schema{Type: TypeObject, Properties: map[string]*Schema{"name": String("")}},
		Grounding: GroundingSearch,
	})

	assert.True(t, strings.HasPrefix(prompt, "Details for MIT"))
	assert.Contains(t, prompt, "JSON object")
	assert.Empty(t, config.ResponseMIMEType)
	assert.Nil(t, config.ResponseSchema)
	require.Len(t, config.Tools, 1)
	assert.NotNil(t, config.Tools[0].GoogleSearch)
}

func TestGeminiClient_BuildRequest_MapsWithUserLocation(t *testing.T) {
	c := &GeminiClient{model: "gemini-test", logger: zap.NewNop()}

	_, config := c.buildRequest(&GenerateRequest{
		Prompt:       "Where is ETH Zurich?",
		Grounding:    GroundingMaps,
		UserLocation: &models.LatLng{Lat: 47.37, Lng: 8.54},
	})

	require.Len(t, config.Tools, 1)
	assert.NotNil(t, config.Tools[0].GoogleMaps)
	require.NotNil(t, config.ToolConfig)
	require.NotNil(t, config.ToolConfig.RetrievalConfig)
	require.NotNil(t, config.ToolConfig.RetrievalConfig.LatLng)
	assert.Equal(t, 47.37, *config.ToolConfig.RetrievalConfig.LatLng.Latitude)
	assert.Equal(t, 8.54, *config.ToolConfig.RetrievalConfig.LatLng.Longitude)
}

func TestGroundingFromMetadata(t *testing.T) {
	sources, mapURIs := groundingFromMetadata(&genai.GroundingMetadata{
		GroundingChunks: []*genai.GroundingChunk{
			{Web: &genai.GroundingChunkWeb{URI: "https://www.mit.edu", Title: "mit.edu"}},
			{Web: &genai.GroundingChunkWeb{URI: "https://example.org/rankings"}},
			{Web: &genai.GroundingChunkWeb{Title: "no uri"}},
			{Maps: &genai.GroundingChunkMaps{URI: "https://maps.google.com/?cid=1"}},
			nil,
		},
	})

	assert.Equal(t, []models.GroundingSource{
		{Title: "mit.edu", URI: "https://www.mit.edu"},
		{Title: "Reference", URI: "https://example.org/rankings"},
	}, sources)
	assert.Equal(t, []string{"https://maps.google.com/?cid=1"}, mapURIs)

	sources, mapURIs = groundingFromMetadata(nil)
	assert.NotNil(t, sources)
	assert.Empty(t, sources)
	assert.Empty(t, mapURIs)
}

func TestUnconfiguredClient(t *testing.T) {
	client := NewUnconfiguredClient("gemini-2.5-flash")

	_, err := client.Generate(context.Background(), &GenerateRequest{Prompt: "x"})
	require.Error(t, err)
	assert.True(t, IsMissingCredential(err))
	assert.False(t, ShouldFallback(err))
	assert.Equal(t, ProviderUnconfigured, client.Provider())
	assert.Equal(t, "gemini-2.5-flash", client.GetModel())
}

func TestSchema_JSONSchema(t *testing.T) {
	s := universityListSchema()
	doc := s.JSONSchema()

	assert.Equal(t, "array", doc["type"])
	items := doc["items"].(map[string]any)
	assert.Equal(t, "object", items["type"])
	assert.Equal(t, []string{"name", "country"}, items["required"])

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"required":["name","country"]`)
}
