package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-campus/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-campus/pkg/llm"
)

// getTextContent extracts the text string from the first text content item
func getTextContent(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	// Content holds mcp.Content interface values; round-trip to read the text
	jsonBytes, _ := json.Marshal(result.Content[0])
	var textContent struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	json.Unmarshal(jsonBytes, &textContent)
	return textContent.Text
}

func TestNewErrorResult(t *testing.T) {
	result := NewErrorResult("not_found", "no university named Atlantis")

	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	assert.True(t, result.IsError)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(getTextContent(result)), &errResp))

	assert.True(t, errResp.Error, "error field should be true")
	assert.Equal(t, "not_found", errResp.Code)
	assert.Equal(t, "no university named Atlantis", errResp.Message)
	assert.Nil(t, errResp.Details, "details should be nil when not provided")
}

func TestNewErrorResultWithDetails(t *testing.T) {
	result := NewErrorResultWithDetails(
		"program_not_found",
		"Yale University does not list a program named Dentistry",
		map[string]any{"programs": []string{"Law", "Medicine"}},
	)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(getTextContent(result)), &errResp))

	assert.Equal(t, "program_not_found", errResp.Code)
	details, ok := errResp.Details.(map[string]any)
	require.True(t, ok, "details should decode as an object")
	assert.Equal(t, []any{"Law", "Medicine"}, details["programs"])
}

func TestUserErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"invalid input", fmt.Errorf("%w: query is required", apperrors.ErrInvalidInput), "invalid_parameters"},
		{"not found", apperrors.ErrNotFound, "not_found"},
		{"store not configured", apperrors.ErrStoreNotConfigured, "store_not_configured"},
		{"missing credential", llm.NewMissingCredentialError(), "content_not_configured"},
		{"rate limited", llm.NewError(llm.ErrorTypeRateLimited, "quota exceeded", true, nil), "rate_limited"},
		{"parse", llm.NewParseError("no JSON array found", nil), "unreadable_response"},
		{"transport", errors.New("connection reset by peer"), ""},
		{"store failure", fmt.Errorf("%w: upsert university", apperrors.ErrStore), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserErrorCode(tt.err))
			assert.Equal(t, tt.want != "", IsUserError(tt.err))
		})
	}
}

func TestErrorResult(t *testing.T) {
	result, err := errorResult(apperrors.ErrStoreNotConfigured)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)

	cause := errors.New("dial tcp: i/o timeout")
	result, err = errorResult(cause)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, cause)
}
