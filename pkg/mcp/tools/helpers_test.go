package tools

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"whitespace only", "   ", ""},
		{"leading whitespace", "  test", "test"},
		{"trailing whitespace", "test  ", "test"},
		{"tabs", "\ttest\t", "test"},
		{"mixed whitespace", " \t\ntest\n\t ", "test"},
		{"no whitespace", "test", "test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, trimString(tt.input))
		})
	}
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func TestRequireText(t *testing.T) {
	value, errResult := requireText(callRequest(map[string]any{"query": "  Ivy League "}), "query")
	assert.Nil(t, errResult)
	assert.Equal(t, "Ivy League", value)

	_, errResult = requireText(callRequest(map[string]any{"query": "   "}), "query")
	require.NotNil(t, errResult)
	assert.Contains(t, getTextContent(errResult), "invalid_parameters")

	_, errResult = requireText(callRequest(map[string]any{}), "query")
	require.NotNil(t, errResult)
	assert.True(t, errResult.IsError)
}

func TestJSONResult(t *testing.T) {
	result, err := jsonResult(map[string]int{"count": 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":2}`, getTextContent(result))

	_, err = jsonResult(make(chan int))
	assert.Error(t, err)
}
