package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/ekaya-campus/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-campus/pkg/llm"
)

// ErrorResponse represents a structured error in tool results.
// Actionable failures are returned as a successful tool call carrying this
// payload so the client sees the details instead of a bare protocol error.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for errors the caller can act on (missing argument, unknown
// university, unconfigured store). Unexpected failures still return Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
//
// Example:
//
//	return NewErrorResultWithDetails(
//	    "program_not_found",
//	    "Harvard University does not list a program named Dentistry",
//	    map[string]any{"programs": []string{"Law", "Medicine"}},
//	), nil
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// IsUserError returns true if err is something the caller can fix or retry
// later, as opposed to a transport or internal failure.
func IsUserError(err error) bool {
	return UserErrorCode(err) != ""
}

// UserErrorCode maps actionable errors to a stable code. Returns "" for
// errors that should surface as Go errors.
func UserErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, apperrors.ErrInvalidInput):
		return "invalid_parameters"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrStoreNotConfigured):
		return "store_not_configured"
	case llm.IsMissingCredential(err):
		return "content_not_configured"
	case llm.IsRateLimited(err):
		return "rate_limited"
	case llm.GetErrorType(err) == llm.ErrorTypeParse:
		return "unreadable_response"
	}
	return ""
}

// errorResult converts err into a tool result when it is actionable and
// into a Go error otherwise.
func errorResult(err error) (*mcp.CallToolResult, error) {
	if code := UserErrorCode(err); code != "" {
		return NewErrorResult(code, err.Error()), nil
	}
	return nil, err
}
