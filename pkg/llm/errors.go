package llm

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrorType classifies content service failures.
type ErrorType string

const (
	ErrorTypeNone              ErrorType = ""
	ErrorTypeMissingCredential ErrorType = "missing_credential"
	ErrorTypeRateLimited       ErrorType = "rate_limited"
	ErrorTypeUnavailable       ErrorType = "unavailable"
	ErrorTypeParse             ErrorType = "parse"
	ErrorTypeAuth              ErrorType = "auth"
	ErrorTypeModel             ErrorType = "model"
	ErrorTypeUnknown           ErrorType = "unknown"
)

// ErrMissingCredential is the cause attached to every call made without an API key.
var ErrMissingCredential = errors.New("content service API key is not configured")

// Error represents a structured content service error with classification.
type Error struct {
	Type       ErrorType // Classification of the error
	Message    string    // Human-readable message
	Retryable  bool      // Whether the same request may succeed later
	Cause      error     // Underlying error
	StatusCode int       // HTTP status code if applicable
	Model      string    // Model name if known
	Endpoint   string    // Endpoint URL if known; only the host is printed
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Type))

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}
	if host := endpointHost(e.Endpoint); host != "" {
		parts = append(parts, fmt.Sprintf("endpoint=%s", host))
	}

	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

func endpointHost(endpoint string) string {
	if endpoint == "" {
		return ""
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Host
}

// NewError creates a new structured content service error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// NewMissingCredentialError is returned by every call on an unconfigured client.
func NewMissingCredentialError() *Error {
	return NewError(ErrorTypeMissingCredential, "API key missing", false, ErrMissingCredential)
}

// NewParseError reports a response that could not be decoded into the requested shape.
func NewParseError(message string, cause error) *Error {
	return NewError(ErrorTypeParse, message, true, cause)
}

// ClassifyError categorizes an error and returns a structured Error.
// Provider SDKs only surface status codes in their error strings, so this
// works on the message text.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	// Check if already an *Error
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	errStr := err.Error()
	lower := strings.ToLower(errStr)

	// Extract HTTP status code from error string
	statusCode := 0
	for _, code := range []int{400, 401, 403, 404, 429, 500, 502, 503, 504} {
		if strings.Contains(errStr, fmt.Sprintf("%d", code)) {
			statusCode = code
			break
		}
	}

	classified := func(t ErrorType, msg string, retryable bool) *Error {
		e := NewError(t, msg, retryable, err)
		e.StatusCode = statusCode
		return e
	}

	// Rate limiting first: quota messages often mention the model too.
	if statusCode == 429 || strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "resource_exhausted") || strings.Contains(lower, "resource has been exhausted") ||
		strings.Contains(lower, "quota") {
		return classified(ErrorTypeRateLimited, "rate limited", true)
	}

	// Authentication errors (not retryable)
	if statusCode == 401 || statusCode == 403 || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key") || strings.Contains(lower, "api key not valid") ||
		strings.Contains(lower, "permission_denied") {
		return classified(ErrorTypeAuth, "authentication failed", false)
	}

	// Model not found (not retryable without config change)
	if strings.Contains(lower, "model") && (strings.Contains(lower, "not found") ||
		strings.Contains(lower, "does not exist") || strings.Contains(lower, "not supported")) {
		return classified(ErrorTypeModel, "model not found", false)
	}

	// Connection errors
	if strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "connection reset") {
		return classified(ErrorTypeUnavailable, "connection failed", true)
	}

	// Timeout and deadline exceeded
	if strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "deadline exceeded") ||
		strings.Contains(lower, "context canceled") {
		return classified(ErrorTypeUnavailable, "request timeout", true)
	}

	// 5xx server errors
	if statusCode >= 500 || strings.Contains(lower, "unavailable") || strings.Contains(lower, "overloaded") {
		return classified(ErrorTypeUnavailable, "server error", true)
	}

	if statusCode == 404 {
		return classified(ErrorTypeUnavailable, "endpoint not found", false)
	}

	return classified(ErrorTypeUnknown, "content service error", false)
}

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Retryable
	}
	return false
}

// IsRateLimited returns true if the provider rejected the request for quota reasons.
func IsRateLimited(err error) bool {
	return GetErrorType(err) == ErrorTypeRateLimited
}

// IsMissingCredential returns true if the call failed because no API key is configured.
func IsMissingCredential(err error) bool {
	return GetErrorType(err) == ErrorTypeMissingCredential
}

// ShouldFallback reports whether a failed request may be retried once on a
// secondary model. Rate limits share quota across models and credential
// problems affect every model, so neither qualifies.
func ShouldFallback(err error) bool {
	if err == nil {
		return false
	}
	switch GetErrorType(err) {
	case ErrorTypeRateLimited, ErrorTypeMissingCredential, ErrorTypeAuth:
		return false
	}
	return true
}

// GetErrorType extracts the ErrorType from an error.
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypeNone
	}
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}
