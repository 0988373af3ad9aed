package llm

import (
	"context"
)

type contextKey string

const (
	llmContextKey contextKey = "llm_context"
)

// WithContext returns a context with request annotations attached. They are
// logged alongside each content request. The map is merged with any existing values.
func WithContext(ctx context.Context, values map[string]any) context.Context {
	existing := GetContext(ctx)
	if existing == nil {
		existing = make(map[string]any)
	}
	for k, v := range values {
		existing[k] = v
	}
	return context.WithValue(ctx, llmContextKey, existing)
}

// GetContext retrieves the request annotations from context, if present.
func GetContext(ctx context.Context) map[string]any {
	if c, ok := ctx.Value(llmContextKey).(map[string]any); ok {
		// Return a copy to prevent mutation
		copy := make(map[string]any, len(c))
		for k, v := range c {
			copy[k] = v
		}
		return copy
	}
	return nil
}

// WithOperation tags the context with the catalog operation and its subject
// (a query or a university name).
func WithOperation(ctx context.Context, operation, subject string) context.Context {
	values := map[string]any{
		"operation": operation,
	}
	if subject != "" {
		values["subject"] = subject
	}
	return WithContext(ctx, values)
}

// GetOperation returns the operation tag, or "" if none is set.
func GetOperation(ctx context.Context) string {
	if c := GetContext(ctx); c != nil {
		if op, ok := c["operation"].(string); ok {
			return op
		}
	}
	return ""
}
