package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// thinkTagPattern matches <think>...</think> tags that may appear at the start of model responses.
var thinkTagPattern = regexp.MustCompile(`(?s)^[\s]*<think>.*?</think>[\s]*`)

// codeFencePattern matches a whole response wrapped in a markdown code block.
var codeFencePattern = regexp.MustCompile("(?s)^\\s*```[A-Za-z0-9_-]*\\s*\\n?(.*?)\\n?\\s*```\\s*$")

// StripCodeFences removes a markdown code block wrapping the whole response
// (```json ... ``` or ``` ... ```). Anything else is returned trimmed.
func StripCodeFences(response string) string {
	if m := codeFencePattern.FindStringSubmatch(response); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(response)
}

// ExtractJSON extracts JSON content from a model response that may contain
// <think> tags, markdown code blocks, or other formatting.
func ExtractJSON(response string) (string, error) {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")
	cleaned = StripCodeFences(cleaned)

	if json.Valid([]byte(cleaned)) {
		return cleaned, nil
	}

	// Find the first occurrence of { or [ to determine JSON type
	objStart := strings.IndexByte(cleaned, '{')
	arrStart := strings.IndexByte(cleaned, '[')

	// Try whichever comes first (or the one that exists)
	if objStart >= 0 && (arrStart < 0 || objStart < arrStart) {
		if jsonStr, ok := extractBalancedJSON(cleaned, '{', '}'); ok {
			if json.Valid([]byte(jsonStr)) {
				return jsonStr, nil
			}
		}
	}

	if arrStart >= 0 {
		if jsonStr, ok := extractBalancedJSON(cleaned, '[', ']'); ok {
			if json.Valid([]byte(jsonStr)) {
				return jsonStr, nil
			}
		}
	}

	return "", fmt.Errorf("no valid JSON found in response")
}

// extractBalancedJSON finds the first balanced JSON structure starting with openChar.
// It handles nested structures by counting bracket depth.
func extractBalancedJSON(s string, openChar, closeChar byte) (string, bool) {
	start := strings.IndexByte(s, openChar)
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}

		if c == '\\' && inString {
			escaped = true
			continue
		}

		if c == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		if c == openChar {
			depth++
		} else if c == closeChar {
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}

// ParseJSONResponse extracts JSON from a response and unmarshals it into the target.
// Failures are returned as parse errors.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T

	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return result, NewParseError("response is not JSON", err)
	}

	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, NewParseError("unexpected JSON shape", fmt.Errorf("unmarshal JSON: %w", err))
	}

	return result, nil
}

// ParseJSONArray is ParseJSONResponse for responses that must be a top-level array.
// An object or scalar is a parse error even when it contains an array.
func ParseJSONArray[T any](response string) ([]T, error) {
	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return nil, NewParseError("response is not JSON", err)
	}
	if !strings.HasPrefix(jsonStr, "[") {
		return nil, NewParseError("response is not a JSON array", nil)
	}

	var result []T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return nil, NewParseError("unexpected JSON shape", fmt.Errorf("unmarshal JSON: %w", err))
	}
	return result, nil
}
