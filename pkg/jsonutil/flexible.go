package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling cases where
// LLMs return numbers or booleans instead of strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	// Try string first
	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	// Try number
	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	// Try boolean
	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	// Fallback: return raw string representation
	return string(raw)
}

// FlexibleIntValue converts a json.RawMessage to an *int, handling cases where
// LLMs return rankings as strings ("12", "#12", "12th", "Top 50") or floats.
// Returns nil for null, empty, non-positive or unparseable values.
func FlexibleIntValue(raw json.RawMessage) *int {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal < 1 {
			return nil
		}
		n := int(numVal)
		return &n
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err != nil {
		return nil
	}

	// Take the first run of digits: "#12" -> 12, "12th" -> 12, "Top 50" -> 50.
	start := strings.IndexFunc(strVal, unicode.IsDigit)
	if start < 0 {
		return nil
	}
	end := start
	for end < len(strVal) && unicode.IsDigit(rune(strVal[end])) {
		end++
	}
	n, err := strconv.Atoi(strVal[start:end])
	if err != nil || n < 1 {
		return nil
	}
	return &n
}
