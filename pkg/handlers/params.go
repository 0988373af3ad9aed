package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-campus/pkg/models"
)

// maxBodyBytes caps explorer request bodies. They only carry a query, a mode
// or a coordinate.
const maxBodyBytes = 16 << 10

// ParseUniversityID extracts the list row id from the request path.
// Returns "" and false on error (after writing an error response).
// Expects path parameter: id
func ParseUniversityID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (string, bool) {
	return parsePathText(w, r, "id", "invalid_university_id", "University ID is required", logger)
}

// ParseProgramName extracts the program name from the request path.
// Expects path parameter: name
func ParseProgramName(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (string, bool) {
	return parsePathText(w, r, "name", "invalid_program_name", "Program name is required", logger)
}

// DecodeJSONBody decodes the request body into dst. An empty body leaves
// dst untouched. Returns false on error (after writing an error response).
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any, logger *zap.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	message := "Request body must be valid JSON"
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		message = "Request body is too large"
	}
	logger.Debug("Rejected request body", zap.String("path", r.URL.Path), zap.Error(err))
	if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
	return false
}

// ParseViewMode validates a mode name ("explorer" or "repository").
func ParseViewMode(raw string) (models.ViewMode, error) {
	mode := models.ViewMode(strings.ToLower(strings.TrimSpace(raw)))
	if !mode.IsValid() {
		return "", fmt.Errorf("unknown mode %q: expected %q or %q", raw, models.ModeExplorer, models.ModeRepository)
	}
	return mode, nil
}

// LocationRequest carries the user's device coordinates. Both fields are
// optional but must be given together.
type LocationRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// LatLng validates the coordinates. Returns nil when none were given.
func (l *LocationRequest) LatLng() (*models.LatLng, error) {
	if l == nil || (l.Lat == nil && l.Lng == nil) {
		return nil, nil
	}
	if l.Lat == nil || l.Lng == nil {
		return nil, errors.New("lat and lng must be given together")
	}
	if *l.Lat < -90 || *l.Lat > 90 || *l.Lng < -180 || *l.Lng > 180 {
		return nil, fmt.Errorf("coordinates out of range: %v,%v", *l.Lat, *l.Lng)
	}
	return &models.LatLng{Lat: *l.Lat, Lng: *l.Lng}, nil
}

// parsePathText is the internal helper that does the actual parsing work.
func parsePathText(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (string, bool) {
	value := strings.TrimSpace(r.PathValue(pathParam))
	if value == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return "", false
	}
	return value, true
}
