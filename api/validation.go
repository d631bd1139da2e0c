// Package api provides validation utilities for API request handling.
package api

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ValidateSearchRequest checks the optional limits of a JSON search.
func ValidateSearchRequest(req *SearchRequest) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if req.MaxLength != nil && *req.MaxLength < 0 {
		result.AddError("max_length", "max_length must not be negative")
	}
	if req.MinScore != nil && math.IsInf(*req.MinScore, 0) {
		result.AddError("min_score", "min_score must be finite")
	}
	return result
}

// ValidateRebuildRequest checks the paths of a rebuild request after defaults
// have been applied.
func ValidateRebuildRequest(req *RebuildRequest) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if strings.TrimSpace(req.RecordsPath) == "" {
		result.AddError("records_path", "records_path is required")
	}
	if req.OutputPath != "" && req.OutputPath == req.RecordsPath {
		result.AddError("output_path", "output_path must differ from records_path")
	}
	return result
}

// ConfineRebuildPaths resolves the paths a client supplied in a rebuild
// request against root and rejects any that leave it. Relative paths are
// taken relative to root. With an empty root, client-supplied paths are not
// accepted at all and only the configured defaults can be rebuilt from.
func ConfineRebuildPaths(req *RebuildRequest, root string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	confine := func(field string, path *string) {
		if *path == "" {
			return
		}
		if root == "" {
			result.AddError(field, field+" cannot be set per request; configure it on the server")
			return
		}
		resolved, ok := resolveWithin(root, *path)
		if !ok {
			result.AddError(field, field+" must be inside the rebuild directory")
			return
		}
		*path = resolved
	}
	confine("records_path", &req.RecordsPath)
	confine("output_path", &req.OutputPath)
	return result
}

// resolveWithin joins path onto root and reports whether the cleaned result
// names a file strictly below root.
func resolveWithin(root, path string) (string, bool) {
	root = filepath.Clean(root)
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	path = filepath.Clean(path)

	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return path, true
}

// parseFormLimits reads max_length and min_score from multipart form values.
// Absent or empty values are nil. A "NaN" min_score parses and is later
// treated as absent by the search service.
func parseFormLimits(maxLengthValue, minScoreValue string, result *ValidationResult) (*int, *float64) {
	var maxLength *int
	if v := strings.TrimSpace(maxLengthValue); v != "" {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil:
			result.AddError("max_length", "max_length must be a non-negative integer")
		case n < 0:
			result.AddError("max_length", "max_length must not be negative")
		default:
			maxLength = &n
		}
	}

	var minScore *float64
	if v := strings.TrimSpace(minScoreValue); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			result.AddError("min_score", "min_score must be a number")
		} else {
			minScore = &f
		}
	}
	return maxLength, minScore
}
