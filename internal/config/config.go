// Package config provides functionality for parsing and validating
// extraction configuration files (JSON/YAML).
package config

import (
	"path/filepath"
)

// Load parses, validates and converts the configuration file at path.
//
// The returned Result always describes what happened; Settings is nil unless
// the file parsed and validated. A conversion failure is reported as a
// validation error on the root path.
func Load(path string) (*Settings, *Result) {
	result := ParseConfig(path)
	if !result.IsValid() {
		return nil, result
	}

	settings, err := ConvertToSettings(result.Data, filepath.Dir(path))
	if err != nil {
		result.ValidationErrors = append(result.ValidationErrors, ValidationError{
			Path:    "/",
			Type:    "validation",
			Message: err.Error(),
		})
		return nil, result
	}
	settings.FilePath = path
	return settings, result
}
