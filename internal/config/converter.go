// Package config provides functionality for parsing and validating
// extraction configuration files (JSON/YAML).
package config

import (
	"fmt"

	"github.com/linksieve/linksieve/internal/pathutil"
	"github.com/linksieve/linksieve/pkg/post"
)

// Default returns the settings used when no configuration file is given:
// read part_1candidbestpremium_posts.json, keep pixeldrain.com links, write
// pixeldrain_posts.json, all relative to the working directory.
func Default() *Settings {
	return &Settings{
		Extraction: post.Extraction{
			Name:   post.DefaultName,
			Input:  post.DefaultInput,
			Output: post.DefaultOutput,
			Host:   post.DefaultHost,
		},
	}
}

// ConvertToSettings converts parsed configuration data to Settings.
// The input data should have been validated against the schema before
// calling this function. Absent values keep their defaults.
//
// Relative input, output and log file paths are resolved against baseDir,
// normally the configuration file's directory.
//
// The configuration is expected to have this structure:
//
//	{
//	  "schemaVersion": "1.0.0",
//	  "extract": {
//	    "name": "...",
//	    "input": "...",
//	    "output": "...",
//	    "host": "...",
//	    "onError": "fail"
//	  },
//	  "logging": {"level": "...", "format": "...", "file": "..."}
//	}
func ConvertToSettings(data map[string]interface{}, baseDir string) (*Settings, error) {
	if data == nil {
		return nil, fmt.Errorf("configuration data is nil")
	}

	settings := Default()
	job := &settings.Extraction

	extractData, ok := data["extract"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'extract' section")
	}

	fields := []struct {
		key    string
		target *string
	}{
		{"name", &job.Name},
		{"input", &job.Input},
		{"output", &job.Output},
		{"host", &job.Host},
		{"onError", &job.OnError},
	}
	for _, f := range fields {
		if err := copyString(extractData, f.key, "extract", f.target); err != nil {
			return nil, err
		}
	}

	if loggingData, present := data["logging"]; present {
		loggingMap, isMap := loggingData.(map[string]interface{})
		if !isMap {
			return nil, fmt.Errorf("invalid 'logging' section: expected object, got %T", loggingData)
		}
		logging := &settings.Logging
		for key, target := range map[string]*string{
			"level":  &logging.Level,
			"format": &logging.Format,
			"file":   &logging.File,
		} {
			if err := copyString(loggingMap, key, "logging", target); err != nil {
				return nil, err
			}
		}
	}

	job.Input = pathutil.ResolveRelative(baseDir, job.Input)
	job.Output = pathutil.ResolveRelative(baseDir, job.Output)
	settings.Logging.File = pathutil.ResolveRelative(baseDir, settings.Logging.File)

	return settings, nil
}

// copyString stores section[key] into target when present.
func copyString(section map[string]interface{}, key, sectionName string, target *string) error {
	value, present := section[key]
	if !present {
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("invalid field '%s.%s': expected string, got %T", sectionName, key, value)
	}
	*target = s
	return nil
}
