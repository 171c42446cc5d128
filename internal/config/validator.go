// Package config provides functionality for parsing and validating
// extraction configuration files (JSON/YAML).
package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer renders validation messages.
var printer = message.NewPrinter(language.English)

//go:embed schema/extract-schema.json
var embeddedSchema []byte

// schemaOnce ensures thread-safe initialization of the compiled schema.
var schemaOnce sync.Once

// compiledSchema is the cached compiled schema.
var compiledSchema *jsonschema.Schema

// schemaInitErr stores any error from schema initialization.
var schemaInitErr error

// GetEmbeddedSchema returns the embedded extraction schema.
func GetEmbeddedSchema() []byte {
	return embeddedSchema
}

// getCompiledSchema returns the compiled JSON schema, compiling it if necessary.
// Thread-safe via sync.Once.
func getCompiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		// Parse the schema JSON
		var schemaDoc interface{}
		if err := json.Unmarshal(embeddedSchema, &schemaDoc); err != nil {
			schemaInitErr = fmt.Errorf("failed to parse embedded schema: %w", err)
			return
		}

		// Create a new compiler
		compiler := jsonschema.NewCompiler()

		// Add the schema to the compiler
		schemaURL := "https://linksieve.dev/schemas/extract/v1.0.0/extract-schema.json"
		if err := compiler.AddResource(schemaURL, schemaDoc); err != nil {
			schemaInitErr = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}

		// Compile the schema
		var err error
		compiledSchema, err = compiler.Compile(schemaURL)
		if err != nil {
			schemaInitErr = fmt.Errorf("failed to compile schema: %w", err)
			return
		}
	})

	if schemaInitErr != nil {
		return nil, schemaInitErr
	}
	return compiledSchema, nil
}

// ValidateConfig validates a parsed configuration against the extraction schema.
// Returns a ValidationResult with validation status and any errors.
func ValidateConfig(data map[string]interface{}) *ValidationResult {
	result := &ValidationResult{
		Valid: true,
	}

	// Handle nil data
	if data == nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Path:    "/",
			Type:    "required",
			Message: "configuration data is nil",
		})
		return result
	}

	// Handle empty data
	if len(data) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Path:    "/",
			Type:    "required",
			Message: "configuration data is empty",
		})
		return result
	}

	// Get the compiled schema
	schema, err := getCompiledSchema()
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Path:    "/",
			Type:    "schema",
			Message: fmt.Sprintf("failed to load schema: %v", err),
		})
		return result
	}

	// Validate the data against the schema
	validationErr := schema.Validate(data)
	if validationErr != nil {
		result.Valid = false

		// Convert validation errors to our format
		if detailedErr, ok := validationErr.(*jsonschema.ValidationError); ok {
			result.Errors = convertValidationErrors(detailedErr)
		} else {
			result.Errors = append(result.Errors, ValidationError{
				Path:    "/",
				Type:    "validation",
				Message: validationErr.Error(),
			})
		}
	}

	return result
}

// fieldHints describes the accepted values of the settings users most often
// get wrong, keyed by instance path.
var fieldHints = map[string]string{
	"/schemaVersion":   "a 1.x.y version string",
	"/extract":         "an object with the extraction settings",
	"/extract/name":    "a non-empty job name",
	"/extract/input":   "a path to the JSON array of posts",
	"/extract/output":  "a path for the matched posts",
	"/extract/host":    "a host substring such as pixeldrain.com",
	"/extract/onError": "one of fail, skip, log",
	"/logging/level":   "one of debug, info, warn, error",
	"/logging/format":  "one of human, json",
}

// convertValidationErrors converts jsonschema validation errors to our format.
func convertValidationErrors(err *jsonschema.ValidationError) []ValidationError {
	var errors []ValidationError

	// Leaf errors carry the actionable message; wrappers only group causes
	if err.ErrorKind != nil && len(err.Causes) == 0 {
		errors = append(errors, convertLeaf(err)...)
	}

	// Process all causes (nested errors)
	for _, cause := range err.Causes {
		causeErrors := convertValidationErrors(cause)
		errors = append(errors, causeErrors...)
	}

	return errors
}

// convertLeaf maps a single schema failure onto the setting it concerns.
// Missing and unknown fields are reported at their own path, one error each.
func convertLeaf(err *jsonschema.ValidationError) []ValidationError {
	path := formatInstanceLocation(err.InstanceLocation)

	switch k := err.ErrorKind.(type) {
	case *kind.Required:
		out := make([]ValidationError, 0, len(k.Missing))
		for _, name := range k.Missing {
			field := joinPath(path, name)
			out = append(out, ValidationError{
				Path:     field,
				Type:     "required",
				Expected: hintFor(field, "a value"),
				Message:  fmt.Sprintf("missing required setting %q", name),
			})
		}
		return out
	case *kind.AdditionalProperties:
		out := make([]ValidationError, 0, len(k.Properties))
		for _, name := range k.Properties {
			out = append(out, ValidationError{
				Path:    joinPath(path, name),
				Type:    "additionalProperties",
				Actual:  name,
				Message: fmt.Sprintf("unknown setting %q", name),
			})
		}
		return out
	case *kind.Type:
		return []ValidationError{{
			Path:     path,
			Type:     "type",
			Expected: hintFor(path, strings.Join(k.Want, " or ")),
			Actual:   k.Got,
			Message:  fmt.Sprintf("expected %s, got %s", strings.Join(k.Want, " or "), k.Got),
		}}
	case *kind.Enum:
		want := make([]string, len(k.Want))
		for i, v := range k.Want {
			want[i] = fmt.Sprint(v)
		}
		return []ValidationError{{
			Path:     path,
			Type:     "enum",
			Expected: hintFor(path, "one of "+strings.Join(want, ", ")),
			Actual:   fmt.Sprint(k.Got),
			Message:  fmt.Sprintf("%q is not one of %s", fmt.Sprint(k.Got), strings.Join(want, ", ")),
		}}
	case *kind.Pattern:
		want := hintFor(path, "a value matching "+k.Want)
		return []ValidationError{{
			Path:     path,
			Type:     "pattern",
			Expected: want,
			Actual:   k.Got,
			Message:  fmt.Sprintf("%q is not %s", k.Got, want),
		}}
	case *kind.MinLength:
		want := hintFor(path, fmt.Sprintf("at least %d characters", k.Want))
		return []ValidationError{{
			Path:     path,
			Type:     "length",
			Expected: want,
			Actual:   fmt.Sprintf("%d characters", k.Got),
			Message:  fmt.Sprintf("too short, expected %s", want),
		}}
	}

	return []ValidationError{{
		Path:    path,
		Type:    extractErrorType(err),
		Message: err.ErrorKind.LocalizedString(printer),
	}}
}

func hintFor(path, fallback string) string {
	if hint, ok := fieldHints[path]; ok {
		return hint
	}
	return fallback
}

func joinPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

// formatInstanceLocation formats the instance location as a JSON path.
func formatInstanceLocation(loc []string) string {
	if len(loc) == 0 {
		return "/"
	}
	return "/" + strings.Join(loc, "/")
}

// extractErrorType extracts a simplified error type from the validation error.
func extractErrorType(err *jsonschema.ValidationError) string {
	if kw := err.ErrorKind.KeywordPath(); len(kw) > 0 {
		switch kw[len(kw)-1] {
		case "required", "type", "pattern", "enum", "additionalProperties":
			return kw[len(kw)-1]
		case "minLength", "maxLength":
			return "length"
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "required"):
		return "required"
	case strings.Contains(msg, "type"):
		return "type"
	case strings.Contains(msg, "pattern"):
		return "pattern"
	case strings.Contains(msg, "enum"):
		return "enum"
	case strings.Contains(msg, "minimum") || strings.Contains(msg, "maximum"):
		return "range"
	case strings.Contains(msg, "format"):
		return "format"
	case strings.Contains(msg, "additionalproperties"):
		return "additionalProperties"
	default:
		return "validation"
	}
}
