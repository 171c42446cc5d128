package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseJSONFile_ValidJSON(t *testing.T) {
	result := ParseJSONFile("testdata/valid-config.json")

	if !result.IsValid() {
		t.Errorf("expected valid result, got errors: %v", result.Errors)
	}
	if result.Format != FormatJSON {
		t.Errorf("expected format 'json', got '%s'", result.Format)
	}
	if result.Data == nil {
		t.Fatal("expected data to be non-nil")
	}

	extract, ok := result.Data["extract"].(map[string]interface{})
	if !ok {
		t.Fatal("expected extract to be a map")
	}
	if host := extract["host"]; host != "pixeldrain.com" {
		t.Errorf("expected extract.host to be 'pixeldrain.com', got '%v'", host)
	}
}

func TestParseJSONFile_InvalidJSON(t *testing.T) {
	result := ParseJSONFile("testdata/invalid-json.json")

	if result.IsValid() {
		t.Fatal("expected parsing to fail for invalid JSON")
	}

	parseErr := result.Errors[0]
	if parseErr.Type != ErrorTypeSyntax {
		t.Errorf("expected error type '%s', got '%s'", ErrorTypeSyntax, parseErr.Type)
	}
	if parseErr.Line != 5 {
		t.Errorf("expected error on line 5, got line %d", parseErr.Line)
	}
	if parseErr.Path != "testdata/invalid-json.json" {
		t.Errorf("expected error path to be the file, got %q", parseErr.Path)
	}
	if !strings.Contains(parseErr.Error(), "line 5") {
		t.Errorf("expected Error() to mention the line, got %q", parseErr.Error())
	}
}

func TestParseJSONFile_MissingFile(t *testing.T) {
	result := ParseJSONFile("testdata/does-not-exist.json")

	if result.IsValid() {
		t.Fatal("expected error for missing file")
	}
	if result.Errors[0].Type != ErrorTypeIO {
		t.Errorf("expected error type '%s', got '%s'", ErrorTypeIO, result.Errors[0].Type)
	}
}

func TestParseJSONString(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantValid bool
		wantType  string
	}{
		{"object", `{"schemaVersion": "1.0.0"}`, true, ""},
		{"empty", "   ", false, ErrorTypeSyntax},
		{"array", `[1, 2]`, false, ErrorTypeFormat},
		{"syntax", `{"a":}`, false, ErrorTypeSyntax},
		{"null", `null`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseJSONString(tt.content)
			if result.IsValid() != tt.wantValid {
				t.Fatalf("IsValid() = %v, want %v (%v)", result.IsValid(), tt.wantValid, result.Errors)
			}
			if !tt.wantValid && result.Errors[0].Type != tt.wantType {
				t.Errorf("error type = %q, want %q", result.Errors[0].Type, tt.wantType)
			}
		})
	}
}

func TestParseYAMLFile_ValidYAML(t *testing.T) {
	result := ParseYAMLFile("testdata/valid-config.yaml")

	if !result.IsValid() {
		t.Fatalf("expected valid result, got errors: %v", result.Errors)
	}
	if result.Format != FormatYAML {
		t.Errorf("expected format 'yaml', got '%s'", result.Format)
	}

	logging, ok := result.Data["logging"].(map[string]interface{})
	if !ok {
		t.Fatal("expected logging to be a map")
	}
	if logging["level"] != "debug" {
		t.Errorf("expected logging.level 'debug', got '%v'", logging["level"])
	}
}

func TestParseYAMLFile_InvalidYAML(t *testing.T) {
	result := ParseYAMLFile("testdata/invalid-yaml.yaml")

	if result.IsValid() {
		t.Fatal("expected parsing to fail for invalid YAML")
	}
	if result.Errors[0].Type != ErrorTypeSyntax {
		t.Errorf("expected error type '%s', got '%s'", ErrorTypeSyntax, result.Errors[0].Type)
	}
	if result.Errors[0].Line == 0 {
		t.Errorf("expected a line number, got %+v", result.Errors[0])
	}
}

func TestParseYAMLString(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantValid bool
		wantType  string
	}{
		{"mapping", "schemaVersion: \"1.0.0\"\n", true, ""},
		{"empty", "\n\n", false, ErrorTypeSyntax},
		{"comments only", "# nothing\n", true, ""},
		{"sequence", "- a\n- b\n", false, ErrorTypeFormat},
		{"scalar", "pixeldrain.com", false, ErrorTypeFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseYAMLString(tt.content)
			if result.IsValid() != tt.wantValid {
				t.Fatalf("IsValid() = %v, want %v (%v)", result.IsValid(), tt.wantValid, result.Errors)
			}
			if !tt.wantValid && result.Errors[0].Type != tt.wantType {
				t.Errorf("error type = %q, want %q", result.Errors[0].Type, tt.wantType)
			}
		})
	}
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]string{
		"config.json":       FormatJSON,
		"config.JSON":       FormatJSON,
		"config.yaml":       FormatYAML,
		"config.yml":        FormatYAML,
		"linksieve.conf":    "",
		"no-extension":      "",
		"dir.json/file.txt": "",
	}
	for path, want := range tests {
		if got := DetectFormat(path); got != want {
			t.Errorf("DetectFormat(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestParseConfig_ValidFiles(t *testing.T) {
	for _, path := range []string{
		"testdata/valid-config.yaml",
		"testdata/valid-config.json",
		"testdata/minimal.yaml",
		"testdata/linksieve.conf",
	} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			result := ParseConfig(path)
			if !result.IsValid() {
				t.Errorf("expected valid config, got: %v", result.AllErrors())
			}
			if result.FilePath != path {
				t.Errorf("FilePath = %q, want %q", result.FilePath, path)
			}
		})
	}
}

func TestParseConfig_ContentDetection(t *testing.T) {
	result := ParseConfig("testdata/linksieve.conf")
	if result.Format != FormatYAML {
		t.Errorf("expected content-detected format 'yaml', got %q", result.Format)
	}

	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte(`{"schemaVersion":"1.0.0","extract":{}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	result = ParseConfig(path)
	if !result.IsValid() || result.Format != FormatJSON {
		t.Errorf("expected valid JSON detection, got format %q errors %v", result.Format, result.AllErrors())
	}
}

func TestParseConfig_ParseErrorSkipsValidation(t *testing.T) {
	result := ParseConfig("testdata/invalid-yaml.yaml")
	if len(result.ParseErrors) == 0 {
		t.Fatal("expected parse errors")
	}
	if len(result.ValidationErrors) != 0 {
		t.Errorf("validation should not run after a parse error, got %v", result.ValidationErrors)
	}
}

func TestParseConfig_ValidationErrors(t *testing.T) {
	for _, path := range []string{
		"testdata/invalid-schema-missing-required.json",
		"testdata/invalid-schema-wrong-type.json",
		"testdata/invalid-schema-on-error.yaml",
		"testdata/invalid-schema-unknown-field.yaml",
	} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			result := ParseConfig(path)
			if len(result.ParseErrors) != 0 {
				t.Fatalf("unexpected parse errors: %v", result.ParseErrors)
			}
			if len(result.ValidationErrors) == 0 {
				t.Error("expected validation errors")
			}
			if len(result.AllErrors()) != len(result.ValidationErrors) {
				t.Error("AllErrors() should include every validation error")
			}
		})
	}
}

func TestParseConfig_MissingFileNoExtension(t *testing.T) {
	result := ParseConfig(filepath.Join(t.TempDir(), "missing"))
	if len(result.ParseErrors) != 1 || result.ParseErrors[0].Type != ErrorTypeIO {
		t.Errorf("expected a single io error, got %v", result.ParseErrors)
	}
}

func TestParseConfigString(t *testing.T) {
	tests := []struct {
		name           string
		content        string
		format         string
		wantParseErr   bool
		wantValidation bool
	}{
		{"yaml detected", "schemaVersion: \"1.0.0\"\nextract:\n  host: mega.nz\n", "", false, false},
		{"json explicit", `{"schemaVersion":"1.0.0","extract":{}}`, FormatJSON, false, false},
		{"unsupported format", `a = 1`, "toml", true, false},
		{"undetectable", "", "", true, false},
		{"schema violation", `{"schemaVersion":"2.0.0","extract":{}}`, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseConfigString(tt.content, tt.format)
			if (len(result.ParseErrors) > 0) != tt.wantParseErr {
				t.Errorf("parse errors = %v, want error: %v", result.ParseErrors, tt.wantParseErr)
			}
			if (len(result.ValidationErrors) > 0) != tt.wantValidation {
				t.Errorf("validation errors = %v, want error: %v", result.ValidationErrors, tt.wantValidation)
			}
		})
	}
}
