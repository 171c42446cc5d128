// Package pathutil provides shared path helpers for configured file paths.
package pathutil

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateFilePath checks that a configured input or output path is usable.
// Returns an error if the path is empty, contains null bytes or names a
// directory (trailing separator).
//
// Parent segments are allowed: posts are commonly read from sibling
// directories of the working directory.
func ValidateFilePath(filePath string) error {
	if filePath == "" {
		return fmt.Errorf("file path cannot be empty")
	}
	if strings.Contains(filePath, "\x00") {
		return fmt.Errorf("file path contains invalid characters")
	}
	normalized := filepath.ToSlash(filePath)
	if strings.HasSuffix(normalized, "/") {
		return fmt.Errorf("file path names a directory: %q", filePath)
	}
	return nil
}

// ResolveRelative resolves p against baseDir when p is relative.
// Absolute paths and empty values are returned unchanged, as is p when
// baseDir is empty.
func ResolveRelative(baseDir, p string) string {
	if p == "" || baseDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
