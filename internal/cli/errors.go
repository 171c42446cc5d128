// Package cli provides CLI output formatting and display functions.
package cli

import (
	"fmt"
	"io"

	"github.com/linksieve/linksieve/internal/config"
)

// PrintParseErrors prints configuration parse errors.
func PrintParseErrors(w io.Writer, errors []config.ParseError, verbose bool) {
	fmt.Fprintln(w, "✗ Parse errors:")
	for _, err := range errors {
		printSingleParseError(w, err, verbose)
	}
}

// printSingleParseError prints a single parse error with location information.
func printSingleParseError(w io.Writer, err config.ParseError, verbose bool) {
	location := formatErrorLocation(err.Path, err.Line, err.Column)

	if location != "" {
		fmt.Fprintf(w, "  %s: %s\n", location, err.Message)
	} else {
		fmt.Fprintf(w, "  %s\n", err.Message)
	}

	if verbose && err.Type != "" {
		fmt.Fprintf(w, "    Type: %s\n", err.Type)
	}
}

// formatErrorLocation formats the error location string (path:line:column).
func formatErrorLocation(path string, line, column int) string {
	if path == "" {
		return ""
	}

	location := path
	if line > 0 {
		location += fmt.Sprintf(":%d", line)
		if column > 0 {
			location += fmt.Sprintf(":%d", column)
		}
	}
	return location
}

// PrintValidationErrors prints configuration validation errors.
func PrintValidationErrors(w io.Writer, errors []config.ValidationError, verbose, quiet bool) {
	fmt.Fprintln(w, "✗ Validation errors:")
	for _, err := range errors {
		printSingleValidationError(w, err, verbose)
	}
	printValidationHint(w, verbose || quiet)
}

// printSingleValidationError prints a single validation error.
func printSingleValidationError(w io.Writer, err config.ValidationError, verbose bool) {
	path := err.Path
	if path == "" {
		path = "/"
	}

	if verbose {
		printVerboseValidationError(w, path, err)
	} else {
		printCompactValidationError(w, path, err.Message)
	}
}

// printVerboseValidationError prints detailed validation error information.
func printVerboseValidationError(w io.Writer, path string, err config.ValidationError) {
	fmt.Fprintf(w, "  %s:\n", path)
	fmt.Fprintf(w, "    Message: %s\n", err.Message)
	if err.Type != "" {
		fmt.Fprintf(w, "    Type: %s\n", err.Type)
	}
	if err.Expected != "" {
		fmt.Fprintf(w, "    Expected: %s\n", err.Expected)
	}
	if err.Actual != "" {
		fmt.Fprintf(w, "    Actual: %s\n", err.Actual)
	}
}

// printCompactValidationError prints a compact validation error message.
func printCompactValidationError(w io.Writer, path, message string) {
	shortMsg := message
	if len(shortMsg) > 80 {
		shortMsg = shortMsg[:77] + "..."
	}
	fmt.Fprintf(w, "  %s: %s\n", path, shortMsg)
}

// printValidationHint prints a hint about verbose mode.
func printValidationHint(w io.Writer, suppress bool) {
	if suppress {
		return
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Hint: Use --verbose for detailed error information")
}
