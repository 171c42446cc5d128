// Package errhandling provides error types and classification for the
// linksieve runtime.
//
// Every failure of an extraction run falls in one category. Categories drive
// the CLI report and the result recorded by the executor; none of them is
// retried.
package errhandling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/linksieve/linksieve/pkg/post"
)

// ErrorCategory represents the type/category of an error.
type ErrorCategory string

// Error categories for classification.
const (
	// CategoryFileAccess represents open, read, write or close failures.
	CategoryFileAccess ErrorCategory = "file_access"

	// CategoryParse represents malformed input: invalid JSON or invalid UTF-8.
	CategoryParse ErrorCategory = "parse"

	// CategoryType represents a value of the wrong JSON kind: a non-array
	// document, a non-object post, a non-array downloads field or a
	// non-object download entry.
	CategoryType ErrorCategory = "type"

	// CategoryConfig represents invalid runtime configuration.
	CategoryConfig ErrorCategory = "config"

	// CategoryCanceled represents a run interrupted through its context.
	CategoryCanceled ErrorCategory = "canceled"

	// CategoryUnknown represents unclassified errors.
	CategoryUnknown ErrorCategory = "unknown"
)

// ClassifiedError wraps an error with classification metadata.
type ClassifiedError struct {
	// Category is the error classification category.
	Category ErrorCategory

	// Message is a human-readable error message.
	Message string

	// Path is the file involved, if any.
	Path string

	// Line and Column locate a parse error (1-based, 0 if unknown).
	Line   int
	Column int

	// RecordIndex is the index of the offending post, -1 if not applicable.
	RecordIndex int

	// OriginalErr is the underlying error that was classified.
	OriginalErr error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	msg := fmt.Sprintf("%s error: %s", e.Category, e.Message)
	switch {
	case e.Path != "" && e.Line > 0:
		msg = fmt.Sprintf("%s (%s:%d:%d)", msg, e.Path, e.Line, e.Column)
	case e.Path != "":
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.OriginalErr != nil {
		msg += ": " + e.OriginalErr.Error()
	}
	return msg
}

// Unwrap returns the original error for use with errors.Is and errors.As.
func (e *ClassifiedError) Unwrap() error {
	return e.OriginalErr
}

// NewFileAccessError creates a ClassifiedError for a failed file operation.
func NewFileAccessError(op, path string, originalErr error) *ClassifiedError {
	return &ClassifiedError{
		Category:    CategoryFileAccess,
		Message:     op,
		Path:        path,
		RecordIndex: -1,
		OriginalErr: originalErr,
	}
}

// NewParseError creates a ClassifiedError for malformed input.
// line and column may be 0 when the position is unknown.
func NewParseError(path string, line, column int, message string, originalErr error) *ClassifiedError {
	return &ClassifiedError{
		Category:    CategoryParse,
		Message:     message,
		Path:        path,
		Line:        line,
		Column:      column,
		RecordIndex: -1,
		OriginalErr: originalErr,
	}
}

// NewTypeError creates a ClassifiedError for a value of the wrong JSON kind.
// recordIndex is -1 when the document itself has the wrong shape.
func NewTypeError(path string, recordIndex int, message string, originalErr error) *ClassifiedError {
	return &ClassifiedError{
		Category:    CategoryType,
		Message:     message,
		Path:        path,
		RecordIndex: recordIndex,
		OriginalErr: originalErr,
	}
}

// NewConfigError creates a ClassifiedError for invalid configuration.
func NewConfigError(message string, originalErr error) *ClassifiedError {
	return &ClassifiedError{
		Category:    CategoryConfig,
		Message:     message,
		RecordIndex: -1,
		OriginalErr: originalErr,
	}
}

// ClassifyError classifies any error into a ClassifiedError.
// It handles already classified errors, shape errors, JSON syntax errors,
// filesystem errors and context errors.
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return &ClassifiedError{
			Category:    CategoryUnknown,
			Message:     "nil error",
			RecordIndex: -1,
		}
	}

	// Check if already classified
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	var shapeErr *post.ShapeError
	if errors.As(err, &shapeErr) {
		return NewTypeError("", -1, shapeErr.Error(), err)
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return NewParseError("", 0, 0, "invalid JSON", err)
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return NewFileAccessError(pathErr.Op, pathErr.Path, err)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &ClassifiedError{
			Category:    CategoryCanceled,
			Message:     "run interrupted",
			RecordIndex: -1,
			OriginalErr: err,
		}
	}

	return &ClassifiedError{
		Category:    CategoryUnknown,
		Message:     "unclassified error",
		RecordIndex: -1,
		OriginalErr: err,
	}
}

// GetErrorCategory returns the error category for a given error.
// Returns CategoryUnknown for nil errors.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}
	return ClassifyError(err).Category
}

// LineColumn converts a byte offset into 1-based line and column numbers.
func LineColumn(content []byte, offset int64) (line, column int) {
	if offset <= 0 {
		return 1, 1
	}

	line = 1
	column = 1
	for i := int64(0); i < offset && i < int64(len(content)); i++ {
		if content[i] == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}
