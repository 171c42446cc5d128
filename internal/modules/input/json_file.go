// Package input provides implementations for input modules.
// JSONFile module loads a post document from a local JSON file.
package input

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/linksieve/linksieve/internal/errhandling"
	"github.com/linksieve/linksieve/internal/logger"
	"github.com/linksieve/linksieve/internal/pathutil"
	"github.com/linksieve/linksieve/pkg/post"
)

// ModuleTypeJSONFile is the type name of the JSON file input.
const ModuleTypeJSONFile = "jsonFile"

// JSONFile reads a UTF-8 JSON document whose top-level value is an array
// and returns its elements as posts.
type JSONFile struct {
	path string
}

// NewJSONFile creates a JSON file input for path.
func NewJSONFile(path string) (*JSONFile, error) {
	if err := pathutil.ValidateFilePath(path); err != nil {
		return nil, errhandling.NewConfigError("invalid input path", err)
	}
	return &JSONFile{path: path}, nil
}

// Type returns ModuleTypeJSONFile.
func (m *JSONFile) Type() string {
	return ModuleTypeJSONFile
}

// Path returns the file the module reads.
func (m *JSONFile) Path() string {
	return m.path
}

// Fetch reads the whole file and splits the top-level array into posts.
// The file is closed before Fetch returns, on every path.
//
// Failures are classified: open/read problems as file access errors,
// invalid UTF-8 or JSON as parse errors, and a top-level value other than
// an array as a type error.
func (m *JSONFile) Fetch(ctx context.Context) ([]post.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := m.read()
	if err != nil {
		return nil, err
	}

	if !utf8.Valid(content) {
		return nil, errhandling.NewParseError(m.path, 0, 0, "input is not valid UTF-8", nil)
	}

	var raw json.RawMessage
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, m.syntaxError(content, err)
	}

	doc := gjson.ParseBytes(content)
	if !doc.IsArray() {
		shapeErr := &post.ShapeError{Path: "document", Want: "array", Got: post.Kind(doc)}
		return nil, errhandling.NewTypeError(m.path, -1, "top-level value is not an array", shapeErr)
	}

	records := make([]post.Record, 0)
	doc.ForEach(func(_, value gjson.Result) bool {
		records = append(records, post.Record(value.Raw))
		return true
	})

	logger.Debug("input document loaded",
		slog.String("path", m.path),
		slog.Int("bytes", len(content)),
		slog.Int("records", len(records)),
	)

	return records, nil
}

// read opens, reads and closes the input file.
func (m *JSONFile) read() (content []byte, err error) {
	f, err := os.Open(m.path)
	if err != nil {
		return nil, errhandling.NewFileAccessError("opening input file", m.path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = errhandling.NewFileAccessError("closing input file", m.path, closeErr)
		}
	}()

	content, err = io.ReadAll(f)
	if err != nil {
		return nil, errhandling.NewFileAccessError("reading input file", m.path, err)
	}
	return content, nil
}

// syntaxError converts a JSON decoding error into a parse error with a
// line and column when the decoder reported an offset.
func (m *JSONFile) syntaxError(content []byte, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, column := errhandling.LineColumn(content, syntaxErr.Offset)
		return errhandling.NewParseError(m.path, line, column,
			fmt.Sprintf("invalid JSON at offset %d", syntaxErr.Offset), err)
	}
	return errhandling.NewParseError(m.path, 0, 0, "invalid JSON", err)
}

// Close releases resources. The file is never held open between calls.
func (m *JSONFile) Close() error {
	return nil
}

// Verify JSONFile implements Module
var _ Module = (*JSONFile)(nil)
