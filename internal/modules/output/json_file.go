// Package output provides implementations for output modules.
// JSONFile module writes posts as a tab-indented JSON array.
package output

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/tidwall/gjson"

	"github.com/linksieve/linksieve/internal/errhandling"
	"github.com/linksieve/linksieve/internal/logger"
	"github.com/linksieve/linksieve/internal/pathutil"
	"github.com/linksieve/linksieve/pkg/post"
)

// ModuleTypeJSONFile is the type name of the JSON file output.
const ModuleTypeJSONFile = "jsonFile"

// Indent is the string written once per nesting level.
const Indent = "\t"

// JSONFile writes posts to a local file as a JSON array.
type JSONFile struct {
	path string
}

// NewJSONFile creates a JSON file output for path.
func NewJSONFile(path string) (*JSONFile, error) {
	if err := pathutil.ValidateFilePath(path); err != nil {
		return nil, errhandling.NewConfigError("invalid output path", err)
	}
	return &JSONFile{path: path}, nil
}

// Type returns ModuleTypeJSONFile.
func (m *JSONFile) Type() string {
	return ModuleTypeJSONFile
}

// Path returns the file the module writes.
func (m *JSONFile) Path() string {
	return m.path
}

// Send renders records and replaces the file's content with them.
// The file is created or truncated, and closed before Send returns.
func (m *JSONFile) Send(ctx context.Context, records []post.Record) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	content, err := Render(records)
	if err != nil {
		return 0, err
	}

	if err := m.write(content); err != nil {
		return 0, err
	}

	logger.Debug("output document written",
		slog.String("path", m.path),
		slog.Int("bytes", len(content)),
		slog.Int("records", len(records)),
	)

	return len(records), nil
}

func (m *JSONFile) write(content []byte) (err error) {
	f, err := os.Create(m.path)
	if err != nil {
		return errhandling.NewFileAccessError("creating output file", m.path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = errhandling.NewFileAccessError("closing output file", m.path, closeErr)
		}
	}()

	if _, err := f.Write(content); err != nil {
		return errhandling.NewFileAccessError("writing output file", m.path, err)
	}
	return nil
}

// Close releases resources. The file is never held open between calls.
func (m *JSONFile) Close() error {
	return nil
}

// Render lays records out as a JSON array with one element per line,
// nested values indented one tab per level and no trailing newline.
// An empty array renders as "[]".
//
// Each record is decoded and written again: escapes in strings are
// resolved so non-ASCII text is literal, and a repeated key is written once.
func Render(records []post.Record) ([]byte, error) {
	if len(records) == 0 {
		return []byte("[]"), nil
	}

	var buf bytes.Buffer
	enc := encoder{buf: &buf}
	buf.WriteByte('[')
	for i, record := range records {
		if !gjson.ValidBytes(record) {
			return nil, fmt.Errorf("rendering post %d: %w", i, errInvalidJSON)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		enc.newline(1)
		if err := enc.value(gjson.ParseBytes(record), 1); err != nil {
			return nil, fmt.Errorf("rendering post %d: %w", i, err)
		}
	}
	enc.newline(0)
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Verify JSONFile implements Module
var _ Module = (*JSONFile)(nil)
