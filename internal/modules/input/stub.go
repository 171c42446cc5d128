// Package input provides implementations for input modules.
package input

import (
	"context"
	"log/slog"

	"github.com/linksieve/linksieve/internal/logger"
	"github.com/linksieve/linksieve/pkg/post"
)

// StubModule is an in-memory input module for exercising the executor.
// It returns its Records, or Err when set.
type StubModule struct {
	Records []post.Record
	Err     error
	Closed  bool
}

// NewStub creates a new stub input module returning records.
func NewStub(records ...post.Record) *StubModule {
	return &StubModule{Records: records}
}

// Fetch returns the configured records or error.
func (m *StubModule) Fetch(ctx context.Context) ([]post.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger.Debug("stub input returning records", slog.Int("records", len(m.Records)))
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Records, nil
}

// Type returns "stub".
func (m *StubModule) Type() string {
	return "stub"
}

// Close marks the stub closed.
func (m *StubModule) Close() error {
	m.Closed = true
	return nil
}

// Verify StubModule implements Module
var _ Module = (*StubModule)(nil)
