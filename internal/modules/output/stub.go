// Package output provides implementations for output modules.
package output

import (
	"context"
	"log/slog"

	"github.com/linksieve/linksieve/internal/logger"
	"github.com/linksieve/linksieve/pkg/post"
)

// StubModule is a placeholder output module for testing the pipeline flow.
// It keeps the records it was sent, or returns Err when set.
type StubModule struct {
	ModuleType string
	Sent       []post.Record
	Err        error
	Closed     bool
}

// NewStub creates a new stub output module.
func NewStub(moduleType string) *StubModule {
	return &StubModule{ModuleType: moduleType}
}

// Send records what would be written (stub behavior).
func (m *StubModule) Send(_ context.Context, records []post.Record) (int, error) {
	logger.Debug("stub output receiving posts",
		slog.String("type", m.ModuleType),
		slog.Int("records", len(records)))

	if m.Err != nil {
		return 0, m.Err
	}
	m.Sent = append(m.Sent, records...)
	return len(records), nil
}

// Type returns the configured module type.
func (m *StubModule) Type() string {
	return m.ModuleType
}

// Close marks the stub closed.
func (m *StubModule) Close() error {
	m.Closed = true
	return nil
}

// Verify StubModule implements Module
var _ Module = (*StubModule)(nil)
