// Package filter provides implementations for filter modules.
package filter

import (
	"context"
	"log/slog"

	"github.com/linksieve/linksieve/internal/logger"
	"github.com/linksieve/linksieve/pkg/post"
)

// StubModule is a placeholder filter module for testing the pipeline flow.
// It passes records through unchanged, or returns Err when set.
type StubModule struct {
	ModuleType string
	Index      int
	Err        error
	Calls      int
}

// NewStub creates a new stub filter module.
func NewStub(moduleType string, index int) *StubModule {
	return &StubModule{
		ModuleType: moduleType,
		Index:      index,
	}
}

// Process passes through records unchanged (stub behavior).
func (m *StubModule) Process(_ context.Context, records []post.Record) ([]post.Record, error) {
	m.Calls++
	logger.Debug("stub filter processing posts",
		slog.String("type", m.ModuleType),
		slog.Int("index", m.Index),
		slog.Int("records", len(records)))

	if m.Err != nil {
		return nil, m.Err
	}
	return records, nil
}

// Type returns the configured module type.
func (m *StubModule) Type() string {
	return m.ModuleType
}

// Verify StubModule implements Module
var _ Module = (*StubModule)(nil)
