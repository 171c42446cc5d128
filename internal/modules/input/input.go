// Package input provides implementations for input modules.
// Input modules are responsible for loading post documents.
package input

import (
	"context"

	"github.com/linksieve/linksieve/pkg/post"
)

// Module represents an input module that loads posts from a source.
type Module interface {
	// Fetch loads the whole document and returns its posts in order.
	// The context can be used to cancel the run before the source is read.
	Fetch(ctx context.Context) ([]post.Record, error)
	// Close releases any resources held by the module.
	Close() error
}
