// Package output provides implementations for output modules.
// Output modules are responsible for writing the selected posts.
package output

import (
	"context"

	"github.com/linksieve/linksieve/pkg/post"
)

// Module represents an output module that writes posts to a destination.
type Module interface {
	// Send writes records to the destination.
	// Returns the number of records written and any error.
	Send(ctx context.Context, records []post.Record) (int, error)

	// Close releases any resources held by the module.
	Close() error
}
