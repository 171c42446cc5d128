// Package filter provides implementations for filter modules.
// Filter modules select which posts continue to the output.
package filter

import (
	"context"

	"github.com/linksieve/linksieve/pkg/post"
)

// OnError behavior constants
const (
	OnErrorFail = "fail"
	OnErrorSkip = "skip"
	OnErrorLog  = "log"
)

// Module represents a filter module that selects posts.
type Module interface {
	// Process returns the posts that pass the filter, in input order.
	Process(ctx context.Context, records []post.Record) ([]post.Record, error)
}

// SkipCounter is implemented by filters that can drop posts without failing.
type SkipCounter interface {
	// Skipped reports how many posts the last Process call dropped.
	Skipped() int
}

// IsValidOnError reports whether mode is a known onError value.
func IsValidOnError(mode string) bool {
	switch mode {
	case OnErrorFail, OnErrorSkip, OnErrorLog:
		return true
	}
	return false
}
