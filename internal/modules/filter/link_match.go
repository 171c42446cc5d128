// Package filter provides implementations for filter modules.
// LinkMatch keeps posts that offer a download hosted on a given domain.
package filter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/linksieve/linksieve/internal/errhandling"
	"github.com/linksieve/linksieve/internal/logger"
	"github.com/linksieve/linksieve/pkg/post"
)

// ModuleTypeLinkMatch is the type name of the link match filter.
const ModuleTypeLinkMatch = "linkMatch"

// linkRule is evaluated once per download link.
const linkRule = `lower(link) contains host`

// ErrEmptyHost is returned when the configured host is blank.
var ErrEmptyHost = errors.New("host cannot be blank")

// LinkMatchConfig represents the configuration for a link match filter.
type LinkMatchConfig struct {
	// Host is the substring searched for in links (default "pixeldrain.com")
	Host string `json:"host,omitempty"`
	// OnError specifies shape error handling: "fail" (default), "skip", "log"
	OnError string `json:"onError,omitempty"`
}

// linkEnv is the environment the link rule runs against.
type linkEnv struct {
	Link string `expr:"link"`
	Host string `expr:"host"`
}

// LinkMatch selects posts with at least one download whose link contains
// the host, ignoring case.
type LinkMatch struct {
	host    string
	onError string
	program *vm.Program
	skipped int
}

// NewLinkMatchFromConfig creates a link match filter from configuration.
// The host is lowercased once, here.
func NewLinkMatchFromConfig(config LinkMatchConfig) (*LinkMatch, error) {
	host := config.Host
	if host == "" {
		host = post.DefaultHost
	}
	if strings.TrimSpace(host) == "" {
		return nil, errhandling.NewConfigError("invalid link match host", ErrEmptyHost)
	}
	host = strings.ToLower(host)

	onError := config.OnError
	if onError == "" {
		onError = OnErrorFail
	}
	if !IsValidOnError(onError) {
		return nil, errhandling.NewConfigError(
			fmt.Sprintf("invalid onError value %q (want fail, skip or log)", onError), nil)
	}

	program, err := expr.Compile(linkRule, expr.Env(linkEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling link rule: %w", err)
	}

	logger.Debug("link match module initialized",
		slog.String("host", host),
		slog.String("on_error", onError),
	)

	return &LinkMatch{
		host:    host,
		onError: onError,
		program: program,
	}, nil
}

// Type returns ModuleTypeLinkMatch.
func (m *LinkMatch) Type() string {
	return ModuleTypeLinkMatch
}

// Host returns the lowercased host the filter searches for.
func (m *LinkMatch) Host() string {
	return m.host
}

// Process keeps the posts that match, in input order. Records are never
// modified; the returned slice shares them with the input.
//
// A post whose shape is wrong (not an object, downloads not an array, a
// download entry not an object) fails the call with a type error when
// onError is "fail"; with "skip" or "log" it is dropped and counted.
func (m *LinkMatch) Process(ctx context.Context, records []post.Record) ([]post.Record, error) {
	m.skipped = 0
	result := make([]post.Record, 0)

	for recordIdx, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		matched, err := m.Match(record)
		if err == nil {
			if matched {
				result = append(result, record)
			}
			continue
		}

		var shapeErr *post.ShapeError
		if !errors.As(err, &shapeErr) {
			return nil, err
		}

		switch m.onError {
		case OnErrorSkip:
			logger.Warn("skipping post with unexpected shape",
				slog.Int("record_index", recordIdx),
				slog.String("error", err.Error()),
			)
			m.skipped++
		case OnErrorLog:
			logger.Error("post with unexpected shape (continuing)",
				slog.Int("record_index", recordIdx),
				slog.String("error", err.Error()),
			)
			m.skipped++
		default:
			return nil, errhandling.NewTypeError("", recordIdx,
				fmt.Sprintf("post %d has an unexpected shape", recordIdx), err)
		}
	}

	logger.Debug("link match processed posts",
		slog.String("host", m.host),
		slog.Int("records", len(records)),
		slog.Int("matched", len(result)),
		slog.Int("skipped", m.skipped),
	)

	return result, nil
}

// Match reports whether one post qualifies. It stops at the first matching
// link, so entries after it are not inspected.
func (m *LinkMatch) Match(record post.Record) (bool, error) {
	env := linkEnv{Host: m.host}
	matched := false
	var evalErr error

	err := record.EachDownload(func(d post.Download) bool {
		env.Link = d.Link
		out, err := expr.Run(m.program, env)
		if err != nil {
			evalErr = fmt.Errorf("evaluating link rule on %s[%d]: %w", post.FieldDownloads, d.Index, err)
			return false
		}
		matched = out.(bool)
		return !matched
	})
	if err != nil {
		return false, err
	}
	if evalErr != nil {
		return false, evalErr
	}
	return matched, nil
}

// Skipped reports how many posts the last Process call dropped.
func (m *LinkMatch) Skipped() int {
	return m.skipped
}

// Verify LinkMatch implements Module and SkipCounter
var (
	_ Module      = (*LinkMatch)(nil)
	_ SkipCounter = (*LinkMatch)(nil)
)
