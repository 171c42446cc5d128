// Package factory provides module creation functions for the extraction
// runtime. It builds the input, filter, and output modules of one
// extraction from its post.Extraction description.
package factory

import (
	"errors"

	"github.com/linksieve/linksieve/internal/modules/filter"
	"github.com/linksieve/linksieve/internal/modules/input"
	"github.com/linksieve/linksieve/internal/modules/output"
	"github.com/linksieve/linksieve/pkg/post"
)

// ErrNilExtraction is returned when no extraction is given.
var ErrNilExtraction = errors.New("extraction is nil")

// CreateInputModule creates the JSON file input reading job.Input.
func CreateInputModule(job *post.Extraction) (input.Module, error) {
	if job == nil {
		return nil, ErrNilExtraction
	}
	m, err := input.NewJSONFile(job.Input)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// CreateFilterModules creates the filter chain: a single link match
// filter for job.Host honouring job.OnError.
func CreateFilterModules(job *post.Extraction) ([]filter.Module, error) {
	if job == nil {
		return nil, ErrNilExtraction
	}
	linkMatch, err := filter.NewLinkMatchFromConfig(filter.LinkMatchConfig{
		Host:    job.Host,
		OnError: job.OnError,
	})
	if err != nil {
		return nil, err
	}
	return []filter.Module{linkMatch}, nil
}

// CreateOutputModule creates the JSON file output writing job.Output.
func CreateOutputModule(job *post.Extraction) (output.Module, error) {
	if job == nil {
		return nil, ErrNilExtraction
	}
	m, err := output.NewJSONFile(job.Output)
	if err != nil {
		return nil, err
	}
	return m, nil
}
