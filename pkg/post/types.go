// Package post provides public types for post extraction jobs.
// This package is intended to be importable by external projects that need
// to drive or inspect a linksieve extraction.
package post

import "time"

// Defaults used when neither a configuration file nor a flag overrides them.
const (
	DefaultName   = "pixeldrain"
	DefaultInput  = "part_1candidbestpremium_posts.json"
	DefaultOutput = "pixeldrain_posts.json"
	DefaultHost   = "pixeldrain.com"
)

// Extraction describes one filter pass: where posts are read from, which
// hosting domain qualifies a download link, and where matches are written.
type Extraction struct {
	// Name identifies the extraction in logs
	Name string `json:"name"`

	// Input is the path of the JSON array of posts to read
	Input string `json:"input"`

	// Output is the path the matched posts are written to
	Output string `json:"output"`

	// Host is the substring searched for in download links (lowercase)
	Host string `json:"host"`

	// OnError is the shape error policy: "fail", "skip" or "log"
	OnError string `json:"onError,omitempty"`
}

// Result represents the outcome of an extraction run.
type Result struct {
	// Name is the name of the executed extraction
	Name string `json:"name"`

	// Status is the execution status ("success", "error")
	Status string `json:"status"`

	// StartedAt is when execution started
	StartedAt time.Time `json:"startedAt"`

	// CompletedAt is when execution completed
	CompletedAt time.Time `json:"completedAt"`

	// RecordsRead is the number of posts loaded from the input
	RecordsRead int `json:"recordsRead"`

	// RecordsMatched is the number of posts that qualified
	RecordsMatched int `json:"recordsMatched"`

	// RecordsSkipped is the number of posts dropped because of shape errors
	RecordsSkipped int `json:"recordsSkipped"`

	// RecordsWritten is the number of posts written to the output
	RecordsWritten int `json:"recordsWritten"`

	// Output is the output path as given in the extraction
	Output string `json:"output"`

	// Error contains error details if execution failed
	Error *ResultError `json:"error,omitempty"`
}

// ResultError contains details about an execution failure.
type ResultError struct {
	// Code is the error code (INPUT_FAILED, FILTER_FAILED, ...)
	Code string `json:"code"`

	// Category is the error classification (file_access, parse, type, ...)
	Category string `json:"category,omitempty"`

	// Stage is the pipeline stage where the error occurred
	Stage string `json:"stage,omitempty"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// Path is the file involved, if any
	Path string `json:"path,omitempty"`

	// RecordIndex is the index of the offending post, -1 when not applicable
	RecordIndex int `json:"recordIndex"`
}
