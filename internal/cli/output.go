// Package cli provides CLI output formatting and display functions.
package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/linksieve/linksieve/internal/logger"
	"github.com/linksieve/linksieve/pkg/post"
)

// OutputOptions configures CLI output behavior.
type OutputOptions struct {
	Verbose bool
	Quiet   bool
}

// PrintExecutionResult displays the extraction result.
//
// On success it writes the two report lines to out:
//
//	Extracted {count} items with {host} links
//	Saved to {output}
//
// Failures are written to errOut regardless of Quiet.
func PrintExecutionResult(out, errOut io.Writer, result *post.Result, err error, opts OutputOptions, host string) {
	if result == nil {
		fmt.Fprintln(errOut, "✗ No execution result available")
		if err != nil {
			fmt.Fprintf(errOut, "  Error: %v\n", err)
		}
		return
	}

	if err != nil {
		printExecutionFailure(errOut, result, err)
		return
	}

	if opts.Quiet {
		return
	}

	fmt.Fprintf(out, "Extracted %d items with %s links\n", result.RecordsMatched, host)
	fmt.Fprintf(out, "Saved to %s\n", result.Output)

	if opts.Verbose {
		PrintSummary(errOut, result)
	}
}

// printExecutionFailure prints the stage, category and message of a failed run.
func printExecutionFailure(errOut io.Writer, result *post.Result, err error) {
	fmt.Fprintln(errOut, "✗ Extraction failed")
	if result.Error == nil {
		fmt.Fprintf(errOut, "  Error: %v\n", err)
		return
	}
	if result.Error.Stage != "" {
		fmt.Fprintf(errOut, "  Stage: %s\n", result.Error.Stage)
	}
	if result.Error.Category != "" {
		fmt.Fprintf(errOut, "  Category: %s\n", result.Error.Category)
	}
	if result.Error.Path != "" {
		fmt.Fprintf(errOut, "  File: %s\n", result.Error.Path)
	}
	if result.Error.RecordIndex >= 0 {
		fmt.Fprintf(errOut, "  Post: %d\n", result.Error.RecordIndex)
	}
	fmt.Fprintf(errOut, "  Error: %s\n", result.Error.Message)
}

// PrintSummary prints the status and counters of a run.
func PrintSummary(w io.Writer, result *post.Result) {
	metrics := logger.ExecutionMetrics{
		RecordsRead:    result.RecordsRead,
		RecordsMatched: result.RecordsMatched,
		RecordsSkipped: result.RecordsSkipped,
	}
	if !result.CompletedAt.IsZero() {
		metrics.TotalDuration = result.CompletedAt.Sub(result.StartedAt)
	}
	if metrics.TotalDuration > 0 {
		metrics.RecordsPerSecond = float64(result.RecordsRead) / metrics.TotalDuration.Seconds()
	}

	fmt.Fprintf(w, "  Status: %s\n", result.Status)
	fmt.Fprintf(w, "  %s\n", logger.FormatMetricsHuman(metrics))
}

// PrintConfigSummary prints the extraction section of a parsed configuration.
func PrintConfigSummary(w io.Writer, data map[string]interface{}) {
	extract, ok := data["extract"].(map[string]interface{})
	if !ok {
		return
	}

	keys := make([]string, 0, len(extract))
	for k := range extract {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		label := strings.ToUpper(k[:1]) + k[1:]
		fmt.Fprintf(w, "  %s: %v\n", label, extract[k])
	}
}
