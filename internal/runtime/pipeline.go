// Package runtime provides the extraction execution engine.
// It orchestrates the execution of Input, Filter, and Output modules.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linksieve/linksieve/internal/errhandling"
	"github.com/linksieve/linksieve/internal/logger"
	"github.com/linksieve/linksieve/internal/modules/filter"
	"github.com/linksieve/linksieve/internal/modules/input"
	"github.com/linksieve/linksieve/internal/modules/output"
	"github.com/linksieve/linksieve/pkg/post"
)

// Error codes for extraction errors
const (
	ErrCodeInputFailed  = "INPUT_FAILED"
	ErrCodeFilterFailed = "FILTER_FAILED"
	ErrCodeOutputFailed = "OUTPUT_FAILED"
	ErrCodeInvalidInput = "INVALID_INPUT"
)

// Execution status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Stage names used in results and logs
const (
	StageInput  = "input"
	StageFilter = "filter"
	StageOutput = "output"
)

// Common errors
var (
	// ErrNilExtraction is returned when the extraction is nil
	ErrNilExtraction = errors.New("extraction is nil")

	// ErrNilInputModule is returned when input module is nil
	ErrNilInputModule = errors.New("input module is nil")

	// ErrNilOutputModule is returned when output module is nil
	ErrNilOutputModule = errors.New("output module is nil")
)

// filterResult holds the result of filter module execution
type filterResult struct {
	records []post.Record
	skipped int
	err     error
	errIdx  int
}

// stageTimings holds timing measurements for each execution stage
type stageTimings struct {
	inputDuration  time.Duration
	filterDuration time.Duration
	outputDuration time.Duration
}

// pathProvider is implemented by modules backed by a file.
type pathProvider interface {
	Path() string
}

// typeProvider is implemented by modules that report their type name.
type typeProvider interface {
	Type() string
}

// Executor runs one extraction: Input → Filters → Output.
//
// The Executor only interacts with modules through their public interfaces.
// Concrete module types are never inspected beyond the optional Path, Type
// and Skipped accessors.
type Executor struct {
	inputModule   input.Module
	filterModules []filter.Module
	outputModule  output.Module
}

// NewExecutorWithModules creates an executor with all modules configured.
//
// Parameters:
//   - inputModule: loads the post document
//   - filterModules: filters applied in order (can be nil)
//   - outputModule: writes the selected posts
func NewExecutorWithModules(
	inputModule input.Module,
	filterModules []filter.Module,
	outputModule output.Module,
) *Executor {
	return &Executor{
		inputModule:   inputModule,
		filterModules: filterModules,
		outputModule:  outputModule,
	}
}

// Execute runs an extraction with a background context.
func (e *Executor) Execute(job *post.Extraction) (*post.Result, error) {
	return e.ExecuteWithContext(context.Background(), job)
}

// ExecuteWithContext runs an extraction with the given context.
//
// Execution flow:
//  1. Validate the extraction and modules
//  2. Execute the Input module to load posts
//  3. Execute Filter modules in sequence (if any)
//  4. Execute the Output module to write the selection
//  5. Return a Result with status and counts
//
// Resource management:
//   - Input module: closed as soon as the input stage completes, even on error.
//   - Output module: closed at the end of execution (via defer).
//
// On failure the returned Result carries the error details and the error is
// returned wrapped with the failing stage.
func (e *Executor) ExecuteWithContext(ctx context.Context, job *post.Extraction) (*post.Result, error) {
	startedAt := time.Now()
	result := e.newErrorResult(startedAt)
	var timings stageTimings

	if err := e.validateExecution(job, result); err != nil {
		if job != nil {
			execCtx := logger.ExecutionContext{Job: job.Name}
			logger.LogExecutionStart(execCtx)
			logger.LogExecutionEnd(execCtx, StatusError, 0, time.Since(startedAt))
		}
		return result, err
	}
	result.Name = job.Name
	result.Output = job.Output

	execCtx := logger.ExecutionContext{Job: job.Name}
	logger.LogExecutionStart(execCtx)

	defer e.closeModule(job.Name, StageOutput, e.outputModule)

	records, inputDuration, err := e.executeInput(ctx, job, result)
	timings.inputDuration = inputDuration

	e.closeModule(job.Name, StageInput, e.inputModule)
	e.inputModule = nil // Prevent double-close

	if err != nil {
		logger.LogExecutionEnd(execCtx, StatusError, 0, time.Since(startedAt))
		return result, err
	}
	result.RecordsRead = len(records)

	selected, filterDuration, err := e.executeFiltersWithResult(ctx, job, records, result)
	timings.filterDuration = filterDuration
	if err != nil {
		logger.LogExecutionEnd(execCtx, StatusError, 0, time.Since(startedAt))
		return result, err
	}
	result.RecordsMatched = len(selected)

	outputDuration, err := e.executeOutputWithResult(ctx, job, selected, result)
	timings.outputDuration = outputDuration
	if err != nil {
		logger.LogExecutionEnd(execCtx, StatusError, result.RecordsMatched, time.Since(startedAt))
		return result, err
	}

	e.finalizeSuccessWithMetrics(result, startedAt, job, timings)
	return result, nil
}

// newErrorResult creates a new Result initialized with error status.
func (e *Executor) newErrorResult(startedAt time.Time) *post.Result {
	return &post.Result{
		StartedAt: startedAt,
		Status:    StatusError,
	}
}

// buildResultError creates a ResultError with the classified category.
func buildResultError(code, stage string, err error) *post.ResultError {
	cl := errhandling.ClassifyError(err)
	return &post.ResultError{
		Code:        code,
		Category:    string(cl.Category),
		Stage:       stage,
		Message:     err.Error(),
		Path:        cl.Path,
		RecordIndex: cl.RecordIndex,
	}
}

// validateExecution validates the extraction and modules before execution.
func (e *Executor) validateExecution(job *post.Extraction, result *post.Result) error {
	if job == nil {
		logger.Error("extraction failed: nil extraction")
		result.CompletedAt = time.Now()
		result.Error = buildResultError(ErrCodeInvalidInput, "", ErrNilExtraction)
		return ErrNilExtraction
	}

	if e.inputModule == nil {
		logger.Error("extraction failed: input module is nil",
			slog.String("job", job.Name))
		result.CompletedAt = time.Now()
		result.Error = buildResultError(ErrCodeInvalidInput, StageInput, ErrNilInputModule)
		return ErrNilInputModule
	}

	if e.outputModule == nil {
		logger.Error("extraction failed: output module is nil",
			slog.String("job", job.Name))
		result.CompletedAt = time.Now()
		result.Error = buildResultError(ErrCodeInvalidInput, StageOutput, ErrNilOutputModule)
		return ErrNilOutputModule
	}

	return nil
}

// moduleCloser interface for modules that can be closed.
type moduleCloser interface {
	Close() error
}

// closeModule closes a module and logs any error.
func (e *Executor) closeModule(job, stage string, m moduleCloser) {
	if m == nil {
		return
	}
	if err := m.Close(); err != nil {
		logger.WithExecution(logger.ExecutionContext{
			Job:        job,
			Stage:      stage,
			ModuleType: moduleType(m),
			Path:       modulePath(m),
		}).Warn("failed to close module", slog.String("error", err.Error()))
	}
}

func modulePath(m any) string {
	if p, ok := m.(pathProvider); ok {
		return p.Path()
	}
	return ""
}

func moduleType(m any) string {
	if t, ok := m.(typeProvider); ok {
		return t.Type()
	}
	return ""
}

// executeInput executes the input module and returns the posts and duration.
func (e *Executor) executeInput(ctx context.Context, job *post.Extraction, result *post.Result) ([]post.Record, time.Duration, error) {
	stageCtx := logger.ExecutionContext{
		Job:        job.Name,
		Stage:      StageInput,
		ModuleType: moduleType(e.inputModule),
		Path:       modulePath(e.inputModule),
	}
	logger.LogStageStart(stageCtx)

	inputStartTime := time.Now()
	records, err := e.inputModule.Fetch(ctx)
	inputDuration := time.Since(inputStartTime)

	if err != nil {
		result.CompletedAt = time.Now()
		result.Error = buildResultError(ErrCodeInputFailed, StageInput, err)
		logger.LogStageEnd(stageCtx, 0, inputDuration, &logger.ExecutionError{
			Code:     ErrCodeInputFailed,
			Category: result.Error.Category,
			Message:  err.Error(),
		})
		return nil, inputDuration, fmt.Errorf("executing input module: %w", err)
	}

	logger.LogStageEnd(stageCtx, len(records), inputDuration, nil)
	return records, inputDuration, nil
}

// executeFilters runs all filter modules in sequence on the given posts.
func (e *Executor) executeFilters(ctx context.Context, job string, records []post.Record) filterResult {
	current := records
	skipped := 0
	for i, filterModule := range e.filterModules {
		if filterModule == nil {
			logger.WithJob(job).Warn("nil filter module encountered; skipping",
				slog.String("stage", StageFilter),
				slog.Int("filter_index", i),
			)
			continue
		}

		log := logger.WithModule(StageFilter, moduleType(filterModule)).With(slog.String("job", job))
		log.Debug("executing filter module",
			slog.Int("filter_index", i),
			slog.Int("input_records", len(current)),
		)

		filterStartTime := time.Now()
		next, err := filterModule.Process(ctx, current)
		filterDuration := time.Since(filterStartTime)

		if err != nil {
			logger.LogError("filter module execution failed", logger.ErrorContext{
				Job:         job,
				Stage:       StageFilter,
				ModuleType:  moduleType(filterModule),
				ErrorCode:   ErrCodeFilterFailed,
				Err:         err,
				RecordIndex: errhandling.ClassifyError(err).RecordIndex,
				RecordCount: len(current),
				Duration:    filterDuration,
				Extra:       map[string]interface{}{"filter_index": i},
			})
			return filterResult{err: err, errIdx: i}
		}

		if counter, ok := filterModule.(filter.SkipCounter); ok {
			skipped += counter.Skipped()
		}
		current = next

		log.Debug("filter module completed",
			slog.Int("filter_index", i),
			slog.Int("output_records", len(current)),
			slog.Duration("duration", filterDuration),
		)
	}
	return filterResult{records: current, skipped: skipped, errIdx: -1}
}

// executeFiltersWithResult executes filter modules and updates result.
func (e *Executor) executeFiltersWithResult(ctx context.Context, job *post.Extraction, records []post.Record, result *post.Result) ([]post.Record, time.Duration, error) {
	stageCtx := logger.ExecutionContext{
		Job:   job.Name,
		Stage: StageFilter,
	}
	logger.LogStageStart(stageCtx)

	filterStartTime := time.Now()
	filterRes := e.executeFilters(ctx, job.Name, records)
	filterDuration := time.Since(filterStartTime)

	if filterRes.err != nil {
		result.CompletedAt = time.Now()
		result.Error = buildResultError(ErrCodeFilterFailed, StageFilter, filterRes.err)
		stageCtx.FilterIndex = filterRes.errIdx
		stageCtx.ModuleType = moduleType(e.filterModules[filterRes.errIdx])
		logger.LogStageEnd(stageCtx, len(records), filterDuration, &logger.ExecutionError{
			Code:     ErrCodeFilterFailed,
			Category: result.Error.Category,
			Message:  filterRes.err.Error(),
		})
		return nil, filterDuration, fmt.Errorf("executing filter module %d: %w", filterRes.errIdx, filterRes.err)
	}

	result.RecordsSkipped = filterRes.skipped
	logger.LogStageEnd(stageCtx, len(filterRes.records), filterDuration, nil)
	return filterRes.records, filterDuration, nil
}

// executeOutputWithResult executes the output module and updates result.
func (e *Executor) executeOutputWithResult(ctx context.Context, job *post.Extraction, records []post.Record, result *post.Result) (time.Duration, error) {
	stageCtx := logger.ExecutionContext{
		Job:        job.Name,
		Stage:      StageOutput,
		ModuleType: moduleType(e.outputModule),
		Path:       modulePath(e.outputModule),
	}
	logger.LogStageStart(stageCtx)

	outputStartTime := time.Now()
	written, err := e.outputModule.Send(ctx, records)
	outputDuration := time.Since(outputStartTime)

	if err != nil {
		result.CompletedAt = time.Now()
		result.RecordsWritten = written
		result.Error = buildResultError(ErrCodeOutputFailed, StageOutput, err)
		logger.LogStageEnd(stageCtx, len(records), outputDuration, &logger.ExecutionError{
			Code:     ErrCodeOutputFailed,
			Category: result.Error.Category,
			Message:  err.Error(),
		})
		return outputDuration, fmt.Errorf("executing output module: %w", err)
	}

	logger.LogStageEnd(stageCtx, written, outputDuration, nil)
	result.RecordsWritten = written
	return outputDuration, nil
}

// finalizeSuccessWithMetrics marks the execution as successful and logs completion with metrics.
func (e *Executor) finalizeSuccessWithMetrics(result *post.Result, startedAt time.Time, job *post.Extraction, timings stageTimings) {
	result.Status = StatusSuccess
	result.CompletedAt = time.Now()
	result.Error = nil

	totalDuration := time.Since(startedAt)

	var recordsPerSecond float64
	if result.RecordsRead > 0 && totalDuration > 0 {
		recordsPerSecond = float64(result.RecordsRead) / totalDuration.Seconds()
	}

	ctx := logger.ExecutionContext{Job: job.Name}
	metrics := logger.ExecutionMetrics{
		TotalDuration:    totalDuration,
		InputDuration:    timings.inputDuration,
		FilterDuration:   timings.filterDuration,
		OutputDuration:   timings.outputDuration,
		RecordsRead:      result.RecordsRead,
		RecordsMatched:   result.RecordsMatched,
		RecordsSkipped:   result.RecordsSkipped,
		RecordsPerSecond: recordsPerSecond,
	}

	logger.LogExecutionEnd(ctx, StatusSuccess, result.RecordsMatched, totalDuration)
	logger.LogMetrics(ctx, metrics)
}
