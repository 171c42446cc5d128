// Package main provides the CLI entry point for linksieve.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/linksieve/linksieve/internal/cli"
	"github.com/linksieve/linksieve/internal/config"
	"github.com/linksieve/linksieve/internal/factory"
	"github.com/linksieve/linksieve/internal/logger"
	"github.com/linksieve/linksieve/internal/modules/filter"
	"github.com/linksieve/linksieve/internal/runtime"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitValidationError = 1
	ExitParseError      = 2
	ExitRuntimeError    = 3
)

// Build information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// exitError carries the process exit code out of a command. Its message has
// already been printed when it is returned.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// options holds the flag values of one invocation.
type options struct {
	configPath string
	input      string
	output     string
	host       string
	onError    string
	verbose    bool
	quiet      bool
	logFormat  string
	logFile    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, newRootCmd(), os.Args[1:])
	stop()
	os.Exit(code)
}

// execute runs cmd with args and maps the outcome to an exit code.
func execute(ctx context.Context, cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	return ExitRuntimeError
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "linksieve",
		Short: "linksieve - keep posts offering downloads from one file host",
		Long: `linksieve reads a JSON array of posts, keeps the posts that have at
least one download link on the given host (case-insensitive substring
match) and writes them, in input order, to a tab-indented JSON file.

Without flags it reads part_1candidbestpremium_posts.json, keeps
pixeldrain.com links and writes pixeldrain_posts.json in the working
directory. Flags override configuration file values.

Exit codes:
  0 - Extraction succeeded
  1 - Validation errors (configuration or flags)
  2 - Parse errors (invalid JSON/YAML configuration)
  3 - Runtime errors

Examples:
  linksieve
  linksieve --host mega.nz -o mega_posts.json
  linksieve --config linksieve.yaml --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtract(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress non-error output")

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Configuration file (YAML or JSON)")
	flags.StringVarP(&opts.input, "input", "i", "", "Input JSON file of posts")
	flags.StringVarP(&opts.output, "output", "o", "", "Output JSON file")
	flags.StringVar(&opts.host, "host", "", "Host searched for in download links")
	flags.StringVar(&opts.onError, "on-error", "", "Malformed post handling: fail, skip or log")
	flags.StringVar(&opts.logFormat, "log-format", "", "Console log format: human or json")
	flags.StringVar(&opts.logFile, "log-file", "", "Also write JSON logs to this file")

	rootCmd.AddCommand(newValidateCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a configuration file against the schema.

Supports both JSON and YAML formats. The format is auto-detected
based on file extension (.json, .yaml, .yml) or content.

Exit codes:
  0 - Configuration is valid
  1 - Validation errors (schema violations)
  2 - Parse errors (invalid JSON/YAML syntax)

Examples:
  linksieve validate linksieve.yaml
  linksieve validate --verbose linksieve.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, opts, args[0])
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print version, commit hash, and build date information.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Version: %s\n", version)
			fmt.Fprintf(out, "Commit: %s\n", commit)
			fmt.Fprintf(out, "Build Date: %s\n", buildDate)
		},
	}
}

func runValidate(cmd *cobra.Command, opts *options, configPath string) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	result := config.ParseConfig(configPath)

	if len(result.ParseErrors) > 0 {
		cli.PrintParseErrors(errOut, result.ParseErrors, opts.verbose)
		return &exitError{code: ExitParseError}
	}

	if len(result.ValidationErrors) > 0 {
		cli.PrintValidationErrors(errOut, result.ValidationErrors, opts.verbose, opts.quiet)
		return &exitError{code: ExitValidationError}
	}

	if !opts.quiet {
		fmt.Fprintf(out, "✓ Configuration is valid (format: %s)\n", result.Format)
		if opts.verbose {
			cli.PrintConfigSummary(out, result.Data)
		}
	}
	return nil
}

func runExtract(cmd *cobra.Command, opts *options) error {
	errOut := cmd.ErrOrStderr()

	settings, exitErr := loadSettings(cmd, opts)
	if exitErr != nil {
		return exitErr
	}

	if err := configureLogging(opts, settings.Logging); err != nil {
		fmt.Fprintf(errOut, "✗ Invalid logging configuration: %v\n", err)
		return &exitError{code: ExitValidationError}
	}
	defer logger.CloseLogFile()

	job := &settings.Extraction
	if settings.FilePath != "" {
		logger.Debug("configuration loaded",
			slog.String("path", settings.FilePath),
			slog.String("job", job.Name),
		)
	}

	inputModule, err := factory.CreateInputModule(job)
	if err != nil {
		fmt.Fprintf(errOut, "✗ Invalid extraction: %v\n", err)
		return &exitError{code: ExitValidationError}
	}
	filterModules, err := factory.CreateFilterModules(job)
	if err != nil {
		fmt.Fprintf(errOut, "✗ Invalid extraction: %v\n", err)
		return &exitError{code: ExitValidationError}
	}
	outputModule, err := factory.CreateOutputModule(job)
	if err != nil {
		fmt.Fprintf(errOut, "✗ Invalid extraction: %v\n", err)
		return &exitError{code: ExitValidationError}
	}

	host := strings.ToLower(job.Host)
	if linkMatch, ok := filterModules[0].(*filter.LinkMatch); ok {
		host = linkMatch.Host()
	}

	executor := runtime.NewExecutorWithModules(inputModule, filterModules, outputModule)
	result, err := executor.ExecuteWithContext(cmd.Context(), job)

	cli.PrintExecutionResult(cmd.OutOrStdout(), errOut, result, err, cli.OutputOptions{
		Verbose: opts.verbose,
		Quiet:   opts.quiet,
	}, host)

	if err != nil {
		return &exitError{code: ExitRuntimeError}
	}
	return nil
}

// loadSettings builds the effective settings: defaults, then the optional
// configuration file, then the flags that were set explicitly.
func loadSettings(cmd *cobra.Command, opts *options) (*config.Settings, *exitError) {
	errOut := cmd.ErrOrStderr()

	settings := config.Default()
	if opts.configPath != "" {
		loaded, result := config.Load(opts.configPath)
		if len(result.ParseErrors) > 0 {
			cli.PrintParseErrors(errOut, result.ParseErrors, opts.verbose)
			return nil, &exitError{code: ExitParseError}
		}
		if len(result.ValidationErrors) > 0 {
			cli.PrintValidationErrors(errOut, result.ValidationErrors, opts.verbose, opts.quiet)
			return nil, &exitError{code: ExitValidationError}
		}
		settings = loaded
	}

	flags := cmd.Flags()
	overrides := []struct {
		flag   string
		value  string
		target *string
	}{
		{"input", opts.input, &settings.Extraction.Input},
		{"output", opts.output, &settings.Extraction.Output},
		{"host", opts.host, &settings.Extraction.Host},
		{"on-error", opts.onError, &settings.Extraction.OnError},
		{"log-format", opts.logFormat, &settings.Logging.Format},
		{"log-file", opts.logFile, &settings.Logging.File},
	}
	for _, o := range overrides {
		if flags.Changed(o.flag) {
			*o.target = o.value
		}
	}

	return settings, nil
}

// configureLogging applies the logging settings. --verbose and --quiet take
// precedence over the configured level; the default level is warn.
func configureLogging(opts *options, settings config.LoggingSettings) error {
	level := slog.LevelWarn
	if settings.Level != "" {
		parsed, err := logger.ParseLevel(settings.Level)
		if err != nil {
			return err
		}
		level = parsed
	}
	switch {
	case opts.verbose:
		level = slog.LevelDebug
	case opts.quiet:
		level = slog.LevelError
	}

	format, err := logger.ParseFormat(settings.Format)
	if err != nil {
		return err
	}

	logger.SetLevelAndFormat(level, format)
	if settings.File != "" {
		return logger.SetLogFile(settings.File, level, format)
	}
	return nil
}
