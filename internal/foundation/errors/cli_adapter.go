package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	classified, ok := AsClassified(err)
	if !ok {
		return 1
	}

	switch classified.Category() {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryEngine:
		return 8 // External system error
	case CategoryCompilation, CategoryArtifact, CategoryEncoding, CategoryIO:
		return 11 // Build error
	case CategoryDaemon, CategoryRuntime:
		return 12 // Runtime error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	classified, ok := AsClassified(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	if a.verbose {
		return classified.Error()
	}
	if classified.Category() == CategoryInternal {
		return "Internal error occurred (use -v for details)"
	}
	return fmt.Sprintf("Error: %s", classified.Message())
}

// Report logs err and prints the user-facing message to w, returning the exit code.
func (a *CLIErrorAdapter) Report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}

	if classified, ok := AsClassified(err); ok {
		attrs := []slog.Attr{slog.String("category", string(classified.Category()))}
		if classified.CanRetry() {
			attrs = append(attrs, slog.Bool("retryable", true))
		}
		if a.verbose || classified.IsFatal() {
			a.logger.LogAttrs(context.Background(), SlogLevel(classified.Severity()), classified.Message(), attrs...)
		}
	} else {
		a.logger.Error("Unclassified error", "error", err)
	}

	_, _ = fmt.Fprintln(w, a.FormatError(err))
	return a.ExitCodeFor(err)
}
