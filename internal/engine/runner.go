package engine

import (
	"context"
	"time"
)

// Command describes one engine invocation.
type Command struct {
	Binary  string
	Args    []string
	Dir     string
	Timeout time.Duration // zero means no bound
}

// PassResult is the captured outcome of one engine invocation that actually ran.
type PassResult struct {
	Pass     int
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Succeeded reports a zero exit status.
func (r *PassResult) Succeeded() bool {
	return r != nil && r.ExitCode == 0
}

// ProcessRunner runs a command to completion and captures its output.
//
// A non-nil *PassResult is returned for every process that ran, whatever its
// exit code. The error is non-nil when the process could not be spawned
// (ErrBinaryNotFound, ErrSpawn), was killed for exceeding its timeout
// (ErrTimeout, with the partial PassResult), or the context was canceled.
type ProcessRunner interface {
	Run(ctx context.Context, cmd Command) (*PassResult, error)
}

// RunnerFunc adapts a function to ProcessRunner.
type RunnerFunc func(ctx context.Context, cmd Command) (*PassResult, error)

func (f RunnerFunc) Run(ctx context.Context, cmd Command) (*PassResult, error) {
	return f(ctx, cmd)
}

// LaTeXArgs returns the pdflatex arguments for a non-interactive run that
// stops at the first error.
func LaTeXArgs(sourcePath string) []string {
	return []string{"-interaction=nonstopmode", "-halt-on-error", sourcePath}
}
