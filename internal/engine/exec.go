package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"git.home.luguber.info/inful/latexd/internal/logfields"
)

// waitDelay bounds how long Wait blocks on output pipes after the process was killed.
const waitDelay = 5 * time.Second

// ExecRunner runs commands with os/exec. The engine and everything it spawned
// share a process group that is killed as a whole on timeout or cancellation.
type ExecRunner struct {
	logger *slog.Logger
}

// NewExecRunner creates an os/exec backed runner.
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecRunner{logger: logger}
}

func (r *ExecRunner) Run(ctx context.Context, c Command) (*PassResult, error) {
	runCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, c.Binary, c.Args...)
	cmd.Dir = c.Dir
	configureProcessGroup(cmd)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("Invoking engine", logfields.Binary(c.Binary), logfields.Workspace(c.Dir))

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrBinaryNotFound, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrSpawn, err)
	}
	waitErr := cmd.Wait()

	res := &PassResult{
		Stdout:   decode(stdout.Bytes()),
		Stderr:   decode(stderr.Bytes()),
		Duration: time.Since(start),
	}

	if waitErr == nil {
		return res, nil
	}

	// Parent cancellation wins over our own deadline.
	if ctx.Err() != nil {
		res.ExitCode = -1
		return res, fmt.Errorf("engine canceled: %w", ctx.Err())
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		res.ExitCode = -1
		return res, fmt.Errorf("%w after %s", ErrTimeout, c.Timeout)
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, fmt.Errorf("%w: %w", ErrSpawn, waitErr)
}

// decode turns engine output into valid UTF-8, replacing invalid sequences.
func decode(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
