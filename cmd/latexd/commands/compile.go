package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/latexd/internal/compiler"
	"git.home.luguber.info/inful/latexd/internal/config"
	"git.home.luguber.info/inful/latexd/internal/daemon"
	"git.home.luguber.info/inful/latexd/internal/engine"
	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
	"git.home.luguber.info/inful/latexd/internal/history"
	"git.home.luguber.info/inful/latexd/internal/logfields"
	"git.home.luguber.info/inful/latexd/internal/server/responses"
)

// CompileCmd implements the 'compile' command.
type CompileCmd struct {
	File   string `arg:"" help:"LaTeX source file (- for stdin)" type:"path"`
	Output string `short:"o" help:"Output PDF path (default: FILE with .pdf extension)"`
	JSON   bool   `name:"json" help:"Print the structured result as JSON instead of writing a PDF"`

	runner engine.ProcessRunner `kong:"-"`
	input  io.Reader            `kong:"-"`
}

func (c *CompileCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}

	source, err := c.readSource()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, closeStore := c.service(cfg, g)
	defer closeStore()

	outcome, err := svc.Compile(ctx, compiler.Request{ID: "cli-" + uuid.NewString(), Source: source})
	if err != nil {
		return err
	}

	if c.JSON {
		return c.printJSON(g, outcome)
	}
	if !outcome.Success() {
		if log := strings.TrimSpace(outcome.Log()); log != "" {
			_, _ = fmt.Fprintln(g.Stderr, log)
		}
		return outcome.Err()
	}

	out := c.outputPath()
	if err := os.WriteFile(out, outcome.Artifact(), 0o600); err != nil {
		return ferrors.IOError("failed to write PDF").WithCause(err).
			WithContext("path", out).
			Build()
	}
	g.Logger.Info("PDF written", logfields.Path(out), logfields.Bytes(len(outcome.Artifact())))
	return nil
}

func (c *CompileCmd) readSource() (string, error) {
	var (
		data []byte
		err  error
	)
	if c.File == "-" {
		data, err = io.ReadAll(c.stdin())
	} else {
		data, err = os.ReadFile(c.File)
	}
	if err != nil {
		return "", ferrors.IOError("failed to read LaTeX source").WithCause(err).
			WithContext("path", c.File).
			Build()
	}
	return string(data), nil
}

// service builds a one-shot compiler that records into history when enabled.
func (c *CompileCmd) service(cfg *config.Config, g *Global) (*compiler.Service, func()) {
	var observers []compiler.Observer
	closeStore := func() {}
	if cfg.History.Enabled {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			g.Logger.Warn("History disabled for this run", logfields.Error(err))
		} else {
			observers = append(observers, history.NewObserver(store, g.Logger))
			closeStore = func() { _ = store.Close() }
		}
	}
	ws := daemon.NewWorkspaceManager(cfg, g.Logger)
	return daemon.NewCompilerService(cfg, ws, c.runner, nil, g.Logger, observers...), closeStore
}

func (c *CompileCmd) stdin() io.Reader {
	if c.input != nil {
		return c.input
	}
	return os.Stdin
}

func (c *CompileCmd) outputPath() string {
	if c.Output != "" {
		return c.Output
	}
	if c.File == "-" {
		return "texput.pdf"
	}
	return strings.TrimSuffix(c.File, filepath.Ext(c.File)) + ".pdf"
}

func (c *CompileCmd) printJSON(g *Global, outcome *compiler.Outcome) error {
	var body any
	if outcome.Success() {
		body = responses.CompileSuccess{Success: true, PDF: outcome.Encoded(), Log: outcome.Log()}
	} else {
		body = responses.CompileFailure{Error: outcome.Message(), Log: outcome.Log(), Output: outcome.Output()}
	}
	enc := json.NewEncoder(g.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(body); err != nil {
		return ferrors.IOError("failed to write result").WithCause(err).Build()
	}
	return outcome.Err()
}
