// Package commands implements the latexd command-line interface.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/latexd/internal/config"
	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
)

// Global carries state shared by every subcommand.
type Global struct {
	Logger   *slog.Logger
	LogLevel *slog.LevelVar
	Stdout   io.Writer
	Stderr   io.Writer
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"latexd.yaml" type:"path"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format (text, json); defaults to the config file value"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve   ServeCmd   `cmd:"" help:"Run the LaTeX compilation HTTP service"`
	Compile CompileCmd `cmd:"" help:"Compile a single LaTeX file to PDF"`
	History HistoryCmd `cmd:"" help:"Show recent compilations"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply(g *Global) error {
	if c.LogFormat != "" && config.NormalizeLogFormat(c.LogFormat) == "" {
		return ferrors.ValidationError("unsupported log format").
			WithContext("log_format", c.LogFormat).
			Build()
	}
	if g.Stdout == nil {
		g.Stdout = os.Stdout
	}
	if g.Stderr == nil {
		g.Stderr = os.Stderr
	}
	if g.LogLevel == nil {
		g.LogLevel = new(slog.LevelVar)
	}
	if c.Verbose {
		g.LogLevel.Set(slog.LevelDebug)
	}
	g.Logger = newLogger(g.Stderr, config.NormalizeLogFormat(c.LogFormat), g.LogLevel)
	slog.SetDefault(g.Logger)
	return nil
}

// applyLogging adopts the configured log level and format unless flags override them.
func (c *CLI) applyLogging(g *Global, cfg *config.Config) {
	if !c.Verbose {
		g.LogLevel.Set(cfg.Monitoring.Logging.Level.SlogLevel())
	}
	format := config.NormalizeLogFormat(c.LogFormat)
	if format == "" {
		format = cfg.Monitoring.Logging.Format
	}
	g.Logger = newLogger(g.Stderr, format, g.LogLevel)
	slog.SetDefault(g.Logger)
}

// loadConfig loads the configuration file and applies its logging section.
func (c *CLI) loadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	c.applyLogging(g, cfg)
	return cfg, nil
}

func newLogger(w io.Writer, format config.LogFormat, level slog.Leveler) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
