package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/latexd/internal/daemon"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	NoWatch bool `name:"no-watch" help:"Do not reload the configuration file when it changes"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	watchPath := root.Config
	if s.NoWatch {
		watchPath = ""
	}
	d, err := daemon.New(ctx, cfg, watchPath, daemon.Options{Logger: g.Logger, LogLevel: g.LogLevel})
	if err != nil {
		return err
	}
	return runUntilSignal(ctx, d, g)
}

type lifecycle interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// runUntilSignal starts d and stops it once ctx is done or Start fails.
func runUntilSignal(ctx context.Context, d lifecycle, g *Global) error {
	startErr := d.Start(ctx)

	stopCtx, stopCancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer stopCancel()
	stopErr := d.Stop(stopCtx)

	if startErr != nil {
		return startErr
	}
	if stopErr != nil {
		return stopErr
	}
	g.Logger.Info("Daemon stopped successfully")
	return nil
}
