package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
	"git.home.luguber.info/inful/latexd/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of compilations to show" default:"20"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return ferrors.ConfigError("compilation history is disabled").
			WithContext("setting", "history.enabled").
			Build()
	}
	if h.Limit < 1 {
		return ferrors.ValidationError("limit must be positive").Build()
	}

	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.Recent(context.Background(), h.Limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(g.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TIME\tREQUEST\tRESULT\tPASSES\tDURATION\tBYTES\tMESSAGE")
	for _, r := range records {
		result := "ok"
		if !r.Success {
			result = r.Category
		}
		if r.RerunSuggested {
			result += "*"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%d\t%s\n",
			r.Timestamp.Local().Format(time.DateTime),
			r.RequestID,
			result,
			r.Passes,
			time.Duration(r.DurationMS)*time.Millisecond,
			r.ArtifactBytes,
			r.Message)
	}
	return tw.Flush()
}
