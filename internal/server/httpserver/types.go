package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/latexd/internal/history"
	"git.home.luguber.info/inful/latexd/internal/server/handlers"
)

// Options configures server wiring that is runtime-specific.
type Options struct {
	Compiler handlers.Compiler

	// Optional: compilation history API. Disabled history serves an empty list.
	History history.Store

	// Optional: Prometheus scrape handler, mounted at monitoring.metrics.path when enabled.
	PrometheusHandler http.Handler

	Logger    *slog.Logger
	StartTime time.Time
}
