// Package responses defines the JSON bodies written by latexd HTTP handlers.
package responses

import (
	"time"

	"git.home.luguber.info/inful/latexd/internal/history"
)

// CompileSuccess is the structured body of a successful compilation.
type CompileSuccess struct {
	Success bool   `json:"success"`
	PDF     string `json:"pdf"`
	Log     string `json:"log"`
}

// CompileFailure is the structured body of a failed compilation.
type CompileFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Log     string `json:"log"`
	Output  string `json:"output"`
}

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"`
}

// HistoryResponse lists recent compilations, newest first.
type HistoryResponse struct {
	Count        int              `json:"count"`
	Compilations []history.Record `json:"compilations"`
}
