// Package handlers implements the latexd HTTP endpoints.
package handlers
