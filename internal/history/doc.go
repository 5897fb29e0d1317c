// Package history keeps an append-only audit trail of compilations in SQLite.
//
// Records describe what happened to a request; they never hold the document or
// the artifact and are never consulted to short-circuit a compilation.
package history
