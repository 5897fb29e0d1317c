package compiler

import "errors"

var (
	// ErrArtifactMissing indicates the engine exited cleanly but wrote no PDF.
	ErrArtifactMissing = errors.New("artifact missing")
	// ErrArtifactEmpty indicates the PDF exists but has zero length.
	ErrArtifactEmpty = errors.New("artifact empty")
	// ErrEncoding indicates the artifact failed the transport encoding self-check.
	ErrEncoding = errors.New("artifact encoding failed")
)

// Context keys under which failure diagnostics travel on classified errors.
const (
	ContextLog    = "log"
	ContextOutput = "output"
)
