package compiler

import (
	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
)

// Outcome is the immutable result of one compilation: either a success with
// the PDF, or a failure with a message and whatever diagnostics exist.
// Callers must not modify the slice returned by Artifact.
type Outcome struct {
	success  bool
	artifact []byte
	encoded  string
	log      string

	err     error
	message string
	output  string
}

// NewSuccess assembles a successful outcome.
func NewSuccess(artifact []byte, encoded, log string) *Outcome {
	return &Outcome{success: true, artifact: artifact, encoded: encoded, log: log}
}

// NewFailure assembles a failed outcome from a pipeline error.
func NewFailure(err error, log, output string) *Outcome {
	msg := err.Error()
	if c, ok := ferrors.AsClassified(err); ok {
		msg = c.Message()
	}
	return &Outcome{err: err, message: msg, log: log, output: output}
}

// failureFrom builds a failure taking diagnostics from the error context,
// falling back to the supplied log when the error carries none.
func failureFrom(err error, fallbackLog string) *Outcome {
	log := ferrors.ContextString(err, ContextLog)
	if log == "" {
		log = fallbackLog
	}
	return NewFailure(err, log, ferrors.ContextString(err, ContextOutput))
}

func (o *Outcome) Success() bool    { return o.success }
func (o *Outcome) Artifact() []byte { return o.artifact }
func (o *Outcome) Encoded() string  { return o.encoded }
func (o *Outcome) Log() string      { return o.log }
func (o *Outcome) Output() string   { return o.output }
func (o *Outcome) Message() string  { return o.message }
func (o *Outcome) Err() error       { return o.err }

// Category returns the failure category, or "" for a success.
func (o *Outcome) Category() ferrors.ErrorCategory {
	if o.success {
		return ""
	}
	return ferrors.GetCategory(o.err)
}
