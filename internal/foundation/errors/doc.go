// Package errors provides the classified error primitives used across latexd.
//
// Every failure the compilation pipeline can produce is a *ClassifiedError with
// a category that drives presentation: the HTTP adapter maps categories to
// status codes and the CLI adapter maps them to exit codes.
//
// Key features:
//   - ErrorCategory: validation, io, engine, compilation, artifact, encoding, ...
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - RetryStrategy: whether the caller may retry
//   - ErrorContext: structured key/value context (e.g. the engine log)
//   - ErrorBuilder: fluent API for creating classified errors
//
// Example usage:
//
//	err := errors.CompilationError("LaTeX compilation failed").
//		WithContext("pass", 1).
//		WithContext("exit_code", 1).
//		Build()
package errors
