package config

import (
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/latexd/internal/foundation"
	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
	"git.home.luguber.info/inful/latexd/internal/retry"
)

// Pass bounds for engine.passes.
const (
	MinPasses = 1
	MaxPasses = 5
)

// WriteMargin is the time server.write_timeout must leave for encoding and
// writing a response after the slowest possible compilation.
const WriteMargin = 5 * time.Second

var configValidator = foundation.NewValidatorChain(
	field(func(c *Config) string { return c.Server.Addr }, foundation.NotBlank("server.addr")),
	field(func(c *Config) int64 { return c.Server.MaxBodyBytes }, foundation.Positive[int64]("server.max_body_bytes")),
	field(func(c *Config) time.Duration { return c.Server.ReadTimeout }, foundation.Positive[time.Duration]("server.read_timeout")),
	field(func(c *Config) time.Duration { return c.Server.WriteTimeout }, foundation.Positive[time.Duration]("server.write_timeout")),

	field(func(c *Config) string { return c.Engine.Binary }, foundation.NotBlank("engine.binary")),
	field(func(c *Config) int { return c.Engine.Passes }, foundation.InRange("engine.passes", MinPasses, MaxPasses)),
	field(func(c *Config) time.Duration { return c.Engine.Timeout }, foundation.Positive[time.Duration]("engine.timeout")),
	field(func(c *Config) int { return c.Engine.MaxConcurrent }, foundation.Positive[int]("engine.max_concurrent")),
	field(func(c *Config) time.Duration { return c.Engine.QueueTimeout }, foundation.Positive[time.Duration]("engine.queue_timeout")),
	field(func(c *Config) string { return c.Engine.JobName }, validJobName),

	field(func(c *Config) time.Duration { return c.Workspace.SweepInterval }, foundation.Positive[time.Duration]("workspace.sweep_interval")),
	field(func(c *Config) time.Duration { return c.Workspace.MaxAge }, foundation.Positive[time.Duration]("workspace.max_age")),

	validateWriteBudget,
	validateEvents,

	field(func(c *Config) string { return c.Monitoring.Metrics.Path }, absolutePath("monitoring.metrics.path")),
	field(func(c *Config) string { return c.Monitoring.Health.Path }, absolutePath("monitoring.health.path")),
)

// ValidateConfig checks the configuration after defaults were applied.
func ValidateConfig(cfg *Config) error {
	return configValidator.Validate(cfg).ToErrorAs(ferrors.CategoryConfig)
}

func field[F any](get func(*Config) F, v foundation.Validator[F]) foundation.Validator[*Config] {
	return foundation.Field(get, v)
}

func validJobName(name string) foundation.ValidationResult {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return foundation.Invalid(foundation.NewValidationError("engine.job_name", "file_name", "must be a plain file name"))
	}
	return foundation.Valid()
}

func absolutePath(name string) foundation.Validator[string] {
	return func(p string) foundation.ValidationResult {
		if !strings.HasPrefix(p, "/") {
			return foundation.Invalid(foundation.NewValidationError(name, "path", "must start with '/'"))
		}
		return foundation.Valid()
	}
}

// CompileBudget is the longest a compile request can take: the wait for a
// slot plus every pass running to its timeout.
func CompileBudget(e EngineConfig) time.Duration {
	return e.QueueTimeout + time.Duration(e.Passes)*e.Timeout
}

// validateWriteBudget rejects configurations where the HTTP write deadline
// could expire before a compilation finishes.
func validateWriteBudget(c *Config) foundation.ValidationResult {
	budget := CompileBudget(c.Engine)
	if budget <= 0 || c.Server.WriteTimeout <= 0 {
		return foundation.Valid()
	}
	if c.Server.WriteTimeout < budget+WriteMargin {
		return foundation.Invalid(foundation.NewValidationError("server.write_timeout", "budget",
			fmt.Sprintf("must be at least %s (engine.queue_timeout + engine.passes * engine.timeout + %s)",
				budget+WriteMargin, WriteMargin)))
	}
	return foundation.Valid()
}

// validateEvents only checks the events section when it is enabled.
func validateEvents(c *Config) foundation.ValidationResult {
	if !c.Events.Enabled {
		return foundation.Valid()
	}
	e := c.Events
	return foundation.NotBlank("events.nats_url")(e.NATSURL).
		Combine(foundation.NotBlank("events.subject")(e.Subject)).
		Combine(foundation.NotBlank("events.stream")(e.Stream)).
		Combine(foundation.OneOf("events.retry_backoff",
			[]retry.Mode{retry.ModeFixed, retry.ModeLinear, retry.ModeExponential})(e.RetryBackoff)).
		Combine(foundation.InRange("events.max_retries", 0, 10)(e.MaxRetries))
}
