package config

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/latexd/internal/retry"
)

// NormalizationResult captures adjustments & warnings from normalization pass.
type NormalizationResult struct{ Warnings []string }

// NormalizeConfig canonicalizes enumerated and bounded fields prior to default
// application. It mutates cfg in place and reports any coercions.
func NormalizeConfig(cfg *Config) *NormalizationResult {
	res := &NormalizationResult{}
	normalizeMonitoring(&cfg.Monitoring, res)
	normalizeEvents(&cfg.Events, res)
	normalizeServer(&cfg.Server)
	return res
}

func normalizeMonitoring(m *MonitoringConfig, res *NormalizationResult) {
	if lvl := NormalizeLogLevel(string(m.Logging.Level)); lvl != "" {
		if m.Logging.Level != lvl {
			res.Warnings = append(res.Warnings, warnChanged("monitoring.logging.level", m.Logging.Level, lvl))
			m.Logging.Level = lvl
		}
	} else if strings.TrimSpace(string(m.Logging.Level)) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("monitoring.logging.level", string(m.Logging.Level), string(LogLevelInfo)))
		m.Logging.Level = LogLevelInfo
	}

	if f := NormalizeLogFormat(string(m.Logging.Format)); f != "" {
		if m.Logging.Format != f {
			res.Warnings = append(res.Warnings, warnChanged("monitoring.logging.format", m.Logging.Format, f))
			m.Logging.Format = f
		}
	} else if strings.TrimSpace(string(m.Logging.Format)) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("monitoring.logging.format", string(m.Logging.Format), string(LogFormatText)))
		m.Logging.Format = LogFormatText
	}
}

func normalizeEvents(e *EventsConfig, res *NormalizationResult) {
	if mode := retry.ParseMode(string(e.RetryBackoff)); mode != "" {
		if e.RetryBackoff != mode {
			res.Warnings = append(res.Warnings, warnChanged("events.retry_backoff", e.RetryBackoff, mode))
			e.RetryBackoff = mode
		}
	} else if strings.TrimSpace(string(e.RetryBackoff)) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("events.retry_backoff", string(e.RetryBackoff), string(retry.ModeExponential)))
		e.RetryBackoff = retry.ModeExponential
	}
	if e.MaxRetries < 0 {
		e.MaxRetries = 0
	}
}

func normalizeServer(s *ServerConfig) {
	s.Addr = strings.TrimSpace(s.Addr)
	if s.MaxConnections < 0 {
		s.MaxConnections = 0
	}
}

func warnChanged(field string, from, to any) string {
	return fmt.Sprintf("normalized %s from '%v' to '%v'", field, from, to)
}

func warnUnknown(field, value, def string) string {
	return fmt.Sprintf("unknown %s '%s', defaulting to %s", field, value, def)
}
