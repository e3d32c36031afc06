package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "policy.mode").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// validBackends is the closed set of storage backends.
var validBackends = map[string]bool{
	"memory": true,
	"sqlite": true,
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validatePolicy(&cfg.Policy)...)
	errs = append(errs, validateTrust(&cfg.Trust)...)
	errs = append(errs, validateBackend("knowledge", cfg.Knowledge.Backend, &cfg.Knowledge.SQLite)...)
	errs = append(errs, validateBackend("provenance", cfg.Provenance.Backend, &cfg.Provenance.SQLite)...)
	errs = append(errs, validateEngine(&cfg.Engine)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validatePolicy validates the policy source configuration.
func validatePolicy(cfg *PolicyConfig) []FieldError {
	var errs []FieldError

	switch cfg.Mode {
	case "file":
		if cfg.FilePath == "" {
			errs = append(errs, FieldError{
				Field:   "policy.file_path",
				Message: "file path is required in file mode",
			})
		}
	case "git":
		if cfg.Git.Repository == "" {
			errs = append(errs, FieldError{
				Field:   "policy.git.repository",
				Message: "repository URL is required in git mode",
			})
		}
		if cfg.Git.PollInterval < 0 {
			errs = append(errs, FieldError{
				Field:   "policy.git.poll_interval",
				Message: "poll interval must be positive",
			})
		}
		if cfg.Git.Depth < 0 {
			errs = append(errs, FieldError{
				Field:   "policy.git.depth",
				Message: "clone depth must be non-negative",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "policy.mode",
			Message: fmt.Sprintf("unknown mode %q (options: file, git)", cfg.Mode),
		})
	}

	return errs
}

// validateTrust validates the trust storage and decay configuration.
func validateTrust(cfg *TrustConfig) []FieldError {
	errs := validateBackend("trust", cfg.Backend, &cfg.SQLite)

	if cfg.Retention <= 0 || cfg.Retention > 1 {
		errs = append(errs, FieldError{
			Field:   "trust.retention",
			Message: fmt.Sprintf("retention must be in (0, 1], got %f", cfg.Retention),
		})
	}
	if cfg.Decay.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Decay.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "trust.decay.schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}
	if cfg.Decay.ChunkSize < 0 {
		errs = append(errs, FieldError{
			Field:   "trust.decay.chunk_size",
			Message: "chunk size must be non-negative",
		})
	}

	return errs
}

// validateBackend validates one storage-backed section.
func validateBackend(section, backend string, sqlite *SQLiteConfig) []FieldError {
	var errs []FieldError

	if !validBackends[backend] {
		errs = append(errs, FieldError{
			Field:   section + ".backend",
			Message: fmt.Sprintf("unknown backend %q (options: memory, sqlite)", backend),
		})
		return errs
	}

	if backend == "sqlite" && sqlite.Path == "" {
		errs = append(errs, FieldError{
			Field:   section + ".sqlite.path",
			Message: "database path is required for the sqlite backend",
		})
	}

	return errs
}

// validateEngine validates the orchestrator thresholds. Zero values are
// legal; they fall back to the engine package defaults.
func validateEngine(cfg *EngineConfig) []FieldError {
	var errs []FieldError

	for name, v := range map[string]float64{
		"engine.ladder.divert":           cfg.Ladder.Divert,
		"engine.ladder.probe":            cfg.Ladder.Probe,
		"engine.ladder.partial":          cfg.Ladder.Partial,
		"engine.ladder.disclose":         cfg.Ladder.Disclose,
		"engine.ladder.verify":           cfg.Ladder.Verify,
		"engine.default_trust_threshold": cfg.DefaultTrustThreshold,
		"engine.degraded_trust_score":    cfg.DegradedTrustScore,
	} {
		if v < 0 || v > 1 {
			errs = append(errs, FieldError{
				Field:   name,
				Message: fmt.Sprintf("threshold must be in [0, 1], got %f", v),
			})
		}
	}

	for domain, v := range cfg.TrustThresholds {
		if v < 0 || v > 1 {
			errs = append(errs, FieldError{
				Field:   "engine.trust_thresholds." + domain,
				Message: fmt.Sprintf("threshold must be in [0, 1], got %f", v),
			})
		}
	}

	return errs
}

// validateTelemetry validates the telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q (options: debug, info, warn, error)", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q (options: json, text)", cfg.Logging.Format),
		})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "endpoint is required when tracing is enabled",
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: fmt.Sprintf("sample ratio must be in [0, 1], got %f", cfg.Tracing.SampleRatio),
		})
	}

	return errs
}
