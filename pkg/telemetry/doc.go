// Package telemetry groups the observability subpackages of the Janus
// decision engine.
//
// Subpackages:
//
//   - logging: structured slog loggers with content redaction
//   - metrics: Prometheus registry and exposition endpoint
//   - tracing: OpenTelemetry tracer setup and span attribute helpers
package telemetry
