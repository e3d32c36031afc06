// Package logging provides structured logging for the Janus decision engine.
//
// The package builds slog loggers from the telemetry configuration and
// optionally wraps them in a content-redacting handler. Redaction masks the
// conversational payloads that flow through the engine (utterances, ledger
// facts, provenance fragments) so that audit logs record decisions without
// recording the information being decided about.
//
// Typical use:
//
//	logger, err := logging.New(logging.Config{
//	    Level:         "info",
//	    Format:        "json",
//	    RedactContent: true,
//	})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
// Context helpers carry caller and decision identifiers through the
// evaluation pipeline so every log line can be correlated with its decision.
package logging
