// Package tracing provides distributed tracing for the Janus decision
// engine using OpenTelemetry.
//
// The package initializes the OpenTelemetry SDK with an OTLP gRPC exporter
// and a ratio-based sampler. When tracing is disabled a noop tracer is
// returned, so callers never branch on whether tracing is on.
//
// Typical use:
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "engine.Evaluate")
//	defer span.End()
//
// Attribute helpers keep span attribute naming consistent under the
// "janus.*" namespace.
package tracing
