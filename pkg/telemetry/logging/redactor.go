package logging

import (
	"context"
	"log/slog"
)

// RedactedValue replaces masked attribute values.
const RedactedValue = "[redacted]"

// contentKeys are the attribute keys whose values carry conversational
// payloads. The set covers the field names the engine packages log under.
var contentKeys = map[string]bool{
	"utterance": true,
	"fact":      true,
	"fragment":  true,
	"goal":      true,
	"guidance":  true,
	"token":     true,
}

// RedactingHandler is a slog.Handler decorator that masks the values of
// content-bearing attributes before delegating to the wrapped handler.
// Identifiers and scores pass through untouched; only the payload fields
// named in contentKeys are masked.
type RedactingHandler struct {
	inner slog.Handler
}

// NewRedactingHandler wraps a handler with content redaction.
func NewRedactingHandler(inner slog.Handler) *RedactingHandler {
	return &RedactingHandler{inner: inner}
}

// Enabled reports whether the wrapped handler handles the level.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle masks content attributes on the record and delegates.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(redactAttr(a))
		return true
	})
	return h.inner.Handle(ctx, masked)
}

// WithAttrs masks the pre-bound attributes and delegates.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &RedactingHandler{inner: h.inner.WithAttrs(redacted)}
}

// WithGroup delegates to the wrapped handler.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithGroup(name)}
}

// redactAttr masks a single attribute, recursing into groups.
func redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		redacted := make([]slog.Attr, len(group))
		for i, g := range group {
			redacted[i] = redactAttr(g)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}
	if contentKeys[a.Key] {
		return slog.String(a.Key, RedactedValue)
	}
	return a
}
