package logging

import "context"

// Context keys for common log fields.
type contextKey string

const (
	// CallerIDKey is the context key for caller identifiers.
	CallerIDKey contextKey = "caller_id"

	// DecisionIDKey is the context key for decision identifiers.
	DecisionIDKey contextKey = "decision_id"

	// DomainKey is the context key for topic domains.
	DomainKey contextKey = "domain"
)

// WithCallerID adds a caller identifier to the context.
func WithCallerID(ctx context.Context, callerID string) context.Context {
	return context.WithValue(ctx, CallerIDKey, callerID)
}

// GetCallerID retrieves the caller identifier from the context.
func GetCallerID(ctx context.Context) string {
	if v, ok := ctx.Value(CallerIDKey).(string); ok {
		return v
	}
	return ""
}

// WithDecisionID adds a decision identifier to the context.
func WithDecisionID(ctx context.Context, decisionID string) context.Context {
	return context.WithValue(ctx, DecisionIDKey, decisionID)
}

// GetDecisionID retrieves the decision identifier from the context.
func GetDecisionID(ctx context.Context) string {
	if v, ok := ctx.Value(DecisionIDKey).(string); ok {
		return v
	}
	return ""
}

// WithDomain adds a topic domain to the context.
func WithDomain(ctx context.Context, domain string) context.Context {
	return context.WithValue(ctx, DomainKey, domain)
}

// GetDomain retrieves the topic domain from the context.
func GetDomain(ctx context.Context) string {
	if v, ok := ctx.Value(DomainKey).(string); ok {
		return v
	}
	return ""
}

// ContextFields extracts the common correlation fields from a context as a
// slice of key-value pairs suitable for logger.With().
func ContextFields(ctx context.Context) []any {
	var fields []any

	if callerID := GetCallerID(ctx); callerID != "" {
		fields = append(fields, "caller_id", callerID)
	}
	if decisionID := GetDecisionID(ctx); decisionID != "" {
		fields = append(fields, "decision_id", decisionID)
	}
	if domain := GetDomain(ctx); domain != "" {
		fields = append(fields, "domain", domain)
	}

	return fields
}
