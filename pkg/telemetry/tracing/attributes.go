package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/janus/pkg/decision"
)

// Common attribute keys used throughout the system. Custom keys use the
// "janus.*" namespace.
const (
	AttrCallerID   = "janus.caller_id"
	AttrDomain     = "janus.domain"
	AttrDecisionID = "janus.decision_id"
	AttrOutcome    = "janus.outcome"
	AttrTrustBand  = "janus.trust_band"
	AttrTrustScore = "janus.trust_score"
	AttrMKEScore   = "janus.mke_score"
	AttrConfidence = "janus.confidence"
	AttrReasons    = "janus.reasons"
	AttrStrict     = "janus.strict_truth"
	AttrSensitive  = "janus.sensitive"
)

// RequestAttributes returns the span attributes describing a request
// context. The utterance itself is never attached to spans.
func RequestAttributes(rc decision.RequestContext) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrCallerID, rc.CallerID),
		attribute.String(AttrDomain, string(rc.Domain)),
		attribute.Bool(AttrStrict, rc.StrictTruth),
		attribute.Bool(AttrSensitive, rc.Sensitive),
	}
}

// DecisionAttributes returns the span attributes describing a finished
// decision.
func DecisionAttributes(d *decision.Decision) []attribute.KeyValue {
	reasons := make([]string, len(d.Reasons))
	for i, r := range d.Reasons {
		reasons[i] = string(r)
	}

	return []attribute.KeyValue{
		attribute.String(AttrDecisionID, d.ID),
		attribute.String(AttrOutcome, string(d.Outcome)),
		attribute.String(AttrTrustBand, string(d.TrustBand)),
		attribute.Float64(AttrTrustScore, d.TrustScore),
		attribute.Float64(AttrMKEScore, d.MKEScore),
		attribute.Float64(AttrConfidence, d.Confidence),
		attribute.StringSlice(AttrReasons, reasons),
	}
}

// SetError marks the span as failed and records the error.
func SetError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
