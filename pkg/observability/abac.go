package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ABAC decision semantic-convention attributes, attached to the
// facade's checkAccess span and RED metrics (spec.md §4.9, §6.1).
var (
	AttrActionID         = attribute.Key("abac.action.id")
	AttrDecidingPolicyID = attribute.Key("abac.policy.id")
	AttrDecisionResult   = attribute.Key("abac.decision.result")
	AttrEvaluatedCount   = attribute.Key("abac.decision.evaluated_count")
)

// DecisionOperation builds the attribute set attached to one
// checkAccess evaluation's span and metrics once the decision is
// known. decidingPolicyID is the empty string when no policy decided
// the outcome (spec.md §4.4's default-deny path).
func DecisionOperation(actionID, result, decidingPolicyID string, evaluatedCount int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		AttrActionID.String(actionID),
		AttrDecisionResult.String(result),
		AttrEvaluatedCount.Int(evaluatedCount),
	}
	if decidingPolicyID != "" {
		attrs = append(attrs, AttrDecidingPolicyID.String(decidingPolicyID))
	}
	return attrs
}

// SpanFromContext extracts the current span from ctx.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// AddSpanEvent adds an event to the span carried by ctx.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// SetSpanStatus records err (if any) on the span carried by ctx.
func SetSpanStatus(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if err != nil {
		span.RecordError(err)
	}
}
