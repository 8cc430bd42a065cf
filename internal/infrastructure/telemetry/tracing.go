package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for application spans
const TracerName = "investor-crm"

// Span attribute keys shared by the application services
const (
	AttrTenantID   = "crm.tenant_id"
	AttrUserID     = "crm.user_id"
	AttrInvestorID = "crm.investor_id"
	AttrStage      = "crm.stage"
	AttrTool       = "crm.assistant.tool"
	AttrProvider   = "crm.provider"
	AttrCount      = "crm.count"
)

// StartSpan starts an internal span named service.method.
//
//	ctx, span := telemetry.StartSpan(ctx, "investor", "move_stage", telemetry.AttrStage, "meeting")
//	defer span.End()
func StartSpan(ctx context.Context, service, method string, keyValues ...any) (context.Context, trace.Span) {
	return startSpan(ctx, service+"."+method, trace.SpanKindInternal, keyValues)
}

// StartClientSpan starts a span for an outbound call to a third-party API.
func StartClientSpan(ctx context.Context, provider, operation string, keyValues ...any) (context.Context, trace.Span) {
	keyValues = append(keyValues, AttrProvider, provider)
	return startSpan(ctx, provider+"."+operation, trace.SpanKindClient, keyValues)
}

func startSpan(ctx context.Context, name string, kind trace.SpanKind, keyValues []any) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, name,
		trace.WithSpanKind(kind),
		trace.WithAttributes(toAttributes(keyValues)...),
	)
}

// SetAttributes adds key/value pairs to the span. Non-string keys are skipped.
func SetAttributes(span trace.Span, keyValues ...any) {
	if span == nil {
		return
	}
	span.SetAttributes(toAttributes(keyValues)...)
}

// RecordError marks the span as failed.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// End records err (if any) and ends the span. Meant for defer with a named error result.
func End(span trace.Span, err *error) {
	if err != nil {
		RecordError(span, *err)
	}
	span.End()
}

// TraceID returns the current trace id or "" when there is no sampled span.
func TraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.TraceID().IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

func toAttributes(keyValues []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, toAttribute(key, keyValues[i+1]))
	}
	return attrs
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
