package workerpresentation

import (
	"context"

	domaudit "github.com/escabi/escabiapi/internal/domain/audit"
	dominv "github.com/escabi/escabiapi/internal/domain/inventory"
	domoutbox "github.com/escabi/escabiapi/internal/domain/outbox"
	"github.com/escabi/escabiapi/internal/observability"
	"github.com/escabi/escabiapi/internal/observability/logctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// WithEventContext injects a request-scoped logger for background/worker executions.
// Dynamic fields only: trace_id/span_id (if valid), event_id (generated if empty),
// plus caller-provided low-cardinality attributes (e.g. "use_case", "event").
func WithEventContext(
	ctx context.Context,
	base observability.Logger,
	traceID trace.TraceID,
	spanID trace.SpanID,
	attrs map[string]string,
) context.Context {
	if base == nil {
		base = observability.NopLogger()
	}

	fields := make([]observability.Field, 0, 4+len(attrs))

	evtID := attrs["event_id"]
	if evtID == "" {
		evtID = uuid.NewString()
	}
	fields = append(fields, observability.F("event_id", evtID))

	if traceID.IsValid() {
		fields = append(fields, observability.F("trace_id", traceID.String()))
	}
	if spanID.IsValid() {
		fields = append(fields, observability.F("span_id", spanID.String()))
	}

	for k, v := range attrs {
		if k == "event_id" || v == "" {
			continue
		}
		fields = append(fields, observability.F(k, v))
	}

	return logctx.With(ctx, base.With(fields...))
}

// Wrap returns handler middleware that gives every delivery its own event id
// and a logger carrying the trace of the publishing request plus the few
// identifiers needed to follow an audit or low-stock event through the logs.
func Wrap(base observability.Logger) func(domoutbox.Handler) domoutbox.Handler {
	return func(next domoutbox.Handler) domoutbox.Handler {
		return func(ctx context.Context, e domoutbox.Event) error {
			logger := logctx.FromOr(ctx, base)
			sc := trace.SpanContextFromContext(ctx)
			ctx = WithEventContext(ctx, logger, sc.TraceID(), sc.SpanID(), eventAttrs(e))
			return next(ctx, e)
		}
	}
}

func eventAttrs(e domoutbox.Event) map[string]string {
	attrs := map[string]string{"event": e.EventName()}
	switch ev := e.(type) {
	case domaudit.Event:
		attrs["audit_type"] = string(ev.Type)
		attrs["user_id"] = ev.UserID
	case dominv.LowStockDetectedEvent:
		attrs["event_id"] = ev.Alert.ID
		attrs["product_id"] = ev.Alert.ProductID
	}
	return attrs
}
