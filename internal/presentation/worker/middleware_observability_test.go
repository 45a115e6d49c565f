package workerpresentation

import (
	"context"
	"testing"

	domaudit "github.com/escabi/escabiapi/internal/domain/audit"
	dominv "github.com/escabi/escabiapi/internal/domain/inventory"
	domoutbox "github.com/escabi/escabiapi/internal/domain/outbox"
	"github.com/escabi/escabiapi/internal/observability"
	"github.com/escabi/escabiapi/internal/observability/logctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

type recordingLogger struct {
	fields []observability.Field
}

func (l *recordingLogger) With(fields ...observability.Field) observability.Logger {
	return &recordingLogger{fields: append(append([]observability.Field{}, l.fields...), fields...)}
}
func (l *recordingLogger) Debug(string, ...observability.Field) {}
func (l *recordingLogger) Info(string, ...observability.Field)  {}
func (l *recordingLogger) Warn(string, ...observability.Field)  {}
func (l *recordingLogger) Error(string, ...observability.Field) {}

func (l *recordingLogger) field(key string) (any, bool) {
	for _, f := range l.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

type evt struct{}

func (evt) EventName() string { return "test.evt" }

func TestWrapAddsEventFields(t *testing.T) {
	base := &recordingLogger{}
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: trace.TraceID{9}, SpanID: trace.SpanID{8}})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	var got *recordingLogger
	h := Wrap(base)(func(ctx context.Context, _ domoutbox.Event) error {
		got = logctx.From(ctx).(*recordingLogger)
		return nil
	})
	require.NoError(t, h(ctx, evt{}))

	require.NotNil(t, got)
	name, _ := got.field("event")
	assert.Equal(t, "test.evt", name)
	traceID, _ := got.field("trace_id")
	assert.Equal(t, sc.TraceID().String(), traceID)
	id, ok := got.field("event_id")
	assert.True(t, ok)
	assert.NotEmpty(t, id)
}

func TestWithEventContextKeepsGivenEventID(t *testing.T) {
	ctx := WithEventContext(context.Background(), &recordingLogger{}, trace.TraceID{}, trace.SpanID{}, map[string]string{"event_id": "e-1"})
	l := logctx.From(ctx).(*recordingLogger)
	id, _ := l.field("event_id")
	assert.Equal(t, "e-1", id)
	_, hasTrace := l.field("trace_id")
	assert.False(t, hasTrace)
}

func TestWrapTagsDomainEvents(t *testing.T) {
	cases := []struct {
		name  string
		event domoutbox.Event
		want  map[string]string
	}{
		{
			name:  "audit",
			event: domaudit.Event{Type: domaudit.OrderCreated, UserID: "u-1"},
			want:  map[string]string{"event": domaudit.EventName, "audit_type": "ORDER_CREATED", "user_id": "u-1"},
		},
		{
			name:  "low stock",
			event: dominv.LowStockDetectedEvent{Alert: dominv.Alert{ID: "a-1", ProductID: "p-1"}},
			want:  map[string]string{"event": dominv.LowStockDetectedEventName, "event_id": "a-1", "product_id": "p-1"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got *recordingLogger
			h := Wrap(&recordingLogger{})(func(ctx context.Context, _ domoutbox.Event) error {
				got = logctx.From(ctx).(*recordingLogger)
				return nil
			})
			require.NoError(t, h(context.Background(), tc.event))
			for k, v := range tc.want {
				have, _ := got.field(k)
				assert.Equal(t, v, have, k)
			}
		})
	}
}
