package audit_test

import (
	"context"
	"sync"
	"testing"

	"github.com/escabi/escabiapi/internal/application/audit"
	domaudit "github.com/escabi/escabiapi/internal/domain/audit"
	domoutbox "github.com/escabi/escabiapi/internal/domain/outbox"
	"github.com/escabi/escabiapi/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
}

func (p *capturePublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

type entry struct {
	msg    string
	fields map[string]any
}

type captureLogger struct {
	mu      *sync.Mutex
	entries *[]entry
}

func newCaptureLogger() captureLogger {
	return captureLogger{mu: &sync.Mutex{}, entries: &[]entry{}}
}

func (l captureLogger) With(...observability.Field) observability.Logger { return l }
func (l captureLogger) Debug(string, ...observability.Field)            {}
func (l captureLogger) Warn(string, ...observability.Field)             {}
func (l captureLogger) Error(string, ...observability.Field)            {}
func (l captureLogger) Info(msg string, fields ...observability.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m := map[string]any{}
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	*l.entries = append(*l.entries, entry{msg: msg, fields: m})
}

func TestRecorderStampsRequest(t *testing.T) {
	pub := &capturePublisher{}
	rec := audit.NewRecorder(pub, nil)

	ctx := domaudit.WithRequest(context.Background(), domaudit.Request{ClientIP: "10.0.0.1", Method: "POST", Path: "/auth/token"})
	rec.Record(ctx, domaudit.UserLoginFailed, "", map[string]any{"login": "bob"})

	require.Len(t, pub.events, 1)
	evt, ok := pub.events[0].(domaudit.Event)
	require.True(t, ok)
	assert.Equal(t, domaudit.UserLoginFailed, evt.Type)
	assert.Equal(t, "10.0.0.1", evt.ClientIP)
	assert.Equal(t, "/auth/token", evt.Path)
	assert.False(t, evt.Timestamp.IsZero())
}

func TestWorkerWritesAuditLine(t *testing.T) {
	sink := newCaptureLogger()
	w := audit.NewWorker(nil, sink, nil, nil)

	evt := domaudit.New(context.Background(), domaudit.OrderCreated, "u1", map[string]any{"order_id": "o1"})
	require.NoError(t, w.Handle(context.Background(), evt))

	require.Len(t, *sink.entries, 1)
	got := (*sink.entries)[0]
	assert.Equal(t, "audit_event", got.msg)
	assert.Equal(t, "ORDER_CREATED", got.fields["event_type"])
	assert.Equal(t, "u1", got.fields["user_id"])
}
