package outbox

import (
	"context"
	"sync"
	"testing"
	"time"

	domoutbox "github.com/escabi/escabiapi/internal/domain/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

type pingEvent struct{ n int }

func (pingEvent) EventName() string { return "test.ping" }

func TestBusDeliversAndDrainsOnStop(t *testing.T) {
	bus := NewBus(nil, Options{})
	var mu sync.Mutex
	var got []int
	bus.Subscribe("test.ping", func(_ context.Context, e domoutbox.Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.(pingEvent).n)
		return nil
	})
	bus.Start(context.Background())

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(context.Background(), pingEvent{n: i}))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	bus.Stop(ctx)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, got, 10)

	assert.ErrorIs(t, bus.Publish(context.Background(), pingEvent{}), ErrClosed)
}

func TestBusPropagatesSpanContext(t *testing.T) {
	bus := NewBus(nil, Options{})
	seen := make(chan trace.SpanContext, 1)
	bus.Subscribe("test.ping", func(ctx context.Context, _ domoutbox.Event) error {
		seen <- trace.SpanContextFromContext(ctx)
		return nil
	})
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	require.NoError(t, bus.Publish(ctx, pingEvent{}))

	select {
	case got := <-seen:
		assert.Equal(t, sc.TraceID(), got.TraceID())
	case <-time.After(2 * time.Second):
		t.Fatal("handler not invoked")
	}
}

func TestBusSurvivesHandlerPanic(t *testing.T) {
	bus := NewBus(nil, Options{})
	called := make(chan struct{}, 1)
	bus.Subscribe("test.ping", func(context.Context, domoutbox.Event) error { panic("boom") })
	bus.Subscribe("test.ping", func(context.Context, domoutbox.Event) error {
		called <- struct{}{}
		return nil
	})
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	require.NoError(t, bus.Publish(context.Background(), pingEvent{}))
	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("second handler not invoked")
	}
}
