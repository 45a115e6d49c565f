package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/escabi/escabiapi/internal/application"
	appinv "github.com/escabi/escabiapi/internal/application/inventory"
	"github.com/escabi/escabiapi/internal/domain/catalog"
	dominv "github.com/escabi/escabiapi/internal/domain/inventory"
	domoutbox "github.com/escabi/escabiapi/internal/domain/outbox"
	"github.com/escabi/escabiapi/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NewID() string { return fmt.Sprintf("alert-%d", s.n.Add(1)) }

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

type fixture struct {
	products  *memory.ProductRepository
	alerts    *memory.AlertRepository
	publisher *capturePublisher
	monitor   *appinv.Monitor
	service   *appinv.StockService
}

func newFixture(t *testing.T, stock int) *fixture {
	t.Helper()
	f := &fixture{
		products:  memory.NewProductRepository(),
		alerts:    memory.NewAlertRepository(),
		publisher: &capturePublisher{},
	}
	f.monitor = appinv.NewMonitor(f.products, f.alerts, f.publisher, &seqIDs{}, 10, nil)
	f.service = appinv.NewStockService(f.products, f.alerts, f.monitor, application.NewInstrumentation(nil, "test"))
	require.NoError(t, f.products.Insert(context.Background(), &catalog.Product{ID: "p1", Name: "Fernet", Price: 100, Stock: stock}))
	return f
}

func TestSetStockBelowThresholdRaisesOneAlert(t *testing.T) {
	f := newFixture(t, 11)
	ctx := context.Background()

	p, err := f.service.SetStock(ctx, "p1", 9)
	require.NoError(t, err)
	assert.Equal(t, 9, p.Stock)

	alerts, err := f.service.ListAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "low stock for product 'Fernet' (9)", alerts[0].Message)
	assert.Equal(t, 9, alerts[0].CurrentStock)
	assert.Equal(t, 10, alerts[0].Threshold)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, dominv.LowStockDetectedEventName, f.publisher.events[0].EventName())

	_, err = f.service.SetStock(ctx, "p1", 9)
	require.NoError(t, err)
	alerts, err = f.service.ListAlerts(ctx)
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
	assert.Len(t, f.publisher.events, 1)

	_, err = f.service.SetStock(ctx, "p1", 8)
	require.NoError(t, err)
	alerts, err = f.service.ListAlerts(ctx)
	require.NoError(t, err)
	assert.Len(t, alerts, 2)
}

func TestStockAboveThresholdRaisesNothing(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	p, err := f.service.AddStock(ctx, "p1", 20)
	require.NoError(t, err)
	assert.Equal(t, 25, p.Stock)

	alerts, err := f.service.ListAlerts(ctx)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestThresholdIsInclusive(t *testing.T) {
	f := newFixture(t, 10)
	a, err := f.monitor.Check(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "p1", a.ProductID)
}

func TestZeroThresholdIsKept(t *testing.T) {
	products := memory.NewProductRepository()
	alerts := memory.NewAlertRepository()
	ctx := context.Background()
	require.NoError(t, products.Insert(ctx, &catalog.Product{ID: "p1", Name: "Fernet", Price: 100, Stock: 7}))
	monitor := appinv.NewMonitor(products, alerts, nil, &seqIDs{}, 0, nil)

	a, err := monitor.Check(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, a)

	require.NoError(t, products.SetStock(ctx, "p1", 0))
	a, err = monitor.Check(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, 0, a.Threshold)
}

func TestNegativeThresholdFallsBackToDefault(t *testing.T) {
	products := memory.NewProductRepository()
	ctx := context.Background()
	require.NoError(t, products.Insert(ctx, &catalog.Product{ID: "p1", Name: "Fernet", Price: 100, Stock: 7}))
	monitor := appinv.NewMonitor(products, memory.NewAlertRepository(), nil, &seqIDs{}, -1, nil)

	a, err := monitor.Check(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, dominv.DefaultLowStockThreshold, a.Threshold)
}

func TestStockServiceValidation(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	_, err := f.service.SetStock(ctx, "p1", -1)
	assert.ErrorIs(t, err, appinv.ErrValidation)
	_, err = f.service.AddStock(ctx, "p1", 0)
	assert.ErrorIs(t, err, appinv.ErrValidation)
	_, err = f.service.SetStock(ctx, "missing", 3)
	assert.ErrorIs(t, err, appinv.ErrNotFound)
	_, err = f.service.AddStock(ctx, "missing", 3)
	assert.ErrorIs(t, err, appinv.ErrNotFound)
}

func TestMonitorSwallowsLookupFailure(t *testing.T) {
	f := newFixture(t, 5)
	assert.NotPanics(t, func() { f.monitor.OnStockChanged(context.Background(), "missing") })
}

type fakeNotifier struct {
	got []dominv.Alert
	err error
}

func (n *fakeNotifier) Notify(_ context.Context, a dominv.Alert) error {
	n.got = append(n.got, a)
	return n.err
}

type fakeSubscriber struct {
	handlers map[string]domoutbox.Handler
}

func (s *fakeSubscriber) Subscribe(name string, h domoutbox.Handler) {
	s.handlers[name] = h
}

func TestWorkerDeliversLowStockEvents(t *testing.T) {
	sub := &fakeSubscriber{handlers: map[string]domoutbox.Handler{}}
	notifier := &fakeNotifier{}
	w := appinv.NewWorker(sub, notifier, nil, nil)
	w.Start()

	h, ok := sub.handlers[dominv.LowStockDetectedEventName]
	require.True(t, ok)

	alert := dominv.NewAlert("a1", "p1", "Fernet", 2, 10)
	require.NoError(t, h(context.Background(), dominv.LowStockDetectedEvent{Alert: *alert}))
	require.Len(t, notifier.got, 1)
	assert.Equal(t, "a1", notifier.got[0].ID)

	notifier.err = errors.New("smtp down")
	assert.Error(t, w.Handle(context.Background(), dominv.LowStockDetectedEvent{Alert: *alert}))
}
