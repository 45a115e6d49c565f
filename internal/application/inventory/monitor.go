package inventory

import (
	"context"
	"time"

	"github.com/escabi/escabiapi/internal/application"
	domcatalog "github.com/escabi/escabiapi/internal/domain/catalog"
	dominv "github.com/escabi/escabiapi/internal/domain/inventory"
	domoutbox "github.com/escabi/escabiapi/internal/domain/outbox"
	"github.com/escabi/escabiapi/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	inventoryService  = "inventory-service"
	useCaseStockCheck = "inventory.check_stock"
	publishPeer       = "outbox"
	endpointLowStock  = dominv.LowStockDetectedEventName
	publishTimeout    = 300 * time.Millisecond
)

type IDGenerator interface {
	NewID() string
}

// Monitor records a low-stock alert whenever a stock write leaves a product
// at or under the threshold. It never reports failure to the writer.
type Monitor struct {
	products  domcatalog.Repository
	alerts    dominv.AlertRepository
	publisher domoutbox.Publisher
	ids       IDGenerator
	threshold int
	in        application.Instrumentation

	alertCounter observability.Counter   // inventory_alerts_total{outcome}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewMonitor(
	products domcatalog.Repository,
	alerts dominv.AlertRepository,
	publisher domoutbox.Publisher,
	ids IDGenerator,
	threshold int,
	tel observability.Observability,
) *Monitor {
	tel = observability.Or(tel)
	if publisher == nil {
		publisher = domoutbox.NopPublisher{}
	}
	if threshold < 0 {
		threshold = dominv.DefaultLowStockThreshold
	}
	m := tel.Metrics()
	return &Monitor{
		products:     products,
		alerts:       alerts,
		publisher:    publisher,
		ids:          ids,
		threshold:    threshold,
		in:           application.NewInstrumentation(tel, inventoryService),
		alertCounter: m.Counter(observability.MInventoryAlerts),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
}

// OnStockChanged satisfies the order engine's stock observer.
func (m *Monitor) OnStockChanged(ctx context.Context, productID string) {
	_, _ = m.Check(ctx, productID)
}

// Check evaluates productID and returns the alert it stored, if any.
func (m *Monitor) Check(ctx context.Context, productID string) (_ *dominv.Alert, err error) {
	ctx, iv := m.in.Begin(ctx, useCaseStockCheck, "CheckStock", attribute.String("product.id", productID))
	defer func() { iv.End(ctx, err) }()
	iv.Field("product_id", productID)

	p, err := m.products.Get(ctx, productID)
	if err != nil {
		iv.Fail("PRODUCT_LOOKUP_FAILED")
		return nil, err
	}
	iv.Field("stock", p.Stock)
	if !dominv.IsLow(p.Stock, m.threshold) {
		iv.Status("STOCK_OK")
		return nil, nil
	}

	alert := dominv.NewAlert(m.ids.NewID(), p.ID, p.Name, p.Stock, m.threshold)
	inserted, err := m.alerts.InsertIfAbsent(ctx, alert)
	if err != nil {
		iv.Fail("ALERT_INSERT_FAILED")
		m.alertCounter.Add(1, observability.L("outcome", observability.OutcomeError))
		return nil, err
	}
	if !inserted {
		iv.Status("ALERT_EXISTS")
		return nil, nil
	}
	m.alertCounter.Add(1, observability.L("outcome", observability.OutcomeSuccess))
	iv.Span().AddEvent("inventory.low_stock_alert")

	if perr := m.publish(ctx, dominv.LowStockDetectedEvent{Alert: *alert}); perr != nil {
		iv.Status("EVENT_PUBLISH_FAILED")
		iv.Field("publish_error", perr.Error())
	}
	return alert, nil
}

func (m *Monitor) publish(ctx context.Context, event domoutbox.Event) error {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	start := time.Now()
	err := m.publisher.Publish(pubCtx, event)
	outcome := observability.OutcomeSuccess
	if err != nil {
		outcome = observability.OutcomeError
	} else if pubCtx.Err() != nil {
		outcome = observability.OutcomeCanceled
		err = pubCtx.Err()
	}
	cancel()

	m.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", endpointLowStock),
		observability.L("outcome", outcome),
	)
	m.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", endpointLowStock),
	)
	return err
}
