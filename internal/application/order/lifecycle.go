package order

import (
	"context"
	"time"

	domcatalog "github.com/escabi/escabiapi/internal/domain/catalog"
	domain "github.com/escabi/escabiapi/internal/domain/order"
	"github.com/escabi/escabiapi/internal/observability"
	"github.com/escabi/escabiapi/internal/observability/logctx"
)

// Lifecycle applies status changes and the stock side effects they imply.
// It is shared by the admin transition and the payment webhook.
type Lifecycle struct {
	orders   domain.Repository
	products domcatalog.Repository
	observer StockObserver
	log      observability.Logger
	restocks observability.Counter // stock_compensations_total{reason,outcome}
	now      func() time.Time
}

func NewLifecycle(orders domain.Repository, products domcatalog.Repository, observer StockObserver, tel observability.Observability) *Lifecycle {
	tel = observability.Or(tel)
	if observer == nil {
		observer = nopObserver{}
	}
	return &Lifecycle{
		orders:   orders,
		products: products,
		observer: observer,
		log:      tel.Logger().With(observability.F("component", "order_lifecycle")),
		restocks: tel.Metrics().Counter(observability.MStockCompensations),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Advance moves o to the target status with a compare-and-swap on o.Status.
// Entering cancelled or refunded from any other status restocks every item;
// the boolean result reports whether that happened.
func (l *Lifecycle) Advance(ctx context.Context, o *domain.Order, to domain.Status, paymentID string) (*domain.Order, bool, error) {
	prev := o.Status
	updated, err := l.orders.UpdateStatus(ctx, o.ID, domain.StatusChange{
		From:      prev,
		To:        to,
		PaymentID: paymentID,
		At:        l.now(),
	})
	if err != nil {
		return nil, false, err
	}
	if !to.Releasing() || prev.Releasing() {
		return updated, false, nil
	}

	reserved := make([]domain.Reservation, 0, len(updated.Items))
	for _, it := range updated.Items {
		reserved = append(reserved, domain.Reservation{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	l.release(ctx, updated.ID, reserved, "restock")
	return updated, true, nil
}

// release returns quantities to stock one item at a time. Failures are
// logged and skipped, never rolled back. It returns the number of failures.
func (l *Lifecycle) release(ctx context.Context, orderID string, reserved []domain.Reservation, reason string) int {
	logger := logctx.FromOr(ctx, l.log)
	failures := 0
	for _, r := range reserved {
		stock, err := l.products.AdjustStock(ctx, r.ProductID, r.Quantity)
		if err != nil {
			failures++
			l.restocks.Add(1, observability.L("reason", reason), observability.L("outcome", observability.OutcomeError))
			logger.Warn("stock_release_failed",
				observability.F("order_id", orderID),
				observability.F("product_id", r.ProductID),
				observability.F("quantity", r.Quantity),
				observability.F("reason", reason),
				observability.F("error", err.Error()),
			)
			continue
		}
		l.restocks.Add(1, observability.L("reason", reason), observability.L("outcome", observability.OutcomeSuccess))
		logger.Debug("stock_released",
			observability.F("order_id", orderID),
			observability.F("product_id", r.ProductID),
			observability.F("quantity", r.Quantity),
			observability.F("stock", stock),
		)
		l.observer.OnStockChanged(ctx, r.ProductID)
	}
	return failures
}
