package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/escabi/escabiapi/internal/application"
	domcatalog "github.com/escabi/escabiapi/internal/domain/catalog"
	dominv "github.com/escabi/escabiapi/internal/domain/inventory"

	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrValidation = errors.New("inventory: validation failed")
	ErrNotFound   = domcatalog.ErrNotFound
)

// StockService holds the admin stock operations.
type StockService struct {
	products domcatalog.Repository
	alerts   dominv.AlertRepository
	monitor  *Monitor
	in       application.Instrumentation
}

func NewStockService(products domcatalog.Repository, alerts dominv.AlertRepository, monitor *Monitor, in application.Instrumentation) *StockService {
	return &StockService{products: products, alerts: alerts, monitor: monitor, in: in}
}

// SetStock overwrites the stock level and returns the updated product.
func (s *StockService) SetStock(ctx context.Context, productID string, stock int) (_ *domcatalog.Product, err error) {
	ctx, iv := s.in.Begin(ctx, "inventory.set_stock", "SetStock", attribute.String("product.id", productID))
	defer func() { iv.End(ctx, err) }()

	if stock < 0 {
		iv.Fail("STOCK_NEGATIVE")
		return nil, fmt.Errorf("%w: stock must be zero or greater", ErrValidation)
	}
	if err = s.products.SetStock(ctx, productID, stock); err != nil {
		iv.Fail("REPO_UPDATE_FAILED")
		return nil, err
	}
	s.monitor.OnStockChanged(ctx, productID)
	return s.products.Get(ctx, productID)
}

// AddStock replenishes stock by quantity.
func (s *StockService) AddStock(ctx context.Context, productID string, quantity int) (_ *domcatalog.Product, err error) {
	ctx, iv := s.in.Begin(ctx, "inventory.add_stock", "AddStock", attribute.String("product.id", productID))
	defer func() { iv.End(ctx, err) }()

	if quantity <= 0 {
		iv.Fail("QUANTITY_INVALID")
		return nil, fmt.Errorf("%w: quantity must be greater than zero", ErrValidation)
	}
	if _, err = s.products.AdjustStock(ctx, productID, quantity); err != nil {
		iv.Fail("REPO_UPDATE_FAILED")
		return nil, err
	}
	s.monitor.OnStockChanged(ctx, productID)
	return s.products.Get(ctx, productID)
}

// ListAlerts returns every alert, newest first.
func (s *StockService) ListAlerts(ctx context.Context) (_ []*dominv.Alert, err error) {
	ctx, iv := s.in.Begin(ctx, "inventory.list_alerts", "ListAlerts")
	defer func() { iv.End(ctx, err) }()

	out, err := s.alerts.List(ctx)
	if err != nil {
		iv.Fail("REPO_LIST_FAILED")
		return nil, err
	}
	iv.Field("count", len(out))
	return out, nil
}
