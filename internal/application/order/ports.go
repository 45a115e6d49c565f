package order

import "context"

type IDGenerator interface {
	NewID() string
}

// StockObserver is told about every committed stock write. Implementations
// must not fail the caller; errors are theirs to log.
type StockObserver interface {
	OnStockChanged(ctx context.Context, productID string)
}

type nopObserver struct{}

func (nopObserver) OnStockChanged(context.Context, string) {}
