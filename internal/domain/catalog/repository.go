package catalog

import "context"

// Repository is the product store. Stock writes must be atomic at the store level.
type Repository interface {
	Insert(ctx context.Context, p *Product) error
	Get(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, category Category) ([]*Product, error)
	UpdatePrice(ctx context.Context, id string, price int64) error

	// AdjustStock adds delta (which may be negative) and returns the new stock.
	// A delta that would drive stock below zero fails with ErrInsufficientStock.
	AdjustStock(ctx context.Context, id string, delta int) (int, error)
	// DecrementIfAvailable subtracts qty only when stock >= qty.
	DecrementIfAvailable(ctx context.Context, id string, qty int) (int, error)
	// SetStock overwrites the counter. Racy against concurrent increments.
	SetStock(ctx context.Context, id string, value int) error
}
