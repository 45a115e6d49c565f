package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domain "github.com/escabi/escabiapi/internal/domain/catalog"
)

// ProductRepository keeps products in a map. Every stock primitive runs under
// the write lock, which makes it the in-process equivalent of a store-level
// atomic update.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[string]*domain.Product)}
}

func (r *ProductRepository) Insert(ctx context.Context, p *domain.Product) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return fmt.Errorf("product repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[p.ID]; exists {
		return fmt.Errorf("product repository: duplicate id %s", p.ID)
	}
	r.products[p.ID] = p.Clone()
	return nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, &domain.NotFoundError{ProductID: id}
	}
	return p.Clone(), nil
}

func (r *ProductRepository) List(ctx context.Context, category domain.Category) ([]*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *ProductRepository) UpdatePrice(ctx context.Context, id string, price int64) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return &domain.NotFoundError{ProductID: id}
	}
	p.Price = price
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return 0, &domain.NotFoundError{ProductID: id}
	}
	if p.Stock+delta < 0 {
		return p.Stock, &domain.InsufficientStockError{ProductID: id, Available: p.Stock, Requested: -delta}
	}
	p.Stock += delta
	p.UpdatedAt = time.Now().UTC()
	return p.Stock, nil
}

func (r *ProductRepository) DecrementIfAvailable(ctx context.Context, id string, qty int) (int, error) {
	if qty <= 0 {
		return 0, domain.ErrInvalidQuantity
	}
	return r.AdjustStock(ctx, id, -qty)
}

func (r *ProductRepository) SetStock(ctx context.Context, id string, value int) error {
	_ = ctx
	if value < 0 {
		return domain.ErrNegativeStock
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return &domain.NotFoundError{ProductID: id}
	}
	p.Stock = value
	p.UpdatedAt = time.Now().UTC()
	return nil
}
