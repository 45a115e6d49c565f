package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domain "github.com/escabi/escabiapi/internal/domain/order"
)

type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]*domain.Order)}
}

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	_ = ctx
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[o.ID]; exists {
		return domain.ErrConflict
	}
	r.orders[o.ID] = o.Clone()
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o.Clone(), nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, c domain.StatusChange) (*domain.Order, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := o.Apply(c); err != nil {
		return nil, err
	}
	return o.Clone(), nil
}

func (r *OrderRepository) SetPreference(ctx context.Context, id, preferenceID string, at time.Time) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.PreferenceID = preferenceID
	o.UpdatedAt = at
	return nil
}

// IntentRepository journals in-flight order creations.
type IntentRepository struct {
	mu      sync.Mutex
	intents map[string]*domain.Intent
}

func NewIntentRepository() *IntentRepository {
	return &IntentRepository{intents: make(map[string]*domain.Intent)}
}

func (r *IntentRepository) Open(ctx context.Context, i *domain.Intent) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.intents[i.OrderID]; exists {
		return domain.ErrConflict
	}
	r.intents[i.OrderID] = i.Clone()
	return nil
}

func (r *IntentRepository) AddReservation(ctx context.Context, orderID string, res domain.Reservation) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.intents[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	i.Reserved = append(i.Reserved, res)
	i.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *IntentRepository) Close(ctx context.Context, orderID string, state domain.IntentState) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.intents[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	i.State = state
	i.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *IntentRepository) ListOpen(ctx context.Context, createdBefore time.Time) ([]*domain.Intent, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Intent
	for _, i := range r.intents {
		if i.State == domain.IntentOpen && i.CreatedAt.Before(createdBefore) {
			out = append(out, i.Clone())
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	return out, nil
}

// Get is used by tests and reconciliation diagnostics.
func (r *IntentRepository) Get(orderID string) (*domain.Intent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.intents[orderID]
	return i.Clone(), ok
}
