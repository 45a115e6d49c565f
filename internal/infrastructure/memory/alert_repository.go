package memory

import (
	"context"
	"sort"
	"sync"

	domain "github.com/escabi/escabiapi/internal/domain/inventory"
)

type AlertRepository struct {
	mu     sync.RWMutex
	alerts []*domain.Alert
}

func NewAlertRepository() *AlertRepository {
	return &AlertRepository{}
}

func (r *AlertRepository) InsertIfAbsent(ctx context.Context, a *domain.Alert) (bool, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.alerts {
		if existing.ProductID == a.ProductID && existing.Message == a.Message {
			return false, nil
		}
	}
	clone := *a
	r.alerts = append(r.alerts, &clone)
	return true, nil
}

func (r *AlertRepository) List(ctx context.Context) ([]*domain.Alert, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Alert, 0, len(r.alerts))
	for _, a := range r.alerts {
		clone := *a
		out = append(out, &clone)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}
