package memory

import (
	"context"
	"sync"

	domain "github.com/escabi/escabiapi/internal/domain/payment"
)

type PaymentRepository struct {
	mu      sync.RWMutex
	records []*domain.Record
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{}
}

func (r *PaymentRepository) Insert(ctx context.Context, rec *domain.Record) error {
	_ = ctx
	if rec == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *rec
	clone.Raw = append([]byte(nil), rec.Raw...)
	r.records = append(r.records, &clone)
	return nil
}

func (r *PaymentRepository) ListByPayment(ctx context.Context, paymentID string) ([]*domain.Record, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Record
	for _, rec := range r.records {
		if rec.PaymentID == paymentID {
			clone := *rec
			out = append(out, &clone)
		}
	}
	return out, nil
}
