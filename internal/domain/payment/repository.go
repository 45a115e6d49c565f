package payment

import "context"

// Repository stores raw payment payloads. Inserts only.
type Repository interface {
	Insert(ctx context.Context, r *Record) error
	ListByPayment(ctx context.Context, paymentID string) ([]*Record, error)
}
