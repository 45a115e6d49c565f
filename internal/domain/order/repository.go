package order

import (
	"context"
	"time"
)

type Repository interface {
	Insert(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	// UpdateStatus applies c only if the stored status equals c.From,
	// otherwise it fails with ErrStatusConflict.
	UpdateStatus(ctx context.Context, id string, c StatusChange) (*Order, error)
	SetPreference(ctx context.Context, id, preferenceID string, at time.Time) error
}

type IntentRepository interface {
	Open(ctx context.Context, i *Intent) error
	AddReservation(ctx context.Context, orderID string, r Reservation) error
	Close(ctx context.Context, orderID string, state IntentState) error
	// ListOpen returns open intents created before the cutoff.
	ListOpen(ctx context.Context, createdBefore time.Time) ([]*Intent, error)
}
