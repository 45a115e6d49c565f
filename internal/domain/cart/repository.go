package cart

import "context"

type Repository interface {
	// GetOrCreate returns the user's cart, creating an empty one on first access.
	GetOrCreate(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	// Clear empties the cart without deleting it.
	Clear(ctx context.Context, userID string) error
}
