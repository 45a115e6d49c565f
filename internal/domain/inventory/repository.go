package inventory

import "context"

type AlertRepository interface {
	// InsertIfAbsent stores a unless an alert with the same product id and
	// message exists. It reports whether a was inserted.
	InsertIfAbsent(ctx context.Context, a *Alert) (bool, error)
	// List returns alerts newest first.
	List(ctx context.Context) ([]*Alert, error)
}
