package order

import (
	"errors"
	"fmt"

	domain "github.com/escabi/escabiapi/internal/domain/order"
	domuser "github.com/escabi/escabiapi/internal/domain/user"
)

var (
	ErrCartEmpty         = errors.New("order: cart is empty")
	ErrForbidden         = errors.New("order: forbidden")
	ErrValidation        = errors.New("order: validation failed")
	ErrRepository        = errors.New("order: repository failure")
	ErrAgeNotVerified    = domuser.ErrAgeNotVerified
	ErrNotFound          = domain.ErrNotFound
	ErrConflict          = domain.ErrConflict
	ErrInvalidTransition = domain.ErrInvalidTransition
)

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrStatusConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
}

func newValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
