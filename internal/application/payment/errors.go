package payment

import (
	"errors"
	"fmt"

	domorder "github.com/escabi/escabiapi/internal/domain/order"
	dompay "github.com/escabi/escabiapi/internal/domain/payment"
)

var (
	ErrOrderNotPayable    = errors.New("payment: order is not payable")
	ErrForbidden          = errors.New("payment: forbidden")
	ErrValidation         = errors.New("payment: validation failed")
	ErrRepository         = errors.New("payment: repository failure")
	ErrNotFound           = domorder.ErrNotFound
	ErrGatewayUnavailable = dompay.ErrGatewayUnavailable
)

func wrapRepositoryError(err error) error {
	if errors.Is(err, domorder.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %w", ErrRepository, err)
}

// wrapGatewayError keeps rejections distinct and folds everything else into
// ErrGatewayUnavailable.
func wrapGatewayError(err error) error {
	if errors.Is(err, dompay.ErrGatewayRejected) || errors.Is(err, dompay.ErrGatewayUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", dompay.ErrGatewayUnavailable, err)
}
