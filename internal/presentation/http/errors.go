package httppresentation

import (
	"errors"
	"net/http"

	appauth "github.com/escabi/escabiapi/internal/application/auth"
	appcart "github.com/escabi/escabiapi/internal/application/cart"
	appcatalog "github.com/escabi/escabiapi/internal/application/catalog"
	appinv "github.com/escabi/escabiapi/internal/application/inventory"
	apporder "github.com/escabi/escabiapi/internal/application/order"
	apppay "github.com/escabi/escabiapi/internal/application/payment"
	domcart "github.com/escabi/escabiapi/internal/domain/cart"
	domcatalog "github.com/escabi/escabiapi/internal/domain/catalog"
	domorder "github.com/escabi/escabiapi/internal/domain/order"
	domuser "github.com/escabi/escabiapi/internal/domain/user"
	"github.com/escabi/escabiapi/internal/observability"
	"github.com/escabi/escabiapi/internal/observability/logctx"

	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Error string `json:"error"`
}

type stockErrorBody struct {
	Error     string `json:"error"`
	ProductID string `json:"product_id"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

func abortError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorBody{Error: msg})
}

// statusFor maps error categories onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, appauth.ErrValidation),
		errors.Is(err, appcart.ErrValidation),
		errors.Is(err, appcatalog.ErrValidation),
		errors.Is(err, apporder.ErrValidation),
		errors.Is(err, apppay.ErrValidation),
		errors.Is(err, appinv.ErrValidation),
		errors.Is(err, apporder.ErrCartEmpty),
		errors.Is(err, domuser.ErrInvalidUser),
		errors.Is(err, domuser.ErrMissingBirthDate),
		errors.Is(err, domcatalog.ErrInvalidProduct),
		errors.Is(err, domcatalog.ErrInvalidQuantity),
		errors.Is(err, domcatalog.ErrNegativeStock),
		errors.Is(err, domcart.ErrInvalidQuantity),
		errors.Is(err, domorder.ErrInvalidStatus),
		errors.Is(err, domorder.ErrInvalidAddress):
		return http.StatusBadRequest

	case errors.Is(err, appauth.ErrUnauthenticated),
		errors.Is(err, domuser.ErrInvalidCredential):
		return http.StatusUnauthorized

	case errors.Is(err, domuser.ErrForbidden),
		errors.Is(err, domuser.ErrAgeNotVerified),
		errors.Is(err, domuser.ErrUnderage),
		errors.Is(err, apporder.ErrForbidden),
		errors.Is(err, apppay.ErrForbidden),
		errors.Is(err, appcatalog.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, domorder.ErrNotFound),
		errors.Is(err, domcatalog.ErrNotFound),
		errors.Is(err, domcart.ErrItemNotFound),
		errors.Is(err, domuser.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domuser.ErrDuplicate),
		errors.Is(err, domcatalog.ErrInsufficientStock),
		errors.Is(err, domorder.ErrConflict),
		errors.Is(err, domorder.ErrStatusConflict),
		errors.Is(err, domorder.ErrInvalidTransition),
		errors.Is(err, apppay.ErrOrderNotPayable):
		return http.StatusConflict

	case errors.Is(err, appauth.ErrRateLimited):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// writeDomainError is the single place where errors become responses.
// Internal failures are logged and answered with a generic message.
func writeDomainError(c *gin.Context, err error) {
	status := statusFor(err)

	var short *domcatalog.InsufficientStockError
	if status == http.StatusConflict && errors.As(err, &short) {
		c.AbortWithStatusJSON(status, stockErrorBody{
			Error:     err.Error(),
			ProductID: short.ProductID,
			Available: short.Available,
			Requested: short.Requested,
		})
		return
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		logctx.FromOr(c.Request.Context(), observability.NopLogger()).Error("http_internal_error",
			observability.F("route", routeOf(c)),
			observability.F("error", err.Error()),
		)
		msg = "internal server error"
		if errors.Is(err, apppay.ErrGatewayUnavailable) {
			msg = "payment gateway unavailable"
		}
	}
	if status == http.StatusTooManyRequests {
		c.Header("Retry-After", "60")
	}
	c.AbortWithStatusJSON(status, errorBody{Error: msg})
}
