package httppresentation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	appauth "github.com/escabi/escabiapi/internal/application/auth"
	apporder "github.com/escabi/escabiapi/internal/application/order"
	apppay "github.com/escabi/escabiapi/internal/application/payment"
	domcatalog "github.com/escabi/escabiapi/internal/domain/catalog"
	domorder "github.com/escabi/escabiapi/internal/domain/order"
	dompay "github.com/escabi/escabiapi/internal/domain/payment"
	domuser "github.com/escabi/escabiapi/internal/domain/user"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apporder.ErrCartEmpty, http.StatusBadRequest},
		{fmt.Errorf("%w: bad", apporder.ErrValidation), http.StatusBadRequest},
		{domuser.ErrMissingBirthDate, http.StatusBadRequest},
		{domorder.ErrInvalidStatus, http.StatusBadRequest},
		{domuser.ErrInvalidCredential, http.StatusUnauthorized},
		{appauth.ErrUnauthenticated, http.StatusUnauthorized},
		{domuser.ErrUnderage, http.StatusForbidden},
		{domuser.ErrAgeNotVerified, http.StatusForbidden},
		{apporder.ErrForbidden, http.StatusForbidden},
		{&domcatalog.NotFoundError{ProductID: "p"}, http.StatusNotFound},
		{domorder.ErrNotFound, http.StatusNotFound},
		{&domcatalog.InsufficientStockError{ProductID: "p"}, http.StatusConflict},
		{domuser.ErrDuplicate, http.StatusConflict},
		{domorder.ErrInvalidTransition, http.StatusConflict},
		{apppay.ErrOrderNotPayable, http.StatusConflict},
		{appauth.ErrRateLimited, http.StatusTooManyRequests},
		{dompay.ErrGatewayUnavailable, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			assert.Equal(t, tc.want, statusFor(tc.err))
		})
	}
}

func TestWriteDomainErrorBodies(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	writeDomainError(c, &domcatalog.InsufficientStockError{ProductID: "p1", Available: 1, Requested: 2})
	require.Equal(t, http.StatusConflict, w.Code)
	var stock map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stock))
	assert.Equal(t, "p1", stock["product_id"])
	assert.EqualValues(t, 1, stock["available"])
	assert.EqualValues(t, 2, stock["requested"])

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	writeDomainError(c, errors.New("mongo: connection reset"))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "mongo")

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	writeDomainError(c, appauth.ErrRateLimited)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}
