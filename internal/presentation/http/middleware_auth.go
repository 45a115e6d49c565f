package httppresentation

import (
	"net/http"
	"strings"

	domuser "github.com/escabi/escabiapi/internal/domain/user"
	"github.com/escabi/escabiapi/internal/observability"
	"github.com/escabi/escabiapi/internal/observability/logctx"

	"github.com/gin-gonic/gin"
)

// TokenVerifier turns a bearer token into the caller identity.
type TokenVerifier interface {
	Verify(token string) (domuser.Identity, error)
}

const identityKey = "escabi.identity"

func identityFrom(c *gin.Context) (domuser.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return domuser.Identity{}, false
	}
	id, ok := v.(domuser.Identity)
	return id, ok
}

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireAuth rejects requests without a valid bearer token.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			c.Header("WWW-Authenticate", "Bearer")
			abortError(c, http.StatusUnauthorized, "not authenticated")
			return
		}
		id, err := h.tokens.Verify(token)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			abortError(c, http.StatusUnauthorized, "could not validate credentials")
			return
		}
		c.Set(identityKey, id)
		c.Request = c.Request.WithContext(logctx.Enrich(c.Request.Context(), observability.F("user_id", id.UserID)))
		c.Next()
	}
}

func (h *Handler) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identityFrom(c)
		if !ok || !id.IsAdmin() {
			abortError(c, http.StatusForbidden, "admin role required")
			return
		}
		c.Next()
	}
}

func (h *Handler) requireAgeVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identityFrom(c)
		if !ok || !id.AgeVerified {
			abortError(c, http.StatusForbidden, "age verification required")
			return
		}
		c.Next()
	}
}
