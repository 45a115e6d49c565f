package httppresentation

import (
	"net/http"
	"strings"
	"time"

	appauth "github.com/escabi/escabiapi/internal/application/auth"
	domuser "github.com/escabi/escabiapi/internal/domain/user"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	BirthDate string `json:"birth_date"`
}

func (h *Handler) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, err.Error())
		return
	}
	params := domuser.NewUserParams{Username: req.Username, Email: req.Email, Password: req.Password}
	if req.BirthDate != "" {
		b, err := time.Parse(dateLayout, req.BirthDate)
		if err != nil {
			abortError(c, http.StatusBadRequest, "birth_date must be YYYY-MM-DD")
			return
		}
		params.BirthDate = &b
	}

	u, err := h.svc.Auth.Register(c.Request.Context(), params)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(u))
}

// loginRequest accepts the OAuth2 password form as well as JSON.
type loginRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

func (h *Handler) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		abortError(c, http.StatusBadRequest, err.Error())
		return
	}
	tok, err := h.svc.Auth.Login(c.Request.Context(), appauth.LoginInput{
		Login:    strings.TrimSpace(req.Username),
		Password: req.Password,
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		if statusFor(err) == http.StatusUnauthorized {
			c.Header("WWW-Authenticate", "Bearer")
			abortError(c, http.StatusUnauthorized, "incorrect username or password")
			return
		}
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTokenResponse(tok))
}

func (h *Handler) handleMe(c *gin.Context) {
	u, err := h.svc.Auth.Me(c.Request.Context(), caller(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

func (h *Handler) handleMinimumAge(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"minimum_age": h.svc.Auth.MinimumAge()})
}

type verifyAgeResponse struct {
	User  userResponse  `json:"user"`
	Age   int           `json:"age"`
	Token tokenResponse `json:"token"`
}

func (h *Handler) handleVerifyAge(c *gin.Context) {
	res, err := h.svc.Auth.VerifyAge(c.Request.Context(), caller(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, verifyAgeResponse{
		User:  toUserResponse(res.User),
		Age:   res.Age,
		Token: toTokenResponse(res.Token),
	})
}
