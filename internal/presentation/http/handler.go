// Package httppresentation exposes the application services over HTTP with gin.
package httppresentation

import (
	"net/http"
	"time"

	appauth "github.com/escabi/escabiapi/internal/application/auth"
	appcart "github.com/escabi/escabiapi/internal/application/cart"
	appcatalog "github.com/escabi/escabiapi/internal/application/catalog"
	appinv "github.com/escabi/escabiapi/internal/application/inventory"
	apporder "github.com/escabi/escabiapi/internal/application/order"
	apppay "github.com/escabi/escabiapi/internal/application/payment"
	domuser "github.com/escabi/escabiapi/internal/domain/user"
	"github.com/escabi/escabiapi/internal/observability"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const componentHTTPHandler = "http_server"

// Services are the use cases reachable over HTTP. Webhook handlers are
// optional; a nil handler leaves its route unregistered.
type Services struct {
	Auth               *appauth.Service
	Catalog            *appcatalog.Service
	Cart               *appcart.Service
	CreateOrder        *apporder.CreateOrderUseCase
	TransitionStatus   *apporder.TransitionStatusUseCase
	Orders             *apporder.QueryService
	PaymentIntent      *apppay.CreatePaymentIntentUseCase
	MercadoPagoWebhook *apppay.HandleWebhookUseCase
	StripeWebhook      *apppay.HandleWebhookUseCase
	Stock              *appinv.StockService
}

type Options struct {
	CORSOrigins []string
	// ValidID checks path identifiers before they reach the store.
	ValidID func(string) bool
	// Metrics serves the scrape endpoint; nil disables /metrics.
	Metrics http.Handler
	// MaxWebhookBody caps callback payloads.
	MaxWebhookBody int64
}

type Handler struct {
	svc    Services
	tokens TokenVerifier
	opts   Options
	log    observability.Logger

	httpRequests observability.Counter   // http_requests_total{method,route,status}
	httpDuration observability.Histogram // http_request_duration_seconds{method,route}
}

func NewHandler(svc Services, tokens TokenVerifier, opts Options, tel observability.Observability) *Handler {
	tel = observability.Or(tel)
	if opts.ValidID == nil {
		opts.ValidID = func(s string) bool { return s != "" }
	}
	if opts.MaxWebhookBody <= 0 {
		opts.MaxWebhookBody = 1 << 20
	}
	m := tel.Metrics()
	return &Handler{
		svc:          svc,
		tokens:       tokens,
		opts:         opts,
		log:          tel.Logger().With(observability.F("component", componentHTTPHandler)),
		httpRequests: m.Counter(observability.MHTTPRequests),
		httpDuration: m.Histogram(observability.MHTTPRequestDuration),
	}
}

// Router wires every route behind
// Recovery → Trace → Request context → Metrics → Access log → CORS.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(
		h.withRecovery(),
		h.withTrace(),
		h.withRequestContext(),
		h.withHTTPMetrics(),
		h.withAccessLog(),
		h.cors(),
	)
	r.NoRoute(func(c *gin.Context) { abortError(c, http.StatusNotFound, "not found") })

	authed := h.requireAuth()
	admin := h.requireAdmin()
	verified := h.requireAgeVerified()

	r.GET("/health", h.handleHealth)
	if h.opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.opts.Metrics))
	}

	a := r.Group("/auth")
	a.POST("/register", h.handleRegister)
	a.POST("/token", h.handleLogin)
	a.GET("/me", authed, h.handleMe)

	age := r.Group("/age-verification")
	age.GET("/minimum-age", h.handleMinimumAge)
	age.POST("/verify-age", authed, h.handleVerifyAge)

	p := r.Group("/products")
	p.GET("", h.handleListProducts)
	p.GET("/:id", h.handleGetProduct)
	p.POST("", authed, admin, h.handleCreateProduct)

	c := r.Group("/cart", authed, verified)
	c.GET("", h.handleGetCart)
	c.POST("/add", h.handleAddToCart)
	c.PUT("/update", h.handleUpdateCart)
	c.DELETE("/remove/:product_id", h.handleRemoveFromCart)
	c.DELETE("/clear", h.handleClearCart)

	o := r.Group("/orders", authed)
	o.POST("", verified, h.handleCreateOrder)
	o.GET("/me", h.handleListMyOrders)
	o.GET("/:id", h.handleGetOrder)
	o.PUT("/admin/:id/status", admin, h.handleTransitionStatus)

	pay := r.Group("/payments")
	pay.POST("/create-preference/:order_id", authed, h.handleCreatePreference)
	if h.svc.MercadoPagoWebhook != nil {
		pay.POST("/webhook", h.handleWebhook(h.svc.MercadoPagoWebhook))
	}
	if h.svc.StripeWebhook != nil {
		pay.POST("/webhook/stripe", h.handleWebhook(h.svc.StripeWebhook))
	}

	inv := r.Group("/inventory", authed, admin)
	inv.PUT("/:product_id/stock", h.handleSetStock)
	inv.PUT("/:product_id/stock/add", h.handleAddStock)
	inv.GET("/alerts", h.handleListAlerts)

	return r
}

func (h *Handler) cors() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", headerRequestID},
		ExposeHeaders: []string{headerRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(h.opts.CORSOrigins) == 0 || (len(h.opts.CORSOrigins) == 1 && h.opts.CORSOrigins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = h.opts.CORSOrigins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// pathID reads a path parameter and rejects malformed identifiers with 400.
func (h *Handler) pathID(c *gin.Context, name string) (string, bool) {
	v := c.Param(name)
	if !h.opts.ValidID(v) {
		abortError(c, http.StatusBadRequest, "invalid "+name)
		return "", false
	}
	return v, true
}

// caller returns the identity set by requireAuth.
func caller(c *gin.Context) domuser.Identity {
	id, _ := identityFrom(c)
	return id
}
