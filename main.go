package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/escabi/escabiapi/internal/application"
	appaudit "github.com/escabi/escabiapi/internal/application/audit"
	appauth "github.com/escabi/escabiapi/internal/application/auth"
	appcart "github.com/escabi/escabiapi/internal/application/cart"
	appcatalog "github.com/escabi/escabiapi/internal/application/catalog"
	appinv "github.com/escabi/escabiapi/internal/application/inventory"
	apporder "github.com/escabi/escabiapi/internal/application/order"
	apppay "github.com/escabi/escabiapi/internal/application/payment"
	"github.com/escabi/escabiapi/internal/config"
	domcart "github.com/escabi/escabiapi/internal/domain/cart"
	domcatalog "github.com/escabi/escabiapi/internal/domain/catalog"
	dominv "github.com/escabi/escabiapi/internal/domain/inventory"
	domorder "github.com/escabi/escabiapi/internal/domain/order"
	dompay "github.com/escabi/escabiapi/internal/domain/payment"
	domuser "github.com/escabi/escabiapi/internal/domain/user"
	"github.com/escabi/escabiapi/internal/infrastructure/gateway/mercadopago"
	"github.com/escabi/escabiapi/internal/infrastructure/gateway/stripe"
	"github.com/escabi/escabiapi/internal/infrastructure/id"
	"github.com/escabi/escabiapi/internal/infrastructure/memory"
	mongostore "github.com/escabi/escabiapi/internal/infrastructure/mongo"
	"github.com/escabi/escabiapi/internal/infrastructure/notify"
	infraobs "github.com/escabi/escabiapi/internal/infrastructure/observability"
	"github.com/escabi/escabiapi/internal/infrastructure/observability/oteltrace"
	"github.com/escabi/escabiapi/internal/infrastructure/observability/prometrics"
	"github.com/escabi/escabiapi/internal/infrastructure/observability/zaplogger"
	"github.com/escabi/escabiapi/internal/infrastructure/outbox"
	"github.com/escabi/escabiapi/internal/infrastructure/ratelimit"
	"github.com/escabi/escabiapi/internal/infrastructure/security"
	"github.com/escabi/escabiapi/internal/observability"
	httppresentation "github.com/escabi/escabiapi/internal/presentation/http"
	workerpresentation "github.com/escabi/escabiapi/internal/presentation/worker"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type repositories struct {
	products domcatalog.Repository
	carts    domcart.Repository
	orders   domorder.Repository
	intents  domorder.IntentRepository
	payments dompay.Repository
	alerts   dominv.AlertRepository
	users    domuser.Repository
	close    func(context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config_invalid", zap.Error(err))
	}

	baseLogger, err := zaplogger.New(zaplogger.Options{
		LogFile:     cfg.LogFile,
		Development: !cfg.IsProduction(),
		Fixed: []observability.Field{
			observability.F("service", cfg.ServiceName),
			observability.F("env", cfg.Env),
		},
	})
	if err != nil {
		zap.NewExample().Fatal("logger_init_failed", zap.Error(err))
	}
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger.Zap())
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	systemLogger := baseLogger.With(observability.F("component", "main"))

	oteltrace.InstallPropagator()
	counters, histograms := prometrics.Instruments(prometrics.New("", "", nil))
	tel := infraobs.New(oteltrace.New(cfg.ServiceName), baseLogger, infraobs.Instruments{Counters: counters, Histograms: histograms})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg, systemLogger)
	if err != nil {
		systemLogger.Error("store_init_failed", observability.F("driver", cfg.StoreDriver), observability.F("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repos.close(closeCtx); err != nil {
			systemLogger.Warn("store_close_failed", observability.F("error", err.Error()))
		}
	}()

	// In-process event bus carrying audit and low-stock events off the request path.
	bus := outbox.NewBus(baseLogger, outbox.Options{})
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	wrap := workerpresentation.Wrap(baseLogger)
	appaudit.NewWorker(bus, baseLogger.With(observability.F("log", "audit")), wrap, tel).Start()
	appinv.NewWorker(bus, newNotifier(cfg, baseLogger, systemLogger), wrap, tel).Start()

	ids := id.UUID{}
	recorder := appaudit.NewRecorder(bus, tel)
	tokens := security.NewJWT(cfg.JWTSecret, cfg.AccessTokenTTL)

	monitor := appinv.NewMonitor(repos.products, repos.alerts, bus, ids, cfg.LowStockThreshold, tel)
	lifecycle := apporder.NewLifecycle(repos.orders, repos.products, monitor, tel)

	reconcileCtx, cancelReconcile := context.WithTimeout(ctx, 30*time.Second)
	res, err := apporder.NewReconciler(repos.intents, repos.orders, lifecycle, cfg.IntentGrace,
		application.NewInstrumentation(tel, "order-service")).Run(reconcileCtx)
	cancelReconcile()
	if err != nil {
		systemLogger.Warn("order_reconcile_failed", observability.F("error", err.Error()))
	} else {
		systemLogger.Info("order_reconcile_done",
			observability.F("committed", res.Committed),
			observability.F("aborted", res.Aborted),
			observability.F("failed", res.Failed),
		)
	}

	mp := mercadopago.New(mercadopago.Config{
		AccessToken:   cfg.MercadoPagoAccessToken,
		WebhookSecret: cfg.MercadoPagoWebhookSecret,
		BaseURL:       cfg.MercadoPagoBaseURL,
		Timeout:       cfg.GatewayTimeout,
	})
	var checkout apppay.Gateway = mp
	var stripeWebhook *apppay.HandleWebhookUseCase
	if cfg.StripeSecretKey != "" {
		st := stripe.New(stripe.Config{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			Timeout:       cfg.GatewayTimeout,
		})
		stripeWebhook = apppay.NewHandleWebhookUseCase(st, repos.orders, repos.payments, lifecycle, ids, recorder, tel)
		if cfg.PaymentProvider == config.ProviderStripe {
			checkout = st
		}
	}
	if cfg.MercadoPagoAccessToken == "" && cfg.PaymentProvider == config.ProviderMercadoPago {
		systemLogger.Warn("mercadopago_token_missing")
	}

	svc := httppresentation.Services{
		Auth: appauth.NewService(repos.users, security.NewBcrypt(), tokens, newLoginLimiter(ctx, cfg, systemLogger), ids, recorder,
			appauth.Config{MinimumAge: cfg.MinimumAge}, application.NewInstrumentation(tel, "auth-service")),
		Catalog:            appcatalog.NewService(repos.products, ids, monitor, application.NewInstrumentation(tel, "catalog-service")),
		Cart:               appcart.NewService(repos.carts, repos.products, application.NewInstrumentation(tel, "cart-service")),
		CreateOrder:        apporder.NewCreateOrderUseCase(repos.products, repos.carts, repos.orders, repos.intents, ids, lifecycle, monitor, recorder, tel),
		TransitionStatus:   apporder.NewTransitionStatusUseCase(repos.orders, lifecycle, domorder.NewPolicy(cfg.StrictOrderTransitions), recorder, tel),
		Orders:             apporder.NewQueryService(repos.orders, application.NewInstrumentation(tel, "order-service")),
		PaymentIntent:      apppay.NewCreatePaymentIntentUseCase(repos.orders, checkout, apppay.IntentConfig{Currency: cfg.PaymentCurrency, WebhookBaseURL: cfg.WebhookBaseURL}, tel),
		MercadoPagoWebhook: apppay.NewHandleWebhookUseCase(mp, repos.orders, repos.payments, lifecycle, ids, recorder, tel),
		StripeWebhook:      stripeWebhook,
		Stock:              appinv.NewStockService(repos.products, repos.alerts, monitor, application.NewInstrumentation(tel, "inventory-service")),
	}
	handler := httppresentation.NewHandler(svc, tokens, httppresentation.Options{
		CORSOrigins: cfg.CORSOrigins,
		ValidID:     id.Valid,
		Metrics:     promhttp.Handler(),
	}, tel)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		systemLogger.Info("http_server_start",
			observability.F("addr", server.Addr),
			observability.F("store", cfg.StoreDriver),
			observability.F("payment_provider", checkout.Name()),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				observability.F("error", err.Error()),
			)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			observability.F("error", err.Error()),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}
}

func openRepositories(ctx context.Context, cfg *config.Config, log observability.Logger) (*repositories, error) {
	if cfg.StoreDriver != config.StoreMongo {
		return &repositories{
			products: memory.NewProductRepository(),
			carts:    memory.NewCartRepository(),
			orders:   memory.NewOrderRepository(),
			intents:  memory.NewIntentRepository(),
			payments: memory.NewPaymentRepository(),
			alerts:   memory.NewAlertRepository(),
			users:    memory.NewUserRepository(),
			close:    func(context.Context) error { return nil },
		}, nil
	}

	client, err := mongostore.Connect(ctx, cfg.MongoURI, 10*time.Second)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDatabase)
	if err := mongostore.EnsureIndexes(ctx, db, log); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	store := mongostore.NewStore(db)
	return &repositories{
		products: store.Products,
		carts:    store.Carts,
		orders:   store.Orders,
		intents:  store.Intents,
		payments: store.Payments,
		alerts:   store.Alerts,
		users:    store.Users,
		close:    client.Disconnect,
	}, nil
}

// newLoginLimiter prefers Redis so limits hold across replicas, and falls back
// to process memory when Redis is not configured or not reachable.
func newLoginLimiter(ctx context.Context, cfg *config.Config, log observability.Logger) appauth.RateLimiter {
	local := ratelimit.NewMemory(cfg.LoginRateLimit, cfg.LoginRateWindow)
	if cfg.RedisAddr == "" {
		return local
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis_unreachable", observability.F("addr", cfg.RedisAddr), observability.F("error", err.Error()))
	}
	return ratelimit.NewFallback(ratelimit.NewRedis(client, cfg.LoginRateLimit, cfg.LoginRateWindow), local, log)
}

func newNotifier(cfg *config.Config, base, log observability.Logger) appinv.Notifier {
	if cfg.SMTP.Enabled() {
		email, err := notify.NewEmail(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			To:       cfg.SMTP.To,
		})
		if err == nil {
			return email
		}
		log.Warn("smtp_notifier_unavailable", observability.F("error", err.Error()))
	}
	return notify.NewLog(base)
}
