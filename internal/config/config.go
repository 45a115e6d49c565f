// Package config reads service settings from the environment, after loading
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	StoreMemory = "memory"
	StoreMongo  = "mongo"

	ProviderMercadoPago = "mercadopago"
	ProviderStripe      = "stripe"

	defaultJWTSecret = "change-me-in-production"
)

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// Enabled reports whether low-stock alerts should go out by mail.
func (s SMTP) Enabled() bool { return s.Host != "" && len(s.To) > 0 }

type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string
	LogFile     string

	JWTSecret      string
	AccessTokenTTL time.Duration

	StoreDriver   string
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	RedisPassword string

	PaymentProvider          string
	MercadoPagoAccessToken   string
	MercadoPagoWebhookSecret string
	MercadoPagoBaseURL       string
	StripeSecretKey          string
	StripeWebhookSecret      string
	PaymentCurrency          string
	WebhookBaseURL           string
	GatewayTimeout           time.Duration

	LowStockThreshold      int
	MinimumAge             int
	StrictOrderTransitions bool
	IntentGrace            time.Duration
	LoginRateLimit         int
	LoginRateWindow        time.Duration
	CORSOrigins            []string

	SMTP SMTP
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary lookup function.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	r := reader{lookup: lookup}
	cfg := &Config{
		ServiceName: r.str("SERVICE_NAME", "escabiapi"),
		Env:         strings.ToLower(r.str("ENV", EnvDevelopment)),
		HTTPAddr:    r.str("HTTP_ADDR", ":8000"),
		LogFile:     r.str("LOG_FILE", ""),

		JWTSecret:      r.str("JWT_SECRET", defaultJWTSecret),
		AccessTokenTTL: time.Duration(r.int("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,

		StoreDriver:   strings.ToLower(r.str("STORE_DRIVER", StoreMemory)),
		MongoURI:      r.str("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: r.str("MONGODB_DATABASE", "escabiapi"),
		RedisAddr:     r.str("REDIS_ADDR", ""),
		RedisPassword: r.str("REDIS_PASSWORD", ""),

		PaymentProvider:          strings.ToLower(r.str("PAYMENT_PROVIDER", ProviderMercadoPago)),
		MercadoPagoAccessToken:   r.str("MERCADOPAGO_ACCESS_TOKEN", ""),
		MercadoPagoWebhookSecret: r.str("MERCADOPAGO_WEBHOOK_SECRET", ""),
		MercadoPagoBaseURL:       r.str("MERCADOPAGO_BASE_URL", ""),
		StripeSecretKey:          r.str("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:      r.str("STRIPE_WEBHOOK_SECRET", ""),
		PaymentCurrency:          strings.ToUpper(r.str("PAYMENT_CURRENCY", "ARS")),
		WebhookBaseURL:           r.str("WEBHOOK_BASE_URL", "http://localhost:8000"),
		GatewayTimeout:           r.duration("GATEWAY_TIMEOUT", 10*time.Second),

		LowStockThreshold:      r.int("LOW_STOCK_THRESHOLD", 10),
		MinimumAge:             r.int("MINIMUM_AGE", 18),
		StrictOrderTransitions: r.bool("ORDER_STRICT_TRANSITIONS", false),
		IntentGrace:            r.duration("ORDER_INTENT_GRACE", 15*time.Minute),
		LoginRateLimit:         r.int("LOGIN_RATE_LIMIT", 5),
		LoginRateWindow:        r.duration("LOGIN_RATE_WINDOW", 60*time.Second),
		CORSOrigins:            r.list("CORS_ORIGINS"),

		SMTP: SMTP{
			Host:     r.str("SMTP_HOST", ""),
			Port:     r.int("SMTP_PORT", 587),
			Username: r.str("SMTP_USERNAME", ""),
			Password: r.str("SMTP_PASSWORD", ""),
			From:     r.str("ALERT_EMAIL_FROM", ""),
			To:       r.list("ALERT_EMAIL_TO"),
		},
	}
	if len(r.errs) > 0 {
		return nil, errors.Join(r.errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool { return c.Env == EnvProduction }

func (c *Config) Validate() error {
	var errs []error
	switch c.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		errs = append(errs, fmt.Errorf("ENV: unknown environment %q", c.Env))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET: must not be empty"))
	}
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET: must be set in production"))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRE_MINUTES: must be positive"))
	}
	switch c.StoreDriver {
	case StoreMemory:
	case StoreMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			errs = append(errs, errors.New("MONGODB_URI and MONGODB_DATABASE are required for the mongo store"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER: unknown driver %q", c.StoreDriver))
	}
	switch c.PaymentProvider {
	case ProviderMercadoPago:
	case ProviderStripe:
		if c.StripeSecretKey == "" {
			errs = append(errs, errors.New("STRIPE_SECRET_KEY: required when PAYMENT_PROVIDER=stripe"))
		}
	default:
		errs = append(errs, fmt.Errorf("PAYMENT_PROVIDER: unknown provider %q", c.PaymentProvider))
	}
	if c.GatewayTimeout <= 0 {
		errs = append(errs, errors.New("GATEWAY_TIMEOUT: must be positive"))
	}
	if c.LowStockThreshold < 0 {
		errs = append(errs, errors.New("LOW_STOCK_THRESHOLD: must be zero or greater"))
	}
	if c.MinimumAge <= 0 {
		errs = append(errs, errors.New("MINIMUM_AGE: must be positive"))
	}
	if c.LoginRateLimit <= 0 || c.LoginRateWindow <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_LIMIT and LOGIN_RATE_WINDOW: must be positive"))
	}
	if c.SMTP.Host != "" && c.SMTP.From == "" {
		errs = append(errs, errors.New("ALERT_EMAIL_FROM: required when SMTP_HOST is set"))
	}
	return errors.Join(errs...)
}

type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) str(key, def string) string {
	if v, ok := r.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *reader) int(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func (r *reader) bool(key string, def bool) bool {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not a boolean", key, v))
		return def
	}
	return b
}

// duration accepts Go durations ("90s") or a bare number of seconds.
func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not a duration", key, v))
		return def
	}
	return d
}

func (r *reader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(r.str(key, ""), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
