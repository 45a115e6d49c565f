package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/escabi/escabiapi/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := config.FromLookup(lookup(nil))
	require.NoError(t, err)

	assert.Equal(t, "escabiapi", cfg.ServiceName)
	assert.Equal(t, config.EnvDevelopment, cfg.Env)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, config.StoreMemory, cfg.StoreDriver)
	assert.Equal(t, config.ProviderMercadoPago, cfg.PaymentProvider)
	assert.Equal(t, "http://localhost:8000", cfg.WebhookBaseURL)
	assert.Equal(t, 10*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 10, cfg.LowStockThreshold)
	assert.Equal(t, 18, cfg.MinimumAge)
	assert.False(t, cfg.StrictOrderTransitions)
	assert.Equal(t, 5, cfg.LoginRateLimit)
	assert.Equal(t, time.Minute, cfg.LoginRateWindow)
	assert.False(t, cfg.SMTP.Enabled())
}

func TestOverrides(t *testing.T) {
	cfg, err := config.FromLookup(lookup(map[string]string{
		"ENV":                      "test",
		"STORE_DRIVER":             "MONGO",
		"PAYMENT_PROVIDER":         "stripe",
		"STRIPE_SECRET_KEY":        "sk_test_123",
		"LOGIN_RATE_WINDOW":        "2m",
		"GATEWAY_TIMEOUT":          "3",
		"ORDER_STRICT_TRANSITIONS": "true",
		"CORS_ORIGINS":             "http://a.example, http://b.example ,",
		"SMTP_HOST":                "smtp.example",
		"ALERT_EMAIL_FROM":         "stock@example.com",
		"ALERT_EMAIL_TO":           "ops@example.com",
	}))
	require.NoError(t, err)

	assert.Equal(t, config.StoreMongo, cfg.StoreDriver)
	assert.Equal(t, config.ProviderStripe, cfg.PaymentProvider)
	assert.Equal(t, 2*time.Minute, cfg.LoginRateWindow)
	assert.Equal(t, 3*time.Second, cfg.GatewayTimeout)
	assert.True(t, cfg.StrictOrderTransitions)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.SMTP.Enabled())
}

func TestInvalid(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"production needs secret", map[string]string{"ENV": "production"}},
		{"unknown env", map[string]string{"ENV": "staging"}},
		{"unknown store", map[string]string{"STORE_DRIVER": "postgres"}},
		{"stripe without key", map[string]string{"PAYMENT_PROVIDER": "stripe"}},
		{"bad integer", map[string]string{"MINIMUM_AGE": "eighteen"}},
		{"bad duration", map[string]string{"LOGIN_RATE_WINDOW": "soon"}},
		{"bad bool", map[string]string{"ORDER_STRICT_TRANSITIONS": "maybe"}},
		{"smtp without sender", map[string]string{"SMTP_HOST": "smtp.example"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.FromLookup(lookup(tc.env))
			assert.Error(t, err)
		})
	}
}

func TestProductionWithSecret(t *testing.T) {
	cfg, err := config.FromLookup(lookup(map[string]string{"ENV": "production", "JWT_SECRET": "s3cr3t"}))
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SERVICE_NAME=from-dotenv\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("SERVICE_NAME", "")
	require.NoError(t, os.Unsetenv("SERVICE_NAME"))

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.ServiceName)
}
