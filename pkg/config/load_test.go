package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env.test")
	content := "AUTH_JWT_SECRET=supersecret\n" +
		"PAYMENT_PROVIDER_STRIPE_SIGNING_SECRET=whsec_123456\n" +
		"GATEWAY_TIMEOUT=3s\n" +
		"EVENT_BUS_DRIVER=redis\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		for _, k := range []string{
			"AUTH_JWT_SECRET",
			"PAYMENT_PROVIDER_STRIPE_SIGNING_SECRET",
			"GATEWAY_TIMEOUT",
			"EVENT_BUS_DRIVER",
		} {
			_ = os.Unsetenv(k)
		}
	})

	cfg, err := Load(".env.test")
	require.NoError(t, err)
	assert.Equal(t, "supersecret", cfg.Auth.Jwt.Secret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.Jwt.Expiry)
	assert.Equal(t, "whsec_123456", cfg.PaymentProviders.Stripe.SigningSecret)
	assert.Equal(t, "usd", cfg.PaymentProviders.Stripe.Currency)
	assert.Equal(t, 3*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "redis", cfg.EventBus.Driver)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoad_MissingJwtSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")
	_ = os.Unsetenv("AUTH_JWT_SECRET")
	_, err := Load("definitely-not-a-file.env")
	assert.Error(t, err)
}

func TestMaskValue(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"short", "****"},
		{"sk_test_abcdef1234", "sk****1234"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, maskValue(tc.in))
	}
}

func TestFindUp_WalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env.walk"), []byte("X=1\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	found, err := findUp(".env.walk")
	require.NoError(t, err)
	assert.Equal(t, "X=1\n", readFile(t, found))
}

func TestFindUp_Missing(t *testing.T) {
	_, err := findUp(".env.does-not-exist-anywhere")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	valid := func() *App {
		return &App{
			Gateway:          &Gateway{Timeout: time.Second},
			EventBus:         &EventBus{Driver: "memory"},
			RateLimit:        &RateLimit{MaxRequests: 10, Window: time.Minute, Storage: "memory"},
			PaymentProviders: &PaymentProviders{Stripe: &Stripe{Currency: "usd"}},
		}
	}
	require.NoError(t, valid().validate())

	tests := []struct {
		name   string
		mutate func(*App)
		want   string
	}{
		{"zero timeout", func(c *App) { c.Gateway.Timeout = 0 }, "GATEWAY_TIMEOUT"},
		{"unknown bus", func(c *App) { c.EventBus.Driver = "nats" }, "EVENT_BUS_DRIVER"},
		{"unknown storage", func(c *App) { c.RateLimit.Storage = "memcached" }, "RATE_LIMIT_STORAGE"},
		{"no requests", func(c *App) { c.RateLimit.MaxRequests = 0 }, "RATE_LIMIT_MAX_REQUESTS"},
		{"bad currency", func(c *App) { c.PaymentProviders.Stripe.Currency = "dollars" }, "CURRENCY"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}
