package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load applies the first env file of envFiles that can be found in the
// working directory or one of its parents, then reads the process
// environment into an App. Variables already set in the environment win over
// the file. With no arguments it looks for .env.
func Load(envFiles ...string) (*App, error) {
	logger := slog.Default()
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	loaded := false
	for _, name := range envFiles {
		path, err := findUp(name)
		if err != nil {
			logger.Debug("Environment file not found", "name", name)
			continue
		}
		if err := godotenv.Load(path); err != nil {
			logger.Warn("Failed to load environment file", "path", path, "error", err)
			continue
		}
		logger.Info("Loaded environment file", "path", path)
		loaded = true
		break
	}
	if !loaded {
		logger.Info("No environment file loaded, using process environment only")
	}

	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.PaymentProviders.Stripe.Currency = strings.ToLower(cfg.PaymentProviders.Stripe.Currency)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger.Info("App config loaded",
		"env", cfg.Env,
		"db", maskValue(cfg.DB.Url),
		"event_bus_driver", cfg.EventBus.Driver,
		"rate_limit", fmt.Sprintf("%d/%s (%s)", cfg.RateLimit.MaxRequests, cfg.RateLimit.Window, cfg.RateLimit.Storage),
		"auth_jwt_expiry", cfg.Auth.Jwt.Expiry,
		"gateway_timeout", cfg.Gateway.Timeout,
		"stripe_api_key", maskValue(cfg.PaymentProviders.Stripe.ApiKey),
		"stripe_signing_secret", maskValue(cfg.PaymentProviders.Stripe.SigningSecret),
		"brevo_api_key", maskValue(cfg.Notify.BrevoApiKey),
	)
	return &cfg, nil
}

func (c *App) validate() error {
	var errs []error
	if c.Gateway.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("GATEWAY_TIMEOUT must be positive, got %s", c.Gateway.Timeout))
	}
	if !slices.Contains([]string{"memory", "redis", "kafka"}, c.EventBus.Driver) {
		errs = append(errs, fmt.Errorf("EVENT_BUS_DRIVER must be memory, redis or kafka, got %q", c.EventBus.Driver))
	}
	if !slices.Contains([]string{"memory", "redis"}, c.RateLimit.Storage) {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_STORAGE must be memory or redis, got %q", c.RateLimit.Storage))
	}
	if c.RateLimit.MaxRequests <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be positive, got %d", c.RateLimit.MaxRequests))
	}
	if len(c.PaymentProviders.Stripe.Currency) != 3 {
		errs = append(errs, fmt.Errorf("PAYMENT_PROVIDER_STRIPE_CURRENCY must be an ISO code, got %q",
			c.PaymentProviders.Stripe.Currency))
	}
	return errors.Join(errs...)
}

// findUp returns the path of the nearest file called name, starting in the
// working directory and walking towards the filesystem root.
func findUp(name string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

func maskValue(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}
