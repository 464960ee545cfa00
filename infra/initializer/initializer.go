package initializer

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/mywatercloset/api/infra"
	"github.com/mywatercloset/api/infra/cache"
	infra_eventbus "github.com/mywatercloset/api/infra/eventbus"
	"github.com/mywatercloset/api/infra/notifier"
	"github.com/mywatercloset/api/infra/provider/mockpayment"
	"github.com/mywatercloset/api/infra/provider/stripepayment"
	infra_repository "github.com/mywatercloset/api/infra/repository"
	"github.com/mywatercloset/api/pkg/app"
	"github.com/mywatercloset/api/pkg/config"
	"github.com/mywatercloset/api/pkg/eventbus"
	"github.com/mywatercloset/api/pkg/provider/payment"
)

// InitializeDependencies initializes all the application dependencies
func InitializeDependencies(cfg *config.App) (
	deps *app.Deps,
	err error,
) {
	deps = &app.Deps{}
	logger := SetupLogger(cfg.Log)
	deps.Logger = logger

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, err
	}
	if err := infra.Migrate(db, cfg.DB); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		return nil, err
	}
	deps.Uow = infra_repository.NewUoW(db)

	deps.EventBus, err = initEventBus(cfg, logger)
	if err != nil {
		return nil, err
	}

	deps.PaymentProvider = initPaymentProvider(cfg.PaymentProviders.Stripe, logger)
	deps.Notifier = notifier.New(cfg.Notify, logger)
	deps.LimiterStorage = initLimiterStorage(cfg, logger)
	return deps, nil
}

func initPaymentProvider(cfg *config.Stripe, logger *slog.Logger) payment.Provider {
	if cfg == nil || cfg.ApiKey == "" {
		logger.Warn("No Stripe API key configured, using the in-memory payment provider")
		secret := ""
		if cfg != nil {
			secret = cfg.SigningSecret
		}
		return mockpayment.NewMockPaymentProvider(secret)
	}
	return stripepayment.New(cfg, logger)
}

// initEventBus picks the transport. A broker that cannot be reached degrades
// to the in-process async bus so the API keeps serving.
func initEventBus(cfg *config.App, logger *slog.Logger) (eventbus.Bus, error) {
	driver := "memory"
	if cfg.EventBus != nil && cfg.EventBus.Driver != "" {
		driver = cfg.EventBus.Driver
	}

	switch driver {
	case "memory":
		logger.Info("Using in-memory async event bus")
		return infra_eventbus.NewWithMemoryAsync(logger), nil
	case "redis":
		if cfg.Redis == nil || cfg.Redis.URL == "" {
			return nil, fmt.Errorf("event bus driver redis requires REDIS_URL")
		}
		bus, err := infra_eventbus.NewWithRedis(cfg.Redis, cfg.EventBus, logger)
		if err != nil {
			logger.Warn("Redis event bus unavailable, falling back to in-memory", "error", err)
			return infra_eventbus.NewWithMemoryAsync(logger), nil
		}
		return bus, nil
	case "kafka":
		if cfg.Kafka == nil || len(cfg.Kafka.Brokers) == 0 {
			return nil, fmt.Errorf("event bus driver kafka requires KAFKA_BROKERS")
		}
		bus, err := infra_eventbus.NewWithKafka(cfg.Kafka, cfg.EventBus, logger)
		if err != nil {
			logger.Warn("Kafka event bus unavailable, falling back to in-memory", "error", err)
			return infra_eventbus.NewWithMemoryAsync(logger), nil
		}
		return bus, nil
	default:
		return nil, fmt.Errorf("unsupported event bus driver %q", driver)
	}
}

// initLimiterStorage returns nil, meaning in-process counters, unless redis
// storage is configured and reachable.
func initLimiterStorage(cfg *config.App, logger *slog.Logger) fiber.Storage {
	if cfg.RateLimit == nil || cfg.RateLimit.Storage != "redis" {
		return nil
	}
	storage, err := cache.NewRedisStorage(cfg.Redis, "ratelimit:", logger)
	if err != nil {
		logger.Warn("Redis rate limit storage unavailable, using in-memory counters", "error", err)
		return nil
	}
	logger.Info("Using redis rate limit storage")
	return storage
}
