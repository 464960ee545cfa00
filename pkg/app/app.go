package app

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/mywatercloset/api/pkg/config"
	"github.com/mywatercloset/api/pkg/eventbus"
	"github.com/mywatercloset/api/pkg/notify"
	"github.com/mywatercloset/api/pkg/provider/payment"
	"github.com/mywatercloset/api/pkg/repository"
	"github.com/mywatercloset/api/pkg/service/auth"
	bookingsvc "github.com/mywatercloset/api/pkg/service/booking"
	conversationsvc "github.com/mywatercloset/api/pkg/service/conversation"
	"github.com/mywatercloset/api/pkg/service/dispatch"
	reviewsvc "github.com/mywatercloset/api/pkg/service/review"
	"github.com/mywatercloset/api/pkg/service/settlement"
	"github.com/mywatercloset/api/pkg/service/stripeconnect"
)

// Deps contains the infrastructure the services are built on.
type Deps struct {
	Uow             repository.UnitOfWork
	EventBus        eventbus.Bus
	PaymentProvider payment.Provider
	Notifier        notify.Notifier
	// LimiterStorage backs the rate limiter; nil keeps counters in memory.
	LimiterStorage fiber.Storage
	Logger         *slog.Logger
}

type App struct {
	Deps                *Deps
	Config              *config.App
	AuthService         *auth.Service
	BookingService      *bookingsvc.Service
	SettlementService   *settlement.Service
	ConversationService *conversationsvc.Service
	ReviewService       *reviewsvc.Service
	ConnectService      *stripeconnect.Service
	Dispatcher          *dispatch.Dispatcher
}

func New(deps *Deps, cfg *config.App) *App {
	app := &App{
		Deps:   deps,
		Config: cfg,
	}
	logger := deps.Logger

	app.AuthService = auth.NewWithJWT(deps.Uow, cfg.Auth.Jwt, logger)
	app.BookingService = bookingsvc.New(deps.Uow, deps.EventBus, cfg.PaymentProviders.Stripe.Currency, logger)
	app.SettlementService = settlement.New(
		deps.Uow,
		app.BookingService,
		deps.PaymentProvider,
		cfg.Gateway.Timeout,
		logger,
	)
	app.ConversationService = conversationsvc.New(deps.Uow, logger)
	app.ReviewService = reviewsvc.New(deps.Uow, app.BookingService, logger)
	app.ConnectService = stripeconnect.New(deps.Uow, deps.PaymentProvider, cfg.Gateway.Timeout, logger)
	app.Dispatcher = dispatch.New(
		deps.Uow,
		app.ConversationService,
		deps.Notifier,
		cfg.Notify.FrontendURL,
		logger,
	)
	app.setupEventBus()
	return app
}
