// Package webapi wires the HTTP surface of the marketplace:
// - auth: registration and login
// - booking: booking lifecycle, refunds and conversations
// - payment: payment intents and the provider webhook
// - connect: provider payout onboarding
// - review: reviews of completed bookings
package webapi

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/mywatercloset/api/pkg/app"
	authweb "github.com/mywatercloset/api/webapi/auth"
	bookingweb "github.com/mywatercloset/api/webapi/booking"
	"github.com/mywatercloset/api/webapi/common"
	connectweb "github.com/mywatercloset/api/webapi/connect"
	paymentweb "github.com/mywatercloset/api/webapi/payment"
	reviewweb "github.com/mywatercloset/api/webapi/review"
)

// SetupApp Initialize Fiber with custom configuration
func SetupApp(a *app.App) *fiber.App {
	cfg := a.Config

	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})
	fiberApp.Get("/swagger/*", swagger.New(swagger.Config{
		TryItOutEnabled:      true,
		WithCredentials:      true,
		PersistAuthorization: true,
	}))

	// Webhooks arrive from the provider's address pool and are not rate limited.
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())
	fiberApp.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimit.MaxRequests,
		Expiration: cfg.RateLimit.Window,
		Storage:    a.Deps.LimiterStorage,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/api/stripe/webhook"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
				if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
					return strings.TrimSpace(forwardedFor[:commaIndex])
				}
				return strings.TrimSpace(forwardedFor)
			}
			if realIP := c.Get("X-Real-IP"); realIP != "" {
				return realIP
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(
				c,
				"Too Many Requests",
				errors.New("rate limit exceeded"),
				fiber.StatusTooManyRequests,
			)
		},
	}))

	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("MyWaterCloset API is running! 🚻")
	})
	fiberApp.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := fiberApp.Group("/api")
	jwtCfg := cfg.Auth.Jwt
	authweb.Routes(api, a.AuthService)
	bookingweb.Routes(api, a.BookingService, a.SettlementService, a.ConversationService, a.AuthService, jwtCfg)
	paymentweb.Routes(api, a.SettlementService, a.AuthService, jwtCfg)
	connectweb.Routes(api, a.ConnectService, a.AuthService, jwtCfg)
	reviewweb.Routes(api, a.ReviewService, a.AuthService, jwtCfg)
	return fiberApp
}
