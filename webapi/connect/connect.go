package connect

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mywatercloset/api/pkg/config"
	"github.com/mywatercloset/api/pkg/middleware"
	authsvc "github.com/mywatercloset/api/pkg/service/auth"
	"github.com/mywatercloset/api/pkg/service/stripeconnect"
	"github.com/mywatercloset/api/webapi/common"
)

func Routes(r fiber.Router, connectSvc *stripeconnect.Service, authSvc *authsvc.Service, cfg *config.Jwt) {
	protected := middleware.JwtProtected(cfg)
	r.Post("/stripe/connect/onboard", protected, Onboard(connectSvc, authSvc))
	r.Get("/stripe/connect/status", protected, Status(connectSvc, authSvc))
	r.Post("/stripe/connect/login", protected, Login(connectSvc, authSvc))
}

// Onboard returns the onboarding link for the calling provider.
// @Summary Start payout onboarding
// @Tags connect
// @Produce json
// @Success 200 {object} common.Response
// @Failure 403 {object} common.ProblemDetails "Not a provider"
// @Router /api/stripe/connect/onboard [post]
// @Security Bearer
func Onboard(connectSvc *stripeconnect.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		url, err := connectSvc.Onboard(c.UserContext(), userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to start onboarding", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Onboarding link", fiber.Map{"url": url})
	}
}

// Status refreshes and returns the caller's payout account state.
// @Summary Payout onboarding status
// @Tags connect
// @Produce json
// @Success 200 {object} common.Response
// @Router /api/stripe/connect/status [get]
// @Security Bearer
func Status(connectSvc *stripeconnect.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		status, err := connectSvc.Status(c.UserContext(), userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get onboarding status", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Onboarding status", status)
	}
}

// Login returns a dashboard link for an onboarded provider.
// @Summary Payout dashboard link
// @Tags connect
// @Produce json
// @Success 200 {object} common.Response
// @Failure 409 {object} common.ProblemDetails "Not onboarded"
// @Router /api/stripe/connect/login [post]
// @Security Bearer
func Login(connectSvc *stripeconnect.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		url, err := connectSvc.LoginLink(c.UserContext(), userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to create login link", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Login link", fiber.Map{"url": url})
	}
}
