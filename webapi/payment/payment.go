package payment

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mywatercloset/api/pkg/config"
	"github.com/mywatercloset/api/pkg/domain"
	"github.com/mywatercloset/api/pkg/middleware"
	authsvc "github.com/mywatercloset/api/pkg/service/auth"
	"github.com/mywatercloset/api/pkg/service/settlement"
	"github.com/mywatercloset/api/webapi/common"
)

func Routes(r fiber.Router, settlementSvc *settlement.Service, authSvc *authsvc.Service, cfg *config.Jwt) {
	r.Post("/stripe/webhook", Webhook(settlementSvc))
	r.Post("/stripe/create-payment-intent", middleware.JwtProtected(cfg), CreatePaymentIntent(settlementSvc, authSvc))
}

// CreatePaymentIntent returns the client secret for a booking's payment,
// creating the intent on first use.
// @Summary Create payment intent
// @Tags payments
// @Accept json
// @Produce json
// @Param request body CreatePaymentIntentRequest true "Booking"
// @Success 200 {object} CreatePaymentIntentResponse
// @Failure 401 {object} common.ProblemDetails "Caller may not pay for this booking"
// @Failure 404 {object} common.ProblemDetails
// @Failure 502 {object} common.ProblemDetails
// @Router /api/stripe/create-payment-intent [post]
// @Security Bearer
func CreatePaymentIntent(settlementSvc *settlement.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		input, err := common.BindAndValidate[CreatePaymentIntentRequest](c)
		if input == nil {
			return err
		}
		intent, err := settlementSvc.EnsurePaymentIntent(c.UserContext(), input.BookingID, userID)
		if err != nil {
			if errors.Is(err, domain.ErrForbidden) {
				return common.ProblemDetailsJSON(c, "Unauthorized", err, fiber.StatusUnauthorized)
			}
			return common.ProblemDetailsJSON(c, "Failed to create payment intent", err)
		}
		return c.JSON(CreatePaymentIntentResponse{
			ClientSecret: intent.ClientSecret,
			Amount:       intent.Amount,
			Status:       intent.Status,
		})
	}
}

// Webhook receives payment provider events. The raw body is verified before
// anything is read or written.
// @Summary Payment webhook
// @Tags payments
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Webhook signature"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} common.ProblemDetails "Invalid signature"
// @Failure 500 {object} common.ProblemDetails "Retry later"
// @Router /api/stripe/webhook [post]
func Webhook(settlementSvc *settlement.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		outcome, err := settlementSvc.ApplyWebhookEvent(c.UserContext(), c.Body(), c.Get("Stripe-Signature"))
		if err != nil {
			if errors.Is(err, domain.ErrInvalidSignature) {
				return common.ProblemDetailsJSON(c, "Invalid webhook signature", err, fiber.StatusBadRequest)
			}
			return common.ProblemDetailsJSON(c, "Failed to process webhook", err, fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"received": true, "outcome": outcome})
	}
}
