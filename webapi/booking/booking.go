package booking

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/config"
	domainbooking "github.com/mywatercloset/api/pkg/domain/booking"
	"github.com/mywatercloset/api/pkg/middleware"
	authsvc "github.com/mywatercloset/api/pkg/service/auth"
	bookingsvc "github.com/mywatercloset/api/pkg/service/booking"
	conversationsvc "github.com/mywatercloset/api/pkg/service/conversation"
	"github.com/mywatercloset/api/pkg/service/settlement"
	"github.com/mywatercloset/api/webapi/common"
)

// Routes registers the booking endpoints. All of them require a JWT.
//
//   - POST /bookings                  create a pending booking
//   - GET  /bookings                  list the caller's bookings (?as=owner for hosted ones)
//   - GET  /bookings/:id              read a booking (booker, owner or admin)
//   - POST /bookings/:id/cancel       cancel (booker, owner or admin)
//   - POST /bookings/:id/check-in     owner or admin
//   - POST /bookings/:id/complete     owner or admin
//   - POST /bookings/:id/no-show      owner or admin
//   - POST /bookings/:id/refund       owner or admin
//   - GET  /bookings/:id/conversation participants only
//   - GET  /bookings/:id/conversation/messages
//   - POST /bookings/:id/conversation/messages
//   - PATCH /bookings/:id/conversation/messages/:messageId  sender only
func Routes(
	r fiber.Router,
	bookings *bookingsvc.Service,
	settlementSvc *settlement.Service,
	conversations *conversationsvc.Service,
	authSvc *authsvc.Service,
	cfg *config.Jwt,
) {
	protected := middleware.JwtProtected(cfg)
	r.Post("/bookings", protected, Create(bookings, authSvc))
	r.Get("/bookings", protected, List(bookings, authSvc))
	r.Get("/bookings/:id", protected, Get(bookings, authSvc))
	r.Post("/bookings/:id/cancel", protected, Cancel(bookings, authSvc))
	r.Post("/bookings/:id/check-in", protected, lifecycle(bookings.CheckIn, authSvc))
	r.Post("/bookings/:id/complete", protected, lifecycle(bookings.Complete, authSvc))
	r.Post("/bookings/:id/no-show", protected, lifecycle(bookings.MarkNoShow, authSvc))
	r.Post("/bookings/:id/refund", protected, Refund(settlementSvc, authSvc))
	r.Get("/bookings/:id/conversation", protected, Conversation(conversations, authSvc))
	r.Get("/bookings/:id/conversation/messages", protected, ListMessages(conversations, authSvc))
	r.Post("/bookings/:id/conversation/messages", protected, PostMessage(conversations, authSvc))
	r.Patch("/bookings/:id/conversation/messages/:messageId", protected, EditMessage(conversations, authSvc))
}

// Create books a restroom for a time window.
// @Summary Create booking
// @Tags bookings
// @Accept json
// @Produce json
// @Param request body CreateBookingRequest true "Booking window"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails "Invalid window"
// @Failure 404 {object} common.ProblemDetails "Property not found"
// @Router /api/bookings [post]
// @Security Bearer
func Create(bookings *bookingsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		input, err := common.BindAndValidate[CreateBookingRequest](c)
		if input == nil {
			return err
		}
		b, err := bookings.Create(c.UserContext(), bookingsvc.CreateRequest{
			BookerID:   userID,
			PropertyID: input.PropertyID,
			Window:     domainbooking.Window{Start: input.StartTime.UTC(), End: input.EndTime.UTC()},
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to create booking", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Booking created", b)
	}
}

// List returns the caller's bookings.
// @Summary List bookings
// @Tags bookings
// @Produce json
// @Param as query string false "owner to list bookings of the caller's properties"
// @Success 200 {object} common.Response
// @Router /api/bookings [get]
// @Security Bearer
func List(bookings *bookingsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		list, err := bookings.List(c.UserContext(), userID, c.Query("as") == "owner")
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list bookings", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Bookings", list)
	}
}

// Get returns one booking.
// @Summary Get booking
// @Tags bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /api/bookings/{id} [get]
// @Security Bearer
func Get(bookings *bookingsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return withBooking(authSvc, func(c *fiber.Ctx, userID, id uuid.UUID) error {
		b, err := bookings.Get(c.UserContext(), userID, id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get booking", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Booking", b)
	})
}

// Cancel cancels a booking on behalf of the caller.
// @Summary Cancel booking
// @Tags bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body ReasonRequest false "Reason"
// @Success 200 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails "No legal transition"
// @Router /api/bookings/{id}/cancel [post]
// @Security Bearer
func Cancel(bookings *bookingsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return withBooking(authSvc, func(c *fiber.Ctx, userID, id uuid.UUID) error {
		var input ReasonRequest
		if len(c.Body()) > 0 {
			in, err := common.BindAndValidate[ReasonRequest](c)
			if in == nil {
				return err
			}
			input = *in
		}
		b, err := bookings.Cancel(c.UserContext(), id, userID, input.Reason)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to cancel booking", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Booking cancelled", b)
	})
}

type lifecycleOp func(ctx context.Context, id, actorID uuid.UUID) (*domainbooking.Booking, error)

// lifecycle serves check-in, complete and no-show.
// @Summary Advance booking
// @Tags bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Router /api/bookings/{id}/check-in [post]
// @Router /api/bookings/{id}/complete [post]
// @Router /api/bookings/{id}/no-show [post]
// @Security Bearer
func lifecycle(op lifecycleOp, authSvc *authsvc.Service) fiber.Handler {
	return withBooking(authSvc, func(c *fiber.Ctx, userID, id uuid.UUID) error {
		b, err := op(c.UserContext(), id, userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to update booking", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Booking updated", b)
	})
}

// Refund issues a full refund. The booking becomes refunded when the payment
// provider confirms it.
// @Summary Refund booking
// @Tags bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body ReasonRequest false "Reason"
// @Success 202 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Router /api/bookings/{id}/refund [post]
// @Security Bearer
func Refund(settlementSvc *settlement.Service, authSvc *authsvc.Service) fiber.Handler {
	return withBooking(authSvc, func(c *fiber.Ctx, userID, id uuid.UUID) error {
		var input ReasonRequest
		if len(c.Body()) > 0 {
			in, err := common.BindAndValidate[ReasonRequest](c)
			if in == nil {
				return err
			}
			input = *in
		}
		refund, err := settlementSvc.RequestRefund(c.UserContext(), id, userID, input.Reason)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to refund booking", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusAccepted, "Refund requested", refund)
	})
}

// Conversation returns the booking's conversation.
// @Summary Booking conversation
// @Tags bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /api/bookings/{id}/conversation [get]
// @Security Bearer
func Conversation(conversations *conversationsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return withBooking(authSvc, func(c *fiber.Ctx, userID, id uuid.UUID) error {
		conv, err := conversations.GetForBooking(c.UserContext(), userID, id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get conversation", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Conversation", conv)
	})
}

// ListMessages returns the messages of the booking's conversation, oldest first.
// @Summary List conversation messages
// @Tags bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} common.Response
// @Failure 403 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /api/bookings/{id}/conversation/messages [get]
// @Security Bearer
func ListMessages(conversations *conversationsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return withBooking(authSvc, func(c *fiber.Ctx, userID, id uuid.UUID) error {
		msgs, err := conversations.ListMessages(c.UserContext(), userID, id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list messages", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Messages", msgs)
	})
}

// PostMessage adds a message to the booking's conversation.
// @Summary Post conversation message
// @Tags bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body MessageRequest true "Message"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 403 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /api/bookings/{id}/conversation/messages [post]
// @Security Bearer
func PostMessage(conversations *conversationsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return withBooking(authSvc, func(c *fiber.Ctx, userID, id uuid.UUID) error {
		input, err := common.BindAndValidate[MessageRequest](c)
		if input == nil {
			return err
		}
		m, err := conversations.PostMessage(c.UserContext(), userID, id, input.Content)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to post message", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Message posted", m)
	})
}

// EditMessage replaces the content of the caller's own message.
// @Summary Edit conversation message
// @Tags bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param messageId path string true "Message ID"
// @Param request body MessageRequest true "Message"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 403 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /api/bookings/{id}/conversation/messages/{messageId} [patch]
// @Security Bearer
func EditMessage(conversations *conversationsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return withBooking(authSvc, func(c *fiber.Ctx, userID, id uuid.UUID) error {
		messageID, err := common.ParseID(c, "messageId")
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid message ID", err)
		}
		input, err := common.BindAndValidate[MessageRequest](c)
		if input == nil {
			return err
		}
		m, err := conversations.EditMessage(c.UserContext(), userID, id, messageID, input.Content)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to edit message", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Message updated", m)
	})
}

func withBooking(authSvc *authsvc.Service, fn func(c *fiber.Ctx, userID, id uuid.UUID) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid booking ID", err)
		}
		return fn(c, userID, id)
	}
}
