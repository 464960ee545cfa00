package review

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/config"
	"github.com/mywatercloset/api/pkg/middleware"
	authsvc "github.com/mywatercloset/api/pkg/service/auth"
	reviewsvc "github.com/mywatercloset/api/pkg/service/review"
	"github.com/mywatercloset/api/webapi/common"
)

// CreateReviewRequest is the body of POST /api/reviews.
type CreateReviewRequest struct {
	BookingID uuid.UUID `json:"bookingId" validate:"required"`
	Rating    int       `json:"rating" validate:"required,min=1,max=5"`
	Comment   string    `json:"comment" validate:"max=2000"`
}

func Routes(r fiber.Router, reviews *reviewsvc.Service, authSvc *authsvc.Service, cfg *config.Jwt) {
	r.Post("/reviews", middleware.JwtProtected(cfg), Create(reviews, authSvc))
	r.Get("/properties/:id/reviews", ListByProperty(reviews))
}

// Create reviews a completed booking.
// @Summary Review a booking
// @Tags reviews
// @Accept json
// @Produce json
// @Param request body CreateReviewRequest true "Review"
// @Success 201 {object} common.Response
// @Failure 403 {object} common.ProblemDetails "Not the booker or not completed"
// @Failure 409 {object} common.ProblemDetails "Already reviewed"
// @Router /api/reviews [post]
// @Security Bearer
func Create(reviews *reviewsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := common.CurrentUserID(c, authSvc)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		input, err := common.BindAndValidate[CreateReviewRequest](c)
		if input == nil {
			return err
		}
		r, err := reviews.Create(c.UserContext(), userID, input.BookingID, input.Rating, input.Comment)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to create review", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Review created", r)
	}
}

// ListByProperty returns the reviews of a listing.
// @Summary Property reviews
// @Tags reviews
// @Produce json
// @Param id path string true "Property ID"
// @Success 200 {object} common.Response
// @Router /api/properties/{id}/reviews [get]
func ListByProperty(reviews *reviewsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := common.ParseID(c, "id")
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid property ID", err)
		}
		list, err := reviews.ListByProperty(c.UserContext(), id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list reviews", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Reviews", list)
	}
}
