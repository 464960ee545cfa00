package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mywatercloset/api/pkg/domain"
	"github.com/mywatercloset/api/pkg/domain/user"
	authsvc "github.com/mywatercloset/api/pkg/service/auth"
	"github.com/mywatercloset/api/webapi/common"
)

func Routes(r fiber.Router, authSvc *authsvc.Service) {
	r.Post("/auth/register", Register(authSvc))
	r.Post("/auth/login", Login(authSvc))
}

// Register creates an account and returns a token for it.
// @Summary Register
// @Description Create a user or provider account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterInput true "Account details"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Router /api/auth/register [post]
func Register(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[RegisterInput](c)
		if input == nil {
			return err
		}
		u, err := authSvc.Register(c.UserContext(), input.Email, input.Password,
			input.FirstName, input.LastName, user.Role(input.Role))
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return common.ProblemDetailsJSON(c, "Email already registered", err)
			}
			return common.ProblemDetailsJSON(c, "Registration failed", err)
		}
		token, err := authSvc.GenerateToken(c.UserContext(), u)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Account created",
			fiber.Map{"token": token, "user": u})
	}
}

// Login handles user authentication and returns a JWT token.
// @Summary User login
// @Description Authenticate user with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginInput true "Login credentials"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 429 {object} common.ProblemDetails
// @Router /api/auth/login [post]
func Login(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[LoginInput](c)
		if input == nil {
			return err
		}
		u, err := authSvc.Login(c.UserContext(), input.Email, input.Password)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				return common.ProblemDetailsJSON(c, "Invalid email or password", nil,
					"Email or password is incorrect", fiber.StatusUnauthorized)
			}
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		}
		token, err := authSvc.GenerateToken(c.UserContext(), u)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Success login", fiber.Map{"token": token})
	}
}
