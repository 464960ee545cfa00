package common

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/mywatercloset/api/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorToStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidWindow, fiber.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", domain.ErrPropertyNotFound), fiber.StatusNotFound},
		{domain.ErrBookingNotFound, fiber.StatusNotFound},
		{domain.ErrIllegalTransition, fiber.StatusConflict},
		{domain.ErrForbidden, fiber.StatusForbidden},
		{domain.ErrUnauthorized, fiber.StatusUnauthorized},
		{domain.ErrInvalidSignature, fiber.StatusBadRequest},
		{domain.ErrGatewayUnavailable, fiber.StatusBadGateway},
		{domain.ErrMissingAttribution, fiber.StatusUnprocessableEntity},
		{fiber.NewError(fiber.StatusTeapot, "tea"), fiber.StatusTeapot},
		{fmt.Errorf("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorToStatusCode(tt.err))
		})
	}
}

func TestProblemDetailsJSON(t *testing.T) {
	app := fiber.New()
	app.Get("/derived", func(c *fiber.Ctx) error {
		return ProblemDetailsJSON(c, "Booking not found", domain.ErrBookingNotFound)
	})
	app.Get("/explicit", func(c *fiber.Ctx) error {
		return ProblemDetailsJSON(c, "Nope", nil, "custom detail", fiber.StatusUnauthorized)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/derived", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get(fiber.HeaderContentType))
	var pd ProblemDetails
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pd))
	assert.Equal(t, "Booking not found", pd.Title)
	assert.Equal(t, "/derived", pd.Instance)
	assert.Equal(t, domain.ErrBookingNotFound.Error(), pd.Detail)

	resp, err = app.Test(httptest.NewRequest("GET", "/explicit", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

type input struct {
	Email string `json:"email" validate:"required,email"`
}

func TestBindAndValidate(t *testing.T) {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		in, err := BindAndValidate[input](c)
		if in == nil {
			return err
		}
		return c.SendString(in.Email)
	})

	post := func(body string) int {
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}
	assert.Equal(t, fiber.StatusOK, post(`{"email":"a@example.com"}`))
	assert.Equal(t, fiber.StatusBadRequest, post(`{"email":"nope"}`))
	assert.Equal(t, fiber.StatusBadRequest, post(`{`))
}
