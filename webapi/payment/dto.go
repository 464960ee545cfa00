package payment

import "github.com/google/uuid"

// CreatePaymentIntentRequest is the body of POST /api/stripe/create-payment-intent.
type CreatePaymentIntentRequest struct {
	BookingID uuid.UUID `json:"bookingId" validate:"required"`
}

// CreatePaymentIntentResponse is what the client needs to confirm the payment.
type CreatePaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Status       string `json:"status"`
}
