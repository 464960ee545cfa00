package payment

import (
	"github.com/google/uuid"
)

// EventType is a payment provider webhook event type.
type EventType string

const (
	EventCheckoutSessionCompleted EventType = "checkout.session.completed"
	EventPaymentIntentSucceeded   EventType = "payment_intent.succeeded"
	EventPaymentIntentFailed      EventType = "payment_intent.payment_failed"
	EventChargeRefunded           EventType = "charge.refunded"
	EventAccountUpdated           EventType = "account.updated"
)

// Intent is a payment intent as seen by the booking flow.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
	// TransferDestination is the connected account receiving the payout, if any.
	TransferDestination string `json:"-"`
}

// Transfer routes part of a charge to a connected account.
type Transfer struct {
	Destination string
	Amount      int64
}

// CreateIntentParams holds the parameters for CreateIntent.
type CreateIntentParams struct {
	// IdempotencyKey makes repeated creates for the same booking return the
	// same intent on the provider side.
	IdempotencyKey string
	Amount         int64
	Currency       string
	Metadata       map[string]string
	Transfer       *Transfer
}

// RefundParams holds the parameters for RefundIntent. A zero Amount refunds
// the full charge.
type RefundParams struct {
	IdempotencyKey  string
	PaymentIntentID string
	Amount          int64
	ReverseTransfer bool
	Reason          string
}

type Refund struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

// WebhookEvent is a verified webhook delivery reduced to what settlement needs.
type WebhookEvent struct {
	ID   string
	Type EventType
	// BookingID is uuid.Nil when the event carries no booking correlation.
	BookingID       uuid.UUID
	PaymentIntentID string
	// AmountRefunded is set for charge.refunded.
	AmountRefunded int64
	// AccountID is set for account.updated.
	AccountID        string
	DetailsSubmitted bool
}

// ConnectedAccount is a provider's payout account.
type ConnectedAccount struct {
	ID               string `json:"accountId"`
	DetailsSubmitted bool   `json:"detailsSubmitted"`
	ChargesEnabled   bool   `json:"chargesEnabled"`
	PayoutsEnabled   bool   `json:"payoutsEnabled"`
}

// Onboarded reports whether the account can receive destination charges.
func (a *ConnectedAccount) Onboarded() bool {
	return a != nil && a.DetailsSubmitted && a.ChargesEnabled
}

// Metadata keys stamped on every intent.
const (
	MetadataBookingID  = "bookingId"
	MetadataPropertyID = "propertyId"
	MetadataUserID     = "userId"
)
