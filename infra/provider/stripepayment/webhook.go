package stripepayment

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain"
	"github.com/mywatercloset/api/pkg/provider/payment"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

type webhookParser func(event stripe.Event, out *payment.WebhookEvent) error

var webhookParsers = map[payment.EventType]webhookParser{
	payment.EventCheckoutSessionCompleted: parseCheckoutSession,
	payment.EventPaymentIntentSucceeded:   parsePaymentIntent,
	payment.EventPaymentIntentFailed:      parsePaymentIntent,
	payment.EventChargeRefunded:           parseCharge,
	payment.EventAccountUpdated:           parseAccount,
}

// VerifyWebhook checks the Stripe-Signature header and decodes the event.
// It fails closed when no signing secret is configured.
func (s *StripePaymentProvider) VerifyWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	log := s.logger.With("method", "VerifyWebhook")
	if s.cfg.SigningSecret == "" {
		log.Error("webhook signing secret not configured, rejecting event")
		return nil, fmt.Errorf("%w: signing secret not configured", domain.ErrInvalidSignature)
	}
	if signature == "" || len(payload) == 0 {
		return nil, fmt.Errorf("%w: missing body or signature", domain.ErrInvalidSignature)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.cfg.SigningSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		log.Warn("webhook signature verification failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	out := &payment.WebhookEvent{ID: event.ID, Type: payment.EventType(event.Type)}
	parse, ok := webhookParsers[out.Type]
	if !ok {
		log.Debug("ignoring unhandled event type", "type", event.Type, "id", event.ID)
		return out, nil
	}
	if err := parse(event, out); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", event.Type, err)
	}
	log.Info("Received webhook event", "type", event.Type, "id", event.ID, "booking_id", out.BookingID)
	return out, nil
}

func parseCheckoutSession(event stripe.Event, out *payment.WebhookEvent) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return err
	}
	out.BookingID = bookingIDFrom(session.Metadata)
	if session.PaymentIntent != nil {
		out.PaymentIntentID = session.PaymentIntent.ID
	}
	return nil
}

func parsePaymentIntent(event stripe.Event, out *payment.WebhookEvent) error {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return err
	}
	out.BookingID = bookingIDFrom(pi.Metadata)
	out.PaymentIntentID = pi.ID
	return nil
}

func parseCharge(event stripe.Event, out *payment.WebhookEvent) error {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		return err
	}
	out.BookingID = bookingIDFrom(charge.Metadata)
	if charge.PaymentIntent != nil {
		out.PaymentIntentID = charge.PaymentIntent.ID
	}
	out.AmountRefunded = charge.AmountRefunded
	return nil
}

func parseAccount(event stripe.Event, out *payment.WebhookEvent) error {
	var account stripe.Account
	if err := json.Unmarshal(event.Data.Raw, &account); err != nil {
		return err
	}
	out.AccountID = account.ID
	out.DetailsSubmitted = account.DetailsSubmitted && account.ChargesEnabled
	return nil
}

func bookingIDFrom(metadata map[string]string) uuid.UUID {
	id, err := uuid.Parse(metadata[payment.MetadataBookingID])
	if err != nil {
		return uuid.Nil
	}
	return id
}
