package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain"
	"github.com/mywatercloset/api/pkg/domain/booking"
	"github.com/mywatercloset/api/pkg/domain/property"
	"github.com/mywatercloset/api/pkg/provider/payment"
	"github.com/mywatercloset/api/pkg/repository"
	bookingsvc "github.com/mywatercloset/api/pkg/service/booking"
)

// Outcome describes what a webhook delivery did.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
	// OutcomeRefunded means a payment arrived for a cancelled booking and
	// was refunded in full.
	OutcomeRefunded Outcome = "refunded"
	// OutcomeNeedsReview means a payment arrived for a cancelled booking
	// but no intent is known to refund.
	OutcomeNeedsReview Outcome = "needs_review"
)

var errStaleIntent = errors.New("event is for a different payment intent")

const lateCaptureReason = "payment received after cancellation"

type transitionRule struct {
	target booking.Status
	// matchIntent drops events whose intent differs from the stored one.
	matchIntent bool
	cause       func(e *payment.WebhookEvent) booking.Cause
}

var transitionRules = map[payment.EventType]transitionRule{
	payment.EventCheckoutSessionCompleted: {
		target: booking.StatusConfirmed,
		cause:  func(*payment.WebhookEvent) booking.Cause { return booking.Cause{Actor: &booking.SystemActor} },
	},
	payment.EventPaymentIntentSucceeded: {
		target:      booking.StatusConfirmed,
		matchIntent: true,
		cause:       func(*payment.WebhookEvent) booking.Cause { return booking.Cause{Actor: &booking.SystemActor} },
	},
	payment.EventPaymentIntentFailed: {
		target:      booking.StatusCancelled,
		matchIntent: true,
		cause: func(*payment.WebhookEvent) booking.Cause {
			return booking.Cause{Actor: &booking.SystemActor, Reason: "payment failed"}
		},
	},
	payment.EventChargeRefunded: {
		target:      booking.StatusRefunded,
		matchIntent: true,
		cause: func(e *payment.WebhookEvent) booking.Cause {
			return booking.Cause{Actor: &booking.SystemActor, Reason: "refunded", RefundAmount: e.AmountRefunded}
		},
	},
}

// ApplyWebhookEvent verifies a webhook delivery and applies it. Nothing is
// read or written before the signature checks out. The delivery is recorded
// in the same transaction as the status change it causes, so a failed
// delivery leaves no trace and the provider's retry is applied. Repeated
// deliveries and transitions that were already applied are acknowledged
// without effect.
func (s *Service) ApplyWebhookEvent(ctx context.Context, body []byte, signature string) (Outcome, error) {
	const op = "settlement.ApplyWebhookEvent"

	evt, err := s.gateway.VerifyWebhook(body, signature)
	if err != nil {
		s.logger.Warn("Rejected webhook", "error", err)
		if !errors.Is(err, domain.ErrInvalidSignature) {
			err = fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
		}
		return "", err
	}
	log := s.logger.With("eventID", evt.ID, "type", evt.Type, "bookingID", evt.BookingID)

	if evt.Type == payment.EventAccountUpdated {
		return s.applyAccountUpdate(ctx, evt)
	}
	rule, ok := transitionRules[evt.Type]
	if !ok {
		log.Debug("Ignoring webhook event type")
		return OutcomeIgnored, nil
	}
	if evt.BookingID == uuid.Nil {
		log.Info("Webhook event has no booking reference, ignoring")
		return OutcomeIgnored, nil
	}

	outcome, err := s.applyTransition(ctx, evt, rule)
	if err != nil {
		log.Error("Failed to apply webhook event", "error", err)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return outcome, nil
}

func (s *Service) applyTransition(ctx context.Context, evt *payment.WebhookEvent, rule transitionRule) (Outcome, error) {
	log := s.logger.With("eventID", evt.ID, "type", evt.Type, "bookingID", evt.BookingID)

	if evt.Type == payment.EventCheckoutSessionCompleted && evt.PaymentIntentID != "" {
		if _, _, err := s.bookings.AttachPaymentIntent(ctx, evt.BookingID, evt.PaymentIntentID); err != nil {
			if errors.Is(err, domain.ErrBookingNotFound) {
				log.Warn("Webhook references unknown booking")
				return OutcomeIgnored, nil
			}
			return "", err
		}
	}

	var guards []bookingsvc.Guard
	if rule.matchIntent {
		guards = append(guards, sameIntent(evt.PaymentIntentID))
	}
	_, err := s.bookings.TransitionWith(ctx, evt.BookingID, rule.target, rule.cause(evt), recordDelivery(evt), guards...)
	switch {
	case err == nil:
		log.Info("✅ Webhook applied", "status", rule.target)
		return OutcomeApplied, nil
	case errors.Is(err, domain.ErrDuplicateWebhookEvent):
		log.Info("Duplicate webhook delivery")
		return OutcomeDuplicate, nil
	case errors.Is(err, errStaleIntent):
		log.Warn("Webhook is for a payment intent the booking does not use, ignoring",
			"paymentIntentID", evt.PaymentIntentID)
		return OutcomeIgnored, nil
	case errors.Is(err, domain.ErrIllegalTransition):
		if rule.target == booking.StatusConfirmed {
			return s.refundLateCapture(ctx, evt)
		}
		log.Info("Webhook transition already applied or superseded",
			"error", fmt.Errorf("%w: %v", domain.ErrDuplicateWebhookEvent, err))
		return OutcomeDuplicate, nil
	case errors.Is(err, domain.ErrBookingNotFound):
		log.Warn("Webhook references unknown booking")
		return OutcomeIgnored, nil
	default:
		return "", err
	}
}

// refundLateCapture handles a successful payment for a booking that can no
// longer be confirmed. A cancelled booking gets a full refund; any other
// state means the confirmation already happened.
func (s *Service) refundLateCapture(ctx context.Context, evt *payment.WebhookEvent) (Outcome, error) {
	log := s.logger.With("eventID", evt.ID, "type", evt.Type, "bookingID", evt.BookingID)

	b, err := s.uow.BookingRepository().Get(ctx, evt.BookingID)
	if err != nil {
		return "", err
	}
	if b.Status != booking.StatusCancelled {
		log.Info("Webhook transition already applied or superseded", "status", b.Status)
		return OutcomeDuplicate, nil
	}
	ref := evt.PaymentIntentID
	if ref == "" {
		ref = b.PaymentIntentRef
	}
	if ref == "" {
		log.Error("Payment received for cancelled booking with no intent to refund")
		return OutcomeNeedsReview, nil
	}

	var refund *payment.Refund
	err = s.uow.Do(ctx, func(u repository.UnitOfWork) error {
		first, err := u.WebhookEventRepository().Record(ctx, ProviderName, evt.ID, string(evt.Type), b.ID)
		if err != nil {
			return fmt.Errorf("record webhook: %w", err)
		}
		if !first {
			return domain.ErrDuplicateWebhookEvent
		}
		refund, err = s.refund(ctx, b.ID, ref, lateCaptureReason)
		return err
	})
	if errors.Is(err, domain.ErrDuplicateWebhookEvent) {
		log.Info("Duplicate webhook delivery")
		return OutcomeDuplicate, nil
	}
	if err != nil {
		return "", err
	}
	log.Warn("💸 Refunded payment for cancelled booking",
		"paymentIntentID", ref, "refundID", refund.ID, "amount", refund.Amount)
	return OutcomeRefunded, nil
}

func recordDelivery(evt *payment.WebhookEvent) bookingsvc.Hook {
	return func(ctx context.Context, u repository.UnitOfWork, b *booking.Booking) error {
		first, err := u.WebhookEventRepository().Record(ctx, ProviderName, evt.ID, string(evt.Type), b.ID)
		if err != nil {
			return fmt.Errorf("record webhook: %w", err)
		}
		if !first {
			return domain.ErrDuplicateWebhookEvent
		}
		return nil
	}
}

func sameIntent(ref string) bookingsvc.Guard {
	return func(b *booking.Booking, _ *property.Property) error {
		if ref == "" || b.PaymentIntentRef == "" || b.PaymentIntentRef == ref {
			return nil
		}
		return errStaleIntent
	}
}

func (s *Service) applyAccountUpdate(ctx context.Context, evt *payment.WebhookEvent) (Outcome, error) {
	log := s.logger.With("eventID", evt.ID, "accountID", evt.AccountID)
	if evt.AccountID == "" {
		return OutcomeIgnored, nil
	}
	u, err := s.uow.UserRepository().GetByStripeAccountID(ctx, evt.AccountID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Info("No user for connected account")
		return OutcomeIgnored, nil
	}
	if err != nil {
		return "", err
	}
	if u.StripeOnboarded == evt.DetailsSubmitted {
		return OutcomeDuplicate, nil
	}
	if err := s.uow.UserRepository().UpdateStripeAccount(ctx, u.ID, evt.AccountID, evt.DetailsSubmitted); err != nil {
		return "", err
	}
	log.Info("✅ Connected account updated", "userID", u.ID, "onboarded", evt.DetailsSubmitted)
	return OutcomeApplied, nil
}
