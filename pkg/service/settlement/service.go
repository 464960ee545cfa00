// Package settlement coordinates payment intents, refunds and the provider
// webhooks that drive booking status.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain"
	"github.com/mywatercloset/api/pkg/domain/booking"
	"github.com/mywatercloset/api/pkg/provider/payment"
	"github.com/mywatercloset/api/pkg/repository"
	bookingsvc "github.com/mywatercloset/api/pkg/service/booking"
	"golang.org/x/sync/singleflight"
)

// ProviderName is recorded in the webhook ledger.
const ProviderName = "stripe"

const defaultTimeout = 10 * time.Second

type Service struct {
	uow      repository.UnitOfWork
	bookings *bookingsvc.Service
	gateway  payment.Gateway
	timeout  time.Duration
	group    singleflight.Group
	logger   *slog.Logger
}

func New(
	uow repository.UnitOfWork,
	bookings *bookingsvc.Service,
	gateway payment.Gateway,
	timeout time.Duration,
	logger *slog.Logger,
) *Service {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{
		uow:      uow,
		bookings: bookings,
		gateway:  gateway,
		timeout:  timeout,
		logger:   logger.With("service", "settlement"),
	}
}

// EnsurePaymentIntent returns the payment intent for a booking, creating it
// on first use. Concurrent calls for one booking share a single gateway
// round trip; across processes the booking id is the gateway idempotency key
// and the stored reference is write-once.
func (s *Service) EnsurePaymentIntent(ctx context.Context, bookingID, callerID uuid.UUID) (*payment.Intent, error) {
	const op = "settlement.EnsurePaymentIntent"
	log := s.logger.With("bookingID", bookingID, "callerID", callerID)

	b, err := s.uow.BookingRepository().Get(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if b.UserID != callerID && !s.bookings.IsAdmin(ctx, callerID) {
		log.Warn("Caller may not pay for this booking")
		return nil, domain.ErrForbidden
	}
	if b.Status != booking.StatusPending {
		log.Info("Booking is no longer payable", "status", b.Status)
		return nil, fmt.Errorf("%s: %w: booking is %s", op, domain.ErrIllegalTransition, b.Status)
	}

	// Callers share the result, so the shared work must not depend on the
	// first caller's cancellation.
	v, err, shared := s.group.Do(bookingID.String(), func() (any, error) {
		return s.ensure(context.WithoutCancel(ctx), bookingID)
	})
	if err != nil {
		log.Error("Failed to ensure payment intent", "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	intent := v.(*payment.Intent)
	log.Debug("Payment intent ready", "paymentIntentID", intent.ID, "shared", shared)
	copied := *intent
	return &copied, nil
}

func (s *Service) ensure(ctx context.Context, bookingID uuid.UUID) (*payment.Intent, error) {
	b, err := s.uow.BookingRepository().Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.PaymentIntentRef != "" {
		return s.retrieve(ctx, b.PaymentIntentRef)
	}

	p, err := s.uow.PropertyRepository().Get(ctx, b.PropertyID)
	if err != nil {
		return nil, err
	}
	params := payment.CreateIntentParams{
		IdempotencyKey: b.ID.String(),
		Amount:         b.GrossAmount,
		Currency:       b.Currency,
		Metadata: map[string]string{
			payment.MetadataBookingID:  b.ID.String(),
			payment.MetadataPropertyID: b.PropertyID.String(),
		},
	}
	owner, err := s.uow.UserRepository().Get(ctx, p.OwnerID)
	switch {
	case err == nil && owner.CanReceivePayouts():
		params.Transfer = &payment.Transfer{
			Destination: owner.StripeAccountID,
			Amount:      b.ProviderPayout,
		}
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, err
	default:
		s.logger.Info("Owner cannot receive payouts yet, funds stay on the platform",
			"bookingID", b.ID, "ownerID", p.OwnerID)
	}

	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	intent, err := s.gateway.CreateIntent(gctx, params)
	cancel()
	if err != nil {
		return nil, err
	}

	stored, written, err := s.bookings.AttachPaymentIntent(ctx, b.ID, intent.ID)
	if err != nil {
		return nil, err
	}
	if !written && stored.PaymentIntentRef != intent.ID {
		// Another process stored a different intent first; that one wins.
		return s.retrieve(ctx, stored.PaymentIntentRef)
	}
	s.logger.Info("✅ Payment intent attached", "bookingID", b.ID, "paymentIntentID", intent.ID)
	return intent, nil
}

func (s *Service) retrieve(ctx context.Context, ref string) (*payment.Intent, error) {
	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.gateway.RetrieveIntent(gctx, ref)
}

// RequestRefund refunds the full charge of a booking. The platform fee and
// the provider payout are reversed proportionally when the charge carried a
// transfer. The booking becomes refunded when the provider reports the
// refund through its webhook.
func (s *Service) RequestRefund(ctx context.Context, bookingID, actorID uuid.UUID, reason string) (*payment.Refund, error) {
	const op = "settlement.RequestRefund"
	log := s.logger.With("bookingID", bookingID, "actorID", actorID)

	b, err := s.uow.BookingRepository().Get(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p, err := s.uow.PropertyRepository().Get(ctx, b.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	guard := bookingsvc.OwnerOrAdmin(actorID, s.bookings.IsAdmin(ctx, actorID))
	if err := guard(b, p); err != nil {
		return nil, err
	}
	if !b.Status.CanTransitionTo(booking.StatusRefunded) {
		return nil, fmt.Errorf("%s: %w: booking is %s", op, domain.ErrIllegalTransition, b.Status)
	}
	if b.PaymentIntentRef == "" {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrPaymentNotStarted)
	}

	refund, err := s.refund(ctx, b.ID, b.PaymentIntentRef, reason)
	if err != nil {
		log.Error("Refund failed", "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("💸 Refund requested", "refundID", refund.ID, "amount", refund.Amount)
	return refund, nil
}

// refund asks the gateway for a full refund of intentID, reversing the
// owner transfer when the intent carried one. Every refund of a booking
// shares one idempotency key, so a booking is refunded at most once.
func (s *Service) refund(ctx context.Context, bookingID uuid.UUID, intentID, reason string) (*payment.Refund, error) {
	intent, err := s.retrieve(ctx, intentID)
	if err != nil {
		return nil, err
	}
	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.gateway.RefundIntent(gctx, payment.RefundParams{
		IdempotencyKey:  refundKey(bookingID),
		PaymentIntentID: intentID,
		ReverseTransfer: intent.TransferDestination != "",
		Reason:          reason,
	})
}

func refundKey(bookingID uuid.UUID) string {
	return "refund-" + bookingID.String()
}
