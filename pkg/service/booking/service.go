// Package booking runs the booking lifecycle: creation, guarded status
// transitions and the events that follow a committed change.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain"
	"github.com/mywatercloset/api/pkg/domain/booking"
	"github.com/mywatercloset/api/pkg/domain/events"
	"github.com/mywatercloset/api/pkg/domain/property"
	"github.com/mywatercloset/api/pkg/eventbus"
	"github.com/mywatercloset/api/pkg/repository"
	"github.com/mywatercloset/api/pkg/utils"
)

const (
	defaultMaxAttempts = 5
	accessCodeDigits   = 6
	defaultListLimit   = 50
)

// Guard is checked inside the transition transaction, against the freshly
// read booking and its property, before anything is written.
type Guard func(b *booking.Booking, p *property.Property) error

// Hook runs inside the transition transaction once the guards pass and
// before the status changes. Its writes commit or roll back with the
// transition.
type Hook func(ctx context.Context, u repository.UnitOfWork, b *booking.Booking) error

type Service struct {
	uow         repository.UnitOfWork
	bus         eventbus.Bus
	logger      *slog.Logger
	currency    string
	maxAttempts int
	now         func() time.Time
}

func New(
	uow repository.UnitOfWork,
	bus eventbus.Bus,
	currency string,
	logger *slog.Logger,
) *Service {
	if currency == "" {
		currency = "usd"
	}
	return &Service{
		uow:         uow,
		bus:         bus,
		logger:      logger.With("service", "booking"),
		currency:    currency,
		maxAttempts: defaultMaxAttempts,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateRequest is the input for Create.
type CreateRequest struct {
	BookerID   uuid.UUID
	PropertyID uuid.UUID
	Window     booking.Window
}

type createCheck func(ctx context.Context, u repository.UnitOfWork, req *CreateRequest, p **property.Property) error

// createChecks run in order before a booking is written.
var createChecks = []createCheck{
	checkWindow,
	checkProperty,
}

func checkWindow(_ context.Context, _ repository.UnitOfWork, req *CreateRequest, _ **property.Property) error {
	return req.Window.Validate()
}

func checkProperty(ctx context.Context, u repository.UnitOfWork, req *CreateRequest, out **property.Property) error {
	p, err := u.PropertyRepository().Get(ctx, req.PropertyID)
	if err != nil {
		return err
	}
	if p.Status != property.StatusActive {
		return domain.ErrPropertyNotFound
	}
	*out = p
	return nil
}

// Create prices and stores a pending booking.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*booking.Booking, error) {
	const op = "booking.Service.Create"
	log := s.logger.With("bookerID", req.BookerID, "propertyID", req.PropertyID)

	var created *booking.Booking
	err := s.uow.Do(ctx, func(u repository.UnitOfWork) error {
		var p *property.Property
		for _, check := range createChecks {
			if err := check(ctx, u, &req, &p); err != nil {
				return err
			}
		}
		b, err := booking.New(req.BookerID, p.ID, req.Window, p.PricePerMinute, s.currency)
		if err != nil {
			return err
		}
		if err := u.BookingRepository().Create(ctx, b); err != nil {
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		log.Warn("Booking not created", "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("✅ Booking created",
		"bookingID", created.ID,
		"minutes", created.DurationMinutes,
		"gross", created.GrossAmount,
	)
	return created, nil
}

// Get returns the booking if callerID is the booker, the property owner or an admin.
func (s *Service) Get(ctx context.Context, callerID, id uuid.UUID) (*booking.Booking, error) {
	b, err := s.uow.BookingRepository().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.uow.PropertyRepository().Get(ctx, b.PropertyID)
	if err != nil {
		return nil, err
	}
	if b.IsParticipant(callerID, p.OwnerID) {
		return b, nil
	}
	if s.isAdmin(ctx, callerID) {
		return b, nil
	}
	return nil, domain.ErrForbidden
}

// List returns the caller's bookings, or the bookings on their listings when asOwner is set.
func (s *Service) List(ctx context.Context, callerID uuid.UUID, asOwner bool) ([]*booking.Booking, error) {
	if asOwner {
		return s.uow.BookingRepository().ListByOwner(ctx, callerID, defaultListLimit)
	}
	return s.uow.BookingRepository().ListByUser(ctx, callerID, defaultListLimit)
}

// Transition moves a booking to next. The write is conditional on the
// version read in the same attempt; a lost race is retried from a fresh
// read. The booking.transitioned event is emitted only after the write has
// committed.
func (s *Service) Transition(
	ctx context.Context,
	id uuid.UUID,
	next booking.Status,
	cause booking.Cause,
	guards ...Guard,
) (*booking.Booking, error) {
	return s.TransitionWith(ctx, id, next, cause, nil, guards...)
}

// TransitionWith is Transition with a hook that writes alongside the
// status change in the same transaction. A nil hook is skipped.
func (s *Service) TransitionWith(
	ctx context.Context,
	id uuid.UUID,
	next booking.Status,
	cause booking.Cause,
	hook Hook,
	guards ...Guard,
) (*booking.Booking, error) {
	log := s.logger.With("bookingID", id, "to", next)

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		var (
			b       *booking.Booking
			prev    booking.Status
			ownerID uuid.UUID
		)
		err := s.uow.Do(ctx, func(u repository.UnitOfWork) error {
			var err error
			b, err = u.BookingRepository().Get(ctx, id)
			if err != nil {
				return err
			}
			p, err := u.PropertyRepository().Get(ctx, b.PropertyID)
			if err != nil {
				return err
			}
			for _, guard := range guards {
				if err := guard(b, p); err != nil {
					return err
				}
			}
			if hook != nil {
				if err := hook(ctx, u, b); err != nil {
					return err
				}
			}
			prev = b.Status
			ownerID = p.OwnerID
			if err := b.Transition(next, cause, p.OwnerID, s.now()); err != nil {
				return err
			}
			if next == booking.StatusConfirmed {
				if err := s.issueAccess(b, p); err != nil {
					return err
				}
				if err := u.PropertyRepository().IncrementBookings(ctx, p.ID); err != nil {
					return err
				}
			}
			return u.BookingRepository().UpdateIfVersionMatches(ctx, b)
		})
		if errors.Is(err, domain.ErrVersionConflict) {
			log.Debug("Version conflict, retrying", "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}

		log.Info("✅ Booking transitioned", "from", prev)
		s.emit(ctx, events.NewBookingTransitioned(b, prev, ownerID))
		return b, nil
	}
	log.Error("Giving up after repeated version conflicts", "attempts", s.maxAttempts)
	return nil, domain.ErrVersionConflict
}

// AttachPaymentIntent stores ref on the booking unless one is already
// stored, and returns the booking as persisted. The returned flag reports
// whether ref was written.
func (s *Service) AttachPaymentIntent(ctx context.Context, id uuid.UUID, ref string) (*booking.Booking, bool, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		var (
			b       *booking.Booking
			written bool
		)
		err := s.uow.Do(ctx, func(u repository.UnitOfWork) error {
			var err error
			b, err = u.BookingRepository().Get(ctx, id)
			if err != nil {
				return err
			}
			if b.PaymentIntentRef != "" {
				return nil
			}
			b.PaymentIntentRef = ref
			b.UpdatedAt = s.now()
			written = true
			return u.BookingRepository().UpdateIfVersionMatches(ctx, b)
		})
		if errors.Is(err, domain.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		return b, written, nil
	}
	return nil, false, domain.ErrVersionConflict
}

// MarkReviewed sets the reviewed flag on a completed booking.
func (s *Service) MarkReviewed(ctx context.Context, u repository.UnitOfWork, id uuid.UUID) error {
	b, err := u.BookingRepository().Get(ctx, id)
	if err != nil {
		return err
	}
	if b.HasBeenReviewed {
		return domain.ErrAlreadyExists
	}
	b.HasBeenReviewed = true
	b.UpdatedAt = s.now()
	return u.BookingRepository().UpdateIfVersionMatches(ctx, b)
}

func (s *Service) issueAccess(b *booking.Booking, p *property.Property) error {
	if b.AccessCode != "" {
		return nil
	}
	code, err := utils.AccessCode(accessCodeDigits)
	if err != nil {
		return fmt.Errorf("generate access code: %w", err)
	}
	b.AccessCode = code
	b.AccessInstructions = fmt.Sprintf(
		"Enter code %s on the keypad at %s, %s. The code is valid from %s to %s (UTC).",
		code, p.Name, p.Address,
		b.StartTime.Format("15:04"), b.EndTime.Format("15:04"),
	)
	return nil
}

func (s *Service) emit(ctx context.Context, e events.Event) {
	if s.bus == nil {
		return
	}
	// The transition is already committed; a failed emit only loses the
	// side effects.
	if err := s.bus.Emit(context.WithoutCancel(ctx), e); err != nil {
		s.logger.Error("Failed to emit event", "type", e.Type(), "error", err)
	}
}

func (s *Service) isAdmin(ctx context.Context, userID uuid.UUID) bool {
	if userID == uuid.Nil {
		return false
	}
	u, err := s.uow.UserRepository().Get(ctx, userID)
	return err == nil && u.IsAdmin()
}
