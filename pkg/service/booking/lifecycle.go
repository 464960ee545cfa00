package booking

import (
	"context"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain"
	"github.com/mywatercloset/api/pkg/domain/booking"
	"github.com/mywatercloset/api/pkg/domain/property"
)

// ParticipantOrAdmin allows the booker, the property owner or an admin.
func ParticipantOrAdmin(actorID uuid.UUID, admin bool) Guard {
	return func(b *booking.Booking, p *property.Property) error {
		if admin || b.IsParticipant(actorID, p.OwnerID) {
			return nil
		}
		return domain.ErrForbidden
	}
}

// OwnerOrAdmin allows the property owner or an admin.
func OwnerOrAdmin(actorID uuid.UUID, admin bool) Guard {
	return func(_ *booking.Booking, p *property.Property) error {
		if admin || actorID == p.OwnerID {
			return nil
		}
		return domain.ErrForbidden
	}
}

// BookerOrAdmin allows the person who made the booking or an admin.
func BookerOrAdmin(actorID uuid.UUID, admin bool) Guard {
	return func(b *booking.Booking, _ *property.Property) error {
		if admin || actorID == b.UserID {
			return nil
		}
		return domain.ErrForbidden
	}
}

// Cancel cancels a booking on behalf of actorID. The cancellation is
// attributed to the booker, the provider or an admin depending on who
// actorID is relative to the booking.
func (s *Service) Cancel(ctx context.Context, id, actorID uuid.UUID, reason string) (*booking.Booking, error) {
	actor := booking.UserActor(actorID)
	return s.Transition(ctx, id, booking.StatusCancelled,
		booking.Cause{Actor: &actor, Reason: reason},
		ParticipantOrAdmin(actorID, s.isAdmin(ctx, actorID)),
	)
}

// CheckIn marks a confirmed booking as in progress.
func (s *Service) CheckIn(ctx context.Context, id, actorID uuid.UUID) (*booking.Booking, error) {
	return s.ownerTransition(ctx, id, actorID, booking.StatusInProgress)
}

// Complete marks an in-progress booking as completed.
func (s *Service) Complete(ctx context.Context, id, actorID uuid.UUID) (*booking.Booking, error) {
	return s.ownerTransition(ctx, id, actorID, booking.StatusCompleted)
}

// MarkNoShow records that the booker never arrived.
func (s *Service) MarkNoShow(ctx context.Context, id, actorID uuid.UUID) (*booking.Booking, error) {
	return s.ownerTransition(ctx, id, actorID, booking.StatusNoShow)
}

func (s *Service) ownerTransition(ctx context.Context, id, actorID uuid.UUID, next booking.Status) (*booking.Booking, error) {
	actor := booking.UserActor(actorID)
	return s.Transition(ctx, id, next,
		booking.Cause{Actor: &actor},
		OwnerOrAdmin(actorID, s.isAdmin(ctx, actorID)),
	)
}

// IsAdmin reports whether userID belongs to an administrator.
func (s *Service) IsAdmin(ctx context.Context, userID uuid.UUID) bool {
	return s.isAdmin(ctx, userID)
}
