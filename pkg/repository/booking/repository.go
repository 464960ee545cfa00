package booking

import (
	"context"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain/booking"
)

// Repository persists bookings. Every mutation after creation is a
// conditional write on the booking version.
type Repository interface {
	Create(ctx context.Context, b *booking.Booking) error

	// Get returns domain.ErrBookingNotFound when no row matches.
	Get(ctx context.Context, id uuid.UUID) (*booking.Booking, error)

	// UpdateIfVersionMatches writes the mutable fields of b only if the stored
	// version still equals b.Version, then bumps b.Version. A lost race
	// returns domain.ErrVersionConflict and leaves b untouched.
	UpdateIfVersionMatches(ctx context.Context, b *booking.Booking) error

	// ListByUser returns the newest bookings made by userID.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*booking.Booking, error)

	// ListByOwner returns the newest bookings for properties owned by ownerID.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*booking.Booking, error)
}
