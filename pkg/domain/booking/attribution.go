package booking

import "github.com/google/uuid"

// CancelledBy classifies who ended a booking, relative to the booking.
type CancelledBy string

const (
	CancelledByUser     CancelledBy = "user"
	CancelledByProvider CancelledBy = "provider"
	CancelledByAdmin    CancelledBy = "admin"
)

// Attribute classifies actorID against the booker and the property owner.
// Any actor that is neither (an admin, a webhook, a job) is attributed to
// the platform.
func Attribute(actorID, bookerID, ownerID uuid.UUID) CancelledBy {
	switch {
	case actorID != uuid.Nil && actorID == bookerID:
		return CancelledByUser
	case actorID != uuid.Nil && actorID == ownerID:
		return CancelledByProvider
	default:
		return CancelledByAdmin
	}
}
