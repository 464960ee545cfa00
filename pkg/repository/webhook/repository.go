package webhook

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the ledger of webhook deliveries that have been applied.
// Record it through the UnitOfWork that applies the delivery so the two
// commit together.
type Repository interface {
	// Record stores the event id and reports whether this is its first
	// delivery. A repeat delivery returns false and no error.
	Record(ctx context.Context, provider, eventID, eventType string, bookingID uuid.UUID) (bool, error)
}
