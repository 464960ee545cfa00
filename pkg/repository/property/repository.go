package property

import (
	"context"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain/property"
)

type Repository interface {
	Create(ctx context.Context, p *property.Property) error
	// Get returns domain.ErrPropertyNotFound when no row matches.
	Get(ctx context.Context, id uuid.UUID) (*property.Property, error)
	UpdateStats(ctx context.Context, id uuid.UUID, stats property.Stats) error
	IncrementBookings(ctx context.Context, id uuid.UUID) error
}
