package review

import (
	"context"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain/review"
)

type Repository interface {
	// Create returns domain.ErrAlreadyExists if the booking was already reviewed.
	Create(ctx context.Context, r *review.Review) error
	ListByProperty(ctx context.Context, propertyID uuid.UUID, limit int) ([]*review.Review, error)
}
