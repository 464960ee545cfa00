package user

import (
	"context"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain/user"
)

// Repository defines the interface for user data access operations.
type Repository interface {
	Create(ctx context.Context, u *user.User) error

	// Get returns domain.ErrNotFound when no row matches.
	Get(ctx context.Context, id uuid.UUID) (*user.User, error)

	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByStripeAccountID(ctx context.Context, accountID string) (*user.User, error)

	// UpdateStripeAccount stores the connected account and its onboarding state.
	UpdateStripeAccount(ctx context.Context, id uuid.UUID, accountID string, onboarded bool) error
}
