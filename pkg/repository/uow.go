package repository

import (
	"context"

	"github.com/mywatercloset/api/pkg/repository/booking"
	"github.com/mywatercloset/api/pkg/repository/conversation"
	"github.com/mywatercloset/api/pkg/repository/property"
	"github.com/mywatercloset/api/pkg/repository/review"
	"github.com/mywatercloset/api/pkg/repository/user"
	"github.com/mywatercloset/api/pkg/repository/webhook"
)

// UnitOfWork defines the contract for transactional work and repository access.
//
// Do runs fn in a transaction boundary; repositories obtained from the
// UnitOfWork passed to fn share that transaction. Repositories obtained
// outside Do use the plain connection.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	BookingRepository() booking.Repository
	PropertyRepository() property.Repository
	UserRepository() user.Repository
	ConversationRepository() conversation.Repository
	ReviewRepository() review.Repository
	WebhookEventRepository() webhook.Repository
}
