package repository

import (
	"context"

	"github.com/mywatercloset/api/infra/repository/booking"
	"github.com/mywatercloset/api/infra/repository/conversation"
	"github.com/mywatercloset/api/infra/repository/property"
	"github.com/mywatercloset/api/infra/repository/review"
	"github.com/mywatercloset/api/infra/repository/user"
	"github.com/mywatercloset/api/infra/repository/webhook"
	"github.com/mywatercloset/api/pkg/repository"
	bookingrepo "github.com/mywatercloset/api/pkg/repository/booking"
	conversationrepo "github.com/mywatercloset/api/pkg/repository/conversation"
	propertyrepo "github.com/mywatercloset/api/pkg/repository/property"
	reviewrepo "github.com/mywatercloset/api/pkg/repository/review"
	userrepo "github.com/mywatercloset/api/pkg/repository/user"
	webhookrepo "github.com/mywatercloset/api/pkg/repository/webhook"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one abstraction.
// Repositories returned inside Do share the transaction session.
type UoW struct {
	db *gorm.DB
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{db: db}
}

// Do runs the given function in a transaction boundary, providing a UoW with repository access.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UoW{db: tx})
	})
}

func (u *UoW) BookingRepository() bookingrepo.Repository {
	return booking.New(u.db)
}

func (u *UoW) PropertyRepository() propertyrepo.Repository {
	return property.New(u.db)
}

func (u *UoW) UserRepository() userrepo.Repository {
	return user.New(u.db)
}

func (u *UoW) ConversationRepository() conversationrepo.Repository {
	return conversation.New(u.db)
}

func (u *UoW) ReviewRepository() reviewrepo.Repository {
	return review.New(u.db)
}

func (u *UoW) WebhookEventRepository() webhookrepo.Repository {
	return webhook.New(u.db)
}

// Models lists every table managed by the service, parents first.
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&property.Property{},
		&booking.Booking{},
		&conversation.Conversation{},
		&conversation.Participant{},
		&conversation.Message{},
		&review.Review{},
		&webhook.Event{},
	}
}

var _ repository.UnitOfWork = (*UoW)(nil)
