package user

import (
	"context"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/infra/repository/common"
	"github.com/mywatercloset/api/pkg/domain"
	"github.com/mywatercloset/api/pkg/domain/user"
	repo "github.com/mywatercloset/api/pkg/repository/user"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) repo.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, u *user.User) error {
	return common.Do(func() error {
		return r.db.WithContext(ctx).Create(toModel(u)).Error
	})
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *repository) GetByStripeAccountID(ctx context.Context, accountID string) (*user.User, error) {
	return r.first(ctx, "stripe_account_id = ?", accountID)
}

func (r *repository) first(ctx context.Context, query string, arg interface{}) (*user.User, error) {
	var m User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error; err != nil {
		return nil, common.TranslateAs(err, domain.ErrNotFound)
	}
	return toDomain(&m), nil
}

func (r *repository) UpdateStripeAccount(
	ctx context.Context,
	id uuid.UUID,
	accountID string,
	onboarded bool,
) error {
	res := r.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stripe_account_id": accountID,
			"stripe_onboarded":  onboarded,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
