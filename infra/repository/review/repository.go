package review

import (
	"context"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/infra/repository/common"
	"github.com/mywatercloset/api/pkg/domain/review"
	repo "github.com/mywatercloset/api/pkg/repository/review"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) repo.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, rv *review.Review) error {
	return common.Do(func() error {
		return r.db.WithContext(ctx).Create(toModel(rv)).Error
	})
}

func (r *repository) ListByProperty(ctx context.Context, propertyID uuid.UUID, limit int) ([]*review.Review, error) {
	var models []Review
	if err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("created_at desc").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*review.Review, 0, len(models))
	for i := range models {
		out = append(out, toDomain(&models[i]))
	}
	return out, nil
}
