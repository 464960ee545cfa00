package property

import (
	"context"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/infra/repository/common"
	"github.com/mywatercloset/api/pkg/domain"
	"github.com/mywatercloset/api/pkg/domain/property"
	repo "github.com/mywatercloset/api/pkg/repository/property"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) repo.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *property.Property) error {
	return common.Do(func() error {
		return r.db.WithContext(ctx).Create(toModel(p)).Error
	})
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*property.Property, error) {
	var m Property
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, common.TranslateAs(err, domain.ErrPropertyNotFound)
	}
	return toDomain(&m), nil
}

func (r *repository) UpdateStats(ctx context.Context, id uuid.UUID, stats property.Stats) error {
	return r.db.WithContext(ctx).Model(&Property{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"average_rating": stats.AverageRating,
			"review_count":   stats.ReviewCount,
		}).Error
}

func (r *repository) IncrementBookings(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&Property{}).
		Where("id = ?", id).
		UpdateColumn("total_bookings", gorm.Expr("total_bookings + ?", 1)).Error
}
