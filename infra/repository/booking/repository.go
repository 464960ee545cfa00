package booking

import (
	"context"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/infra/repository/common"
	"github.com/mywatercloset/api/pkg/domain"
	"github.com/mywatercloset/api/pkg/domain/booking"
	repo "github.com/mywatercloset/api/pkg/repository/booking"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) repo.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, b *booking.Booking) error {
	return common.Do(func() error {
		return r.db.WithContext(ctx).Create(toModel(b)).Error
	})
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	var m Booking
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, common.TranslateAs(err, domain.ErrBookingNotFound)
	}
	return toDomain(&m), nil
}

func (r *repository) UpdateIfVersionMatches(ctx context.Context, b *booking.Booking) error {
	m := toModel(b)
	updates := map[string]interface{}{
		"status":              m.Status,
		"payment_intent_ref":  m.PaymentIntentRef,
		"access_code":         m.AccessCode,
		"access_instructions": m.AccessInstructions,
		"cancelled_at":        m.CancelledAt,
		"cancel_actor_id":     m.CancelActorID,
		"cancel_actor_kind":   m.CancelActorKind,
		"cancelled_by":        m.CancelledBy,
		"cancel_reason":       m.CancelReason,
		"refund_amount":       m.RefundAmount,
		"has_been_reviewed":   m.HasBeenReviewed,
		"version":             b.Version + 1,
		"updated_at":          m.UpdatedAt,
	}
	res := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND version = ?", b.ID, b.Version).
		Updates(updates)
	if res.Error != nil {
		return common.Translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	b.Version++
	return nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*booking.Booking, error) {
	var models []Booking
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_time desc").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainList(models), nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*booking.Booking, error) {
	var models []Booking
	if err := r.db.WithContext(ctx).
		Joins("JOIN properties ON properties.id = bookings.property_id").
		Where("properties.owner_id = ?", ownerID).
		Order("bookings.start_time desc").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainList(models), nil
}

func toDomainList(models []Booking) []*booking.Booking {
	result := make([]*booking.Booking, 0, len(models))
	for i := range models {
		result = append(result, toDomain(&models[i]))
	}
	return result
}
