package review

import (
	"time"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain/review"
)

type Review struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID  uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	PropertyID uuid.UUID `gorm:"type:uuid;index;not null"`
	UserID     uuid.UUID `gorm:"type:uuid;index;not null"`
	Rating     int       `gorm:"not null"`
	Comment    string    `gorm:"size:1000"`
	CreatedAt  time.Time
}

func (Review) TableName() string { return "reviews" }

func toModel(r *review.Review) *Review {
	return &Review{
		ID:         r.ID,
		BookingID:  r.BookingID,
		PropertyID: r.PropertyID,
		UserID:     r.UserID,
		Rating:     r.Rating,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt,
	}
}

func toDomain(m *Review) *review.Review {
	return &review.Review{
		ID:         m.ID,
		BookingID:  m.BookingID,
		PropertyID: m.PropertyID,
		UserID:     m.UserID,
		Rating:     m.Rating,
		Comment:    m.Comment,
		CreatedAt:  m.CreatedAt,
	}
}
