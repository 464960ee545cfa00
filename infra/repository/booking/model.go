package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain/booking"
)

// Booking represents a booking record in the database.
type Booking struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID             uuid.UUID  `gorm:"type:uuid;index;not null"`
	PropertyID         uuid.UUID  `gorm:"type:uuid;index;not null"`
	StartTime          time.Time  `gorm:"not null"`
	EndTime            time.Time  `gorm:"not null"`
	DurationMinutes    int64      `gorm:"not null"`
	Status             string     `gorm:"size:20;index;not null"`
	GrossAmount        int64      `gorm:"not null"`
	PlatformFee        int64      `gorm:"not null"`
	ProviderPayout     int64      `gorm:"not null"`
	Currency           string     `gorm:"size:3;not null"`
	PaymentIntentRef   string     `gorm:"size:255;index"`
	AccessCode         string     `gorm:"size:16"`
	AccessInstructions string     `gorm:"type:text"`
	CancelledAt        *time.Time
	CancelActorID      *uuid.UUID `gorm:"type:uuid"`
	CancelActorKind    string     `gorm:"size:10"`
	CancelledBy        string     `gorm:"size:10"`
	CancelReason       string     `gorm:"type:text"`
	RefundAmount       int64
	HasBeenReviewed    bool  `gorm:"not null"`
	Version            int64 `gorm:"not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName specifies the table name for the Booking model.
func (Booking) TableName() string {
	return "bookings"
}

func toModel(b *booking.Booking) *Booking {
	m := &Booking{
		ID:                 b.ID,
		UserID:             b.UserID,
		PropertyID:         b.PropertyID,
		StartTime:          b.StartTime,
		EndTime:            b.EndTime,
		DurationMinutes:    b.DurationMinutes,
		Status:             string(b.Status),
		GrossAmount:        b.GrossAmount,
		PlatformFee:        b.PlatformFee,
		ProviderPayout:     b.ProviderPayout,
		Currency:           b.Currency,
		PaymentIntentRef:   b.PaymentIntentRef,
		AccessCode:         b.AccessCode,
		AccessInstructions: b.AccessInstructions,
		HasBeenReviewed:    b.HasBeenReviewed,
		Version:            b.Version,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
	if c := b.Cancellation; c != nil {
		at := c.CancelledAt
		actor := c.ActorID
		m.CancelledAt = &at
		m.CancelActorID = &actor
		m.CancelActorKind = string(c.ActorKind)
		m.CancelledBy = string(c.CancelledBy)
		m.CancelReason = c.Reason
		m.RefundAmount = c.RefundAmount
	}
	return m
}

func toDomain(m *Booking) *booking.Booking {
	b := &booking.Booking{
		ID:                 m.ID,
		UserID:             m.UserID,
		PropertyID:         m.PropertyID,
		StartTime:          m.StartTime.UTC(),
		EndTime:            m.EndTime.UTC(),
		DurationMinutes:    m.DurationMinutes,
		Status:             booking.Status(m.Status),
		GrossAmount:        m.GrossAmount,
		PlatformFee:        m.PlatformFee,
		ProviderPayout:     m.ProviderPayout,
		Currency:           m.Currency,
		PaymentIntentRef:   m.PaymentIntentRef,
		AccessCode:         m.AccessCode,
		AccessInstructions: m.AccessInstructions,
		HasBeenReviewed:    m.HasBeenReviewed,
		Version:            m.Version,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	if m.CancelledAt != nil {
		c := &booking.Cancellation{
			CancelledAt:  m.CancelledAt.UTC(),
			ActorKind:    booking.ActorKind(m.CancelActorKind),
			CancelledBy:  booking.CancelledBy(m.CancelledBy),
			Reason:       m.CancelReason,
			RefundAmount: m.RefundAmount,
		}
		if m.CancelActorID != nil {
			c.ActorID = *m.CancelActorID
		}
		b.Cancellation = c
	}
	return b
}
