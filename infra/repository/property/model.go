package property

import (
	"time"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain/property"
)

// Property represents a listing record in the database.
type Property struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID        uuid.UUID `gorm:"type:uuid;index;not null"`
	Name           string    `gorm:"size:255;not null"`
	PricePerMinute int64     `gorm:"not null"`
	Address        string    `gorm:"size:255"`
	City           string    `gorm:"size:100"`
	State          string    `gorm:"size:50"`
	Status         string    `gorm:"size:20;not null"`
	TotalBookings  int64
	AverageRating  float64
	ReviewCount    int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Property) TableName() string {
	return "properties"
}

func toModel(p *property.Property) *Property {
	return &Property{
		ID:             p.ID,
		OwnerID:        p.OwnerID,
		Name:           p.Name,
		PricePerMinute: p.PricePerMinute,
		Address:        p.Address,
		City:           p.City,
		State:          p.State,
		Status:         string(p.Status),
		TotalBookings:  p.Stats.TotalBookings,
		AverageRating:  p.Stats.AverageRating,
		ReviewCount:    p.Stats.ReviewCount,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toDomain(m *Property) *property.Property {
	return &property.Property{
		ID:             m.ID,
		OwnerID:        m.OwnerID,
		Name:           m.Name,
		PricePerMinute: m.PricePerMinute,
		Address:        m.Address,
		City:           m.City,
		State:          m.State,
		Status:         property.Status(m.Status),
		Stats: property.Stats{
			TotalBookings: m.TotalBookings,
			AverageRating: m.AverageRating,
			ReviewCount:   m.ReviewCount,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
