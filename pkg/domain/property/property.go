package property

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Property is a bookable restroom listing.
type Property struct {
	ID             uuid.UUID `json:"id"`
	OwnerID        uuid.UUID `json:"ownerId"`
	Name           string    `json:"name"`
	PricePerMinute int64     `json:"pricePerMinute"`
	Address        string    `json:"address"`
	City           string    `json:"city"`
	State          string    `json:"state"`
	Status         Status    `json:"status"`
	Stats          Stats     `json:"stats"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Stats are denormalised counters kept alongside the listing.
type Stats struct {
	TotalBookings int64   `json:"totalBookings"`
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int64   `json:"reviewCount"`
}

// WithReview returns stats updated by one more rating.
func (s Stats) WithReview(rating int) Stats {
	total := s.AverageRating*float64(s.ReviewCount) + float64(rating)
	s.ReviewCount++
	s.AverageRating = total / float64(s.ReviewCount)
	return s
}
