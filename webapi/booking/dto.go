package booking

import (
	"time"

	"github.com/google/uuid"
)

// CreateBookingRequest is the body of POST /api/bookings.
type CreateBookingRequest struct {
	PropertyID uuid.UUID `json:"propertyId" validate:"required"`
	StartTime  time.Time `json:"startTime" validate:"required"`
	EndTime    time.Time `json:"endTime" validate:"required"`
}

// ReasonRequest carries an optional free-text reason.
type ReasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// MessageRequest is the body for posting or editing a conversation message.
type MessageRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}
