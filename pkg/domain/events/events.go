// Package events defines the messages carried on the event bus.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain/booking"
)

type EventType string

func (t EventType) String() string { return string(t) }

const (
	EventTypeBookingTransitioned EventType = "booking.transitioned"
)

// Event is anything that can be published on the bus.
type Event interface {
	Type() string
}

// EventTypes maps a wire type to a constructor so transports can decode
// envelopes back into concrete events.
var EventTypes = map[EventType]func() Event{
	EventTypeBookingTransitioned: func() Event { return &BookingTransitioned{} },
}

// BookingTransitioned is published after a status change has been committed.
// It carries everything the side effects need, so handlers never have to
// recompute attribution.
type BookingTransitioned struct {
	ID          uuid.UUID           `json:"id"`
	BookingID   uuid.UUID           `json:"bookingId"`
	BookerID    uuid.UUID           `json:"bookerId"`
	PropertyID  uuid.UUID           `json:"propertyId"`
	OwnerID     uuid.UUID           `json:"ownerId"`
	From        booking.Status      `json:"from"`
	To          booking.Status      `json:"to"`
	CancelledBy booking.CancelledBy `json:"cancelledBy,omitempty"`
	Reason      string              `json:"reason,omitempty"`
	OccurredAt  time.Time           `json:"occurredAt"`
}

func (e BookingTransitioned) Type() string { return EventTypeBookingTransitioned.String() }

// NewBookingTransitioned builds the event for b after it moved from prev.
func NewBookingTransitioned(b *booking.Booking, prev booking.Status, ownerID uuid.UUID) *BookingTransitioned {
	e := &BookingTransitioned{
		ID:         uuid.New(),
		BookingID:  b.ID,
		BookerID:   b.UserID,
		PropertyID: b.PropertyID,
		OwnerID:    ownerID,
		From:       prev,
		To:         b.Status,
		OccurredAt: b.UpdatedAt,
	}
	if b.Cancellation != nil {
		e.CancelledBy = b.Cancellation.CancelledBy
		e.Reason = b.Cancellation.Reason
	}
	return e
}
