package conversation

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser     Role = "user"
	RoleProvider Role = "provider"
)

type Participant struct {
	UserID uuid.UUID `json:"userId"`
	Role   Role      `json:"role"`
}

// Conversation is the message thread between a booker and a provider.
// There is at most one per booking.
type Conversation struct {
	ID           uuid.UUID     `json:"id"`
	BookingID    uuid.UUID     `json:"bookingId"`
	PropertyID   uuid.UUID     `json:"propertyId"`
	Participants []Participant `json:"participants"`
	Status       string        `json:"status"`
	LastMessage  *LastMessage  `json:"lastMessage,omitempty"`
	MessageCount int64         `json:"messageCount"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// HasParticipant reports whether userID takes part in the conversation.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// ForBooking builds the conversation for a confirmed booking.
func ForBooking(bookingID, propertyID, bookerID, ownerID uuid.UUID) *Conversation {
	return &Conversation{
		ID:         uuid.New(),
		BookingID:  bookingID,
		PropertyID: propertyID,
		Participants: []Participant{
			{UserID: bookerID, Role: RoleUser},
			{UserID: ownerID, Role: RoleProvider},
		},
		Status:    "active",
		CreatedAt: time.Now().UTC(),
	}
}
