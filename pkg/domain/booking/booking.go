// Package booking holds the booking aggregate and its state machine.
package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain"
	"github.com/mywatercloset/api/pkg/domain/pricing"
)

// ActorKind distinguishes people from automated callers.
type ActorKind string

const (
	ActorUser   ActorKind = "user"
	ActorSystem ActorKind = "system"
)

// Actor is whoever caused a transition.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Kind ActorKind `json:"kind"`
}

// SystemActor is used for transitions driven by the payment provider.
var SystemActor = Actor{Kind: ActorSystem}

// UserActor wraps an authenticated user id.
func UserActor(id uuid.UUID) Actor {
	return Actor{ID: id, Kind: ActorUser}
}

// Cause carries the who and why of a transition.
type Cause struct {
	Actor        *Actor
	Reason       string
	RefundAmount int64
}

// Cancellation records how a booking was cancelled or refunded.
type Cancellation struct {
	CancelledAt  time.Time   `json:"cancelledAt"`
	ActorID      uuid.UUID   `json:"actorId"`
	ActorKind    ActorKind   `json:"actorKind"`
	CancelledBy  CancelledBy `json:"cancelledBy,omitempty"`
	Reason       string      `json:"reason,omitempty"`
	RefundAmount int64       `json:"refundAmount,omitempty"`
}

// Window is the reserved time range.
type Window struct {
	Start time.Time
	End   time.Time
}

// Validate checks the window is well-formed.
func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() || !w.End.After(w.Start) {
		return domain.ErrInvalidWindow
	}
	return nil
}

type Booking struct {
	ID                 uuid.UUID     `json:"id"`
	UserID             uuid.UUID     `json:"userId"`
	PropertyID         uuid.UUID     `json:"propertyId"`
	StartTime          time.Time     `json:"startTime"`
	EndTime            time.Time     `json:"endTime"`
	DurationMinutes    int64         `json:"durationMinutes"`
	Status             Status        `json:"status"`
	GrossAmount        int64         `json:"totalAmount"`
	PlatformFee        int64         `json:"platformFee"`
	ProviderPayout     int64         `json:"providerPayout"`
	Currency           string        `json:"currency"`
	PaymentIntentRef   string        `json:"paymentIntentId,omitempty"`
	AccessCode         string        `json:"accessCode,omitempty"`
	AccessInstructions string        `json:"accessInstructions,omitempty"`
	Cancellation       *Cancellation `json:"cancellation,omitempty"`
	HasBeenReviewed    bool          `json:"hasBeenReviewed"`
	Version            int64         `json:"-"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// New creates a pending booking priced once from pricePerMinute.
func New(bookerID, propertyID uuid.UUID, w Window, pricePerMinute int64, currency string) (*Booking, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	q := pricing.Calculate(pricePerMinute, w.Start, w.End)
	now := time.Now().UTC()
	return &Booking{
		ID:              uuid.New(),
		UserID:          bookerID,
		PropertyID:      propertyID,
		StartTime:       w.Start.UTC(),
		EndTime:         w.End.UTC(),
		DurationMinutes: q.DurationMinutes,
		Status:          StatusPending,
		GrossAmount:     q.GrossAmount,
		PlatformFee:     q.PlatformFee,
		ProviderPayout:  q.ProviderPayout,
		Currency:        currency,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Transition moves the booking to next, recording attribution when the
// target needs it. ownerID is the property owner at the time of the call.
// On error the booking is left unchanged.
func (b *Booking) Transition(next Status, cause Cause, ownerID uuid.UUID, now time.Time) error {
	if !b.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrIllegalTransition, b.Status, next)
	}
	if next.RequiresAttribution() {
		if cause.Actor == nil {
			return domain.ErrMissingAttribution
		}
		b.Cancellation = &Cancellation{
			CancelledAt:  now,
			ActorID:      cause.Actor.ID,
			ActorKind:    cause.Actor.Kind,
			CancelledBy:  Attribute(cause.Actor.ID, b.UserID, ownerID),
			Reason:       cause.Reason,
			RefundAmount: cause.RefundAmount,
		}
	}
	b.Status = next
	b.UpdatedAt = now
	return nil
}

// IsParticipant reports whether userID is the booker or the owner.
func (b *Booking) IsParticipant(userID, ownerID uuid.UUID) bool {
	return userID == b.UserID || userID == ownerID
}
