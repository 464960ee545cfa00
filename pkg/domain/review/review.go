package review

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain"
)

const maxCommentLength = 1000

type Review struct {
	ID         uuid.UUID `json:"id"`
	BookingID  uuid.UUID `json:"bookingId"`
	PropertyID uuid.UUID `json:"propertyId"`
	UserID     uuid.UUID `json:"userId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// New validates and builds a review.
func New(bookingID, propertyID, userID uuid.UUID, rating int, comment string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, domain.ErrInvalidRating
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > maxCommentLength {
		comment = comment[:maxCommentLength]
	}
	return &Review{
		ID:         uuid.New(),
		BookingID:  bookingID,
		PropertyID: propertyID,
		UserID:     userID,
		Rating:     rating,
		Comment:    comment,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
