package user

import (
	"time"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain/user"
)

// User represents a user record in the database.
type User struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email           string    `gorm:"uniqueIndex;not null;size:255"`
	Password        string    `gorm:"not null"`
	FirstName       string    `gorm:"size:100"`
	LastName        string    `gorm:"size:100"`
	Role            string    `gorm:"size:20;not null"`
	StripeAccountID string    `gorm:"size:255"`
	StripeOnboarded bool      `gorm:"not null"`
	EmailBookings   bool      `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

func toModel(u *user.User) *User {
	return &User{
		ID:              u.ID,
		Email:           u.Email,
		Password:        u.Password,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Role:            string(u.Role),
		StripeAccountID: u.StripeAccountID,
		StripeOnboarded: u.StripeOnboarded,
		EmailBookings:   u.EmailBookings,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func toDomain(m *User) *user.User {
	return &user.User{
		ID:              m.ID,
		Email:           m.Email,
		Password:        m.Password,
		FirstName:       m.FirstName,
		LastName:        m.LastName,
		Role:            user.Role(m.Role),
		StripeAccountID: m.StripeAccountID,
		StripeOnboarded: m.StripeOnboarded,
		EmailBookings:   m.EmailBookings,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
