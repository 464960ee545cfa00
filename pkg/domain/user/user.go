package user

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/utils"
)

// Role is the access level of an account.
type Role string

const (
	RoleUser     Role = "user"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// User represents an account on the marketplace.
type User struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Password        string    `json:"-"`
	Role            Role      `json:"role"`
	StripeAccountID string    `json:"stripeAccountId,omitempty"`
	StripeOnboarded bool      `json:"stripeOnboarded"`
	// EmailBookings is the booking notification preference.
	EmailBookings bool      `json:"emailBookings"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewUser creates a user with a hashed password. Only user and provider
// roles can be self-assigned.
func NewUser(email, password, firstName, lastName string, role Role) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !utils.IsEmail(email) {
		return nil, errors.New("invalid email")
	}
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}
	if role == "" {
		role = RoleUser
	}
	if role != RoleUser && role != RoleProvider {
		return nil, errors.New("role must be user or provider")
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &User{
		ID:            uuid.New(),
		Email:         email,
		FirstName:     firstName,
		LastName:      lastName,
		Password:      hashed,
		Role:          role,
		EmailBookings: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// CanReceivePayouts reports whether destination charges can be routed to u.
func (u *User) CanReceivePayouts() bool {
	return u != nil && u.StripeAccountID != "" && u.StripeOnboarded
}

// DisplayName falls back to the e-mail address.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}
