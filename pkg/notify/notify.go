// Package notify renders and sends booking e-mails.
package notify

import (
	"context"
)

// Kind identifies a notification template.
type Kind string

const (
	KindBookingConfirmation        Kind = "booking_confirmation"
	KindNewBookingProvider         Kind = "new_booking_provider"
	KindBookingCancelled           Kind = "booking_cancelled"
	KindBookingCancelledByCustomer Kind = "booking_cancelled_by_customer"
	KindReviewRequest              Kind = "booking_completed_review_request"
)

type Recipient struct {
	Email string
	Name  string
}

// Email is a rendered message ready to send.
type Email struct {
	Kind    Kind
	To      Recipient
	Subject string
	HTML    string
}

// Notifier delivers e-mails.
type Notifier interface {
	Send(ctx context.Context, email Email) error
}
