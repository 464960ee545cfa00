package domain

import "errors"

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrValidation is returned when input validation fails
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized is returned when the caller could not be identified
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when a user is not allowed to perform an action
	ErrForbidden = errors.New("forbidden")
)

// Booking lifecycle errors
var (
	ErrInvalidWindow      = errors.New("booking window end must be after start")
	ErrPropertyNotFound   = errors.New("property not found")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrIllegalTransition  = errors.New("illegal booking status transition")
	ErrMissingAttribution = errors.New("cancellation or refund requires an actor")
	// ErrVersionConflict is returned when a conditional write lost a race.
	ErrVersionConflict = errors.New("booking was modified concurrently")
)

// Settlement errors
var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrGatewayUnavailable marks a payment gateway failure that is safe to retry.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrDuplicateWebhookEvent is returned when a webhook delivery was already applied.
	ErrDuplicateWebhookEvent = errors.New("webhook event already processed")
	ErrPaymentNotStarted     = errors.New("booking has no payment intent")
	ErrProviderNotOnboarded  = errors.New("provider has no connected payment account")
)

var (
	ErrReviewNotAllowed = errors.New("only the booker of a completed booking can review it")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
)
