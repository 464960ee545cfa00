// Package pricing computes the price split of a booking.
package pricing

import (
	"fmt"
	"time"
)

// PlatformFeeBasisPoints is the platform commission (15%) in basis points.
const PlatformFeeBasisPoints = 1500

// Quote is the immutable price breakdown captured at booking creation.
// All amounts are in minor currency units.
type Quote struct {
	DurationMinutes int64 `json:"durationMinutes"`
	GrossAmount     int64 `json:"grossAmount"`
	PlatformFee     int64 `json:"platformFee"`
	ProviderPayout  int64 `json:"providerPayout"`
}

// DurationMinutes rounds the window up to whole minutes.
func DurationMinutes(start, end time.Time) int64 {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	minutes := int64(d / time.Minute)
	if d%time.Minute != 0 {
		minutes++
	}
	return minutes
}

// PlatformFee returns 15% of gross rounded half-up to the nearest minor unit.
func PlatformFee(gross int64) int64 {
	return (gross*PlatformFeeBasisPoints + 5000) / 10000
}

// Calculate prices a window at pricePerMinute. The caller must have
// validated the window; a negative price or broken split panics.
func Calculate(pricePerMinute int64, start, end time.Time) Quote {
	if pricePerMinute < 0 {
		panic(fmt.Sprintf("pricing: negative price per minute %d", pricePerMinute))
	}
	minutes := DurationMinutes(start, end)
	gross := pricePerMinute * minutes
	fee := PlatformFee(gross)
	payout := gross - fee
	if fee < 0 || payout < 0 || fee+payout != gross {
		panic(fmt.Sprintf("pricing: split invariant violated gross=%d fee=%d payout=%d", gross, fee, payout))
	}
	return Quote{
		DurationMinutes: minutes,
		GrossAmount:     gross,
		PlatformFee:     fee,
		ProviderPayout:  payout,
	}
}
