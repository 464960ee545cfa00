package payment

import (
	"context"

	"github.com/google/uuid"
)

// Gateway is the payment provider used to settle bookings.
//
// Implementations map transient failures (timeouts, 5xx, rate limits) to
// domain.ErrGatewayUnavailable and signature problems to
// domain.ErrInvalidSignature.
type Gateway interface {
	CreateIntent(ctx context.Context, params CreateIntentParams) (*Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
	RefundIntent(ctx context.Context, params RefundParams) (*Refund, error)
	// VerifyWebhook fails closed: a missing secret rejects every payload.
	VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// Connect manages provider payout accounts.
type Connect interface {
	CreateConnectedAccount(ctx context.Context, userID uuid.UUID, email string) (string, error)
	CreateOnboardingLink(ctx context.Context, accountID string) (string, error)
	GetConnectedAccount(ctx context.Context, accountID string) (*ConnectedAccount, error)
	CreateLoginLink(ctx context.Context, accountID string) (string, error)
}

// Provider is a gateway that also supports connected accounts.
type Provider interface {
	Gateway
	Connect
}
