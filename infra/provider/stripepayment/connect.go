package stripepayment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/provider/payment"
	"github.com/stripe/stripe-go/v82"
)

// CreateConnectedAccount creates an Express account for a provider.
func (s *StripePaymentProvider) CreateConnectedAccount(
	ctx context.Context,
	userID uuid.UUID,
	email string,
) (string, error) {
	const op = "stripepayment.CreateConnectedAccount"
	params := &stripe.AccountCreateParams{
		Type:  stripe.String(string(stripe.AccountTypeExpress)),
		Email: stripe.String(email),
		Capabilities: &stripe.AccountCreateCapabilitiesParams{
			CardPayments: &stripe.AccountCreateCapabilitiesCardPaymentsParams{
				Requested: stripe.Bool(true),
			},
			Transfers: &stripe.AccountCreateCapabilitiesTransfersParams{
				Requested: stripe.Bool(true),
			},
		},
	}
	params.AddMetadata(payment.MetadataUserID, userID.String())
	params.SetIdempotencyKey("acct-" + userID.String())

	account, err := s.client.V1Accounts.Create(ctx, params)
	if err != nil {
		s.logger.Error("failed to create connected account", "op", op, "user_id", userID, "error", err)
		return "", fmt.Errorf("%s: %w", op, mapError(ctx, err))
	}
	s.logger.Info("🏦 Connected account created", "account_id", account.ID, "user_id", userID)
	return account.ID, nil
}

func (s *StripePaymentProvider) CreateOnboardingLink(ctx context.Context, accountID string) (string, error) {
	const op = "stripepayment.CreateOnboardingLink"
	link, err := s.client.V1AccountLinks.Create(ctx, &stripe.AccountLinkCreateParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(s.cfg.OnboardingRefreshURL),
		ReturnURL:  stripe.String(s.cfg.OnboardingReturnURL),
		Type:       stripe.String("account_onboarding"),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapError(ctx, err))
	}
	return link.URL, nil
}

func (s *StripePaymentProvider) GetConnectedAccount(ctx context.Context, accountID string) (*payment.ConnectedAccount, error) {
	const op = "stripepayment.GetConnectedAccount"
	account, err := s.client.V1Accounts.GetByID(ctx, accountID, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(ctx, err))
	}
	return &payment.ConnectedAccount{
		ID:               account.ID,
		DetailsSubmitted: account.DetailsSubmitted,
		ChargesEnabled:   account.ChargesEnabled,
		PayoutsEnabled:   account.PayoutsEnabled,
	}, nil
}

// CreateLoginLink returns a one-time link to the Express dashboard.
func (s *StripePaymentProvider) CreateLoginLink(ctx context.Context, accountID string) (string, error) {
	const op = "stripepayment.CreateLoginLink"
	link, err := s.client.V1LoginLinks.Create(ctx, &stripe.LoginLinkCreateParams{
		Account: stripe.String(accountID),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapError(ctx, err))
	}
	return link.URL, nil
}
