// Package stripeconnect onboards providers onto connected payout accounts.
package stripeconnect

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain"
	"github.com/mywatercloset/api/pkg/domain/user"
	"github.com/mywatercloset/api/pkg/provider/payment"
	"github.com/mywatercloset/api/pkg/repository"
)

// Status is the onboarding state reported to a provider.
type Status struct {
	AccountID        string `json:"accountId,omitempty"`
	Onboarded        bool   `json:"onboarded"`
	DetailsSubmitted bool   `json:"detailsSubmitted"`
	PayoutsEnabled   bool   `json:"payoutsEnabled"`
}

type Service struct {
	uow     repository.UnitOfWork
	connect payment.Connect
	timeout time.Duration
	logger  *slog.Logger
}

func New(
	uow repository.UnitOfWork,
	connect payment.Connect,
	timeout time.Duration,
	logger *slog.Logger,
) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		uow:     uow,
		connect: connect,
		timeout: timeout,
		logger:  logger.With("service", "stripeconnect"),
	}
}

// Onboard returns an onboarding link, creating the connected account first
// when the provider has none.
func (s *Service) Onboard(ctx context.Context, userID uuid.UUID) (string, error) {
	const op = "stripeconnect.Onboard"
	log := s.logger.With("userID", userID)

	u, err := s.provider(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	accountID := u.StripeAccountID
	if accountID == "" {
		accountID, err = s.connect.CreateConnectedAccount(gctx, u.ID, u.Email)
		if err != nil {
			log.Error("Failed to create connected account", "error", err)
			return "", fmt.Errorf("%s: %w", op, err)
		}
		if err := s.uow.UserRepository().UpdateStripeAccount(ctx, u.ID, accountID, false); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		log.Info("✅ Connected account created", "accountID", accountID)
	}

	link, err := s.connect.CreateOnboardingLink(gctx, accountID)
	if err != nil {
		log.Error("Failed to create onboarding link", "error", err)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return link, nil
}

// Status refreshes the onboarding state from the provider and stores it.
func (s *Service) Status(ctx context.Context, userID uuid.UUID) (*Status, error) {
	const op = "stripeconnect.Status"

	u, err := s.provider(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if u.StripeAccountID == "" {
		return &Status{}, nil
	}

	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	acct, err := s.connect.GetConnectedAccount(gctx, u.StripeAccountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if acct.Onboarded() != u.StripeOnboarded {
		if err := s.uow.UserRepository().UpdateStripeAccount(ctx, u.ID, acct.ID, acct.Onboarded()); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.logger.Info("Onboarding state changed", "userID", u.ID, "onboarded", acct.Onboarded())
	}
	return &Status{
		AccountID:        acct.ID,
		Onboarded:        acct.Onboarded(),
		DetailsSubmitted: acct.DetailsSubmitted,
		PayoutsEnabled:   acct.PayoutsEnabled,
	}, nil
}

// LoginLink returns a dashboard link for an onboarded provider.
func (s *Service) LoginLink(ctx context.Context, userID uuid.UUID) (string, error) {
	const op = "stripeconnect.LoginLink"

	u, err := s.provider(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !u.CanReceivePayouts() {
		return "", fmt.Errorf("%s: %w", op, domain.ErrProviderNotOnboarded)
	}
	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.connect.CreateLoginLink(gctx, u.StripeAccountID)
}

func (s *Service) provider(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	u, err := s.uow.UserRepository().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role != user.RoleProvider {
		return nil, domain.ErrForbidden
	}
	return u, nil
}
