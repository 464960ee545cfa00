package stripepayment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mywatercloset/api/pkg/config"
	"github.com/mywatercloset/api/pkg/provider/payment"
	"github.com/stripe/stripe-go/v82"
)

// StripePaymentProvider implements payment.Provider using the Stripe API.
// Charges are destination charges when the property owner has a connected
// account.
type StripePaymentProvider struct {
	client *stripe.Client
	cfg    *config.Stripe
	logger *slog.Logger
}

// New creates a new StripePaymentProvider for cfg.
func New(cfg *config.Stripe, logger *slog.Logger) *StripePaymentProvider {
	return NewWithClient(stripe.NewClient(cfg.ApiKey), cfg, logger)
}

// NewWithClient allows injecting a client built with custom backends.
func NewWithClient(client *stripe.Client, cfg *config.Stripe, logger *slog.Logger) *StripePaymentProvider {
	return &StripePaymentProvider{
		client: client,
		cfg:    cfg,
		logger: logger.With("provider", "stripe"),
	}
}

// CreateIntent creates a payment intent. The booking id is used as the
// idempotency key so a retried create returns the original intent.
func (s *StripePaymentProvider) CreateIntent(
	ctx context.Context,
	params payment.CreateIntentParams,
) (*payment.Intent, error) {
	const op = "stripepayment.CreateIntent"
	log := s.logger.With("op", op, "idempotency_key", params.IdempotencyKey)

	currency := strings.ToLower(params.Currency)
	if currency == "" {
		currency = s.cfg.Currency
	}
	p := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(params.Amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for k, v := range params.Metadata {
		p.AddMetadata(k, v)
	}
	if params.Transfer != nil {
		p.TransferData = &stripe.PaymentIntentCreateTransferDataParams{
			Destination: stripe.String(params.Transfer.Destination),
			Amount:      stripe.Int64(params.Transfer.Amount),
		}
	}
	if params.IdempotencyKey != "" {
		p.SetIdempotencyKey("pi-" + params.IdempotencyKey)
	}

	pi, err := s.client.V1PaymentIntents.Create(ctx, p)
	if err != nil {
		log.Error("failed to create payment intent", "error", err)
		return nil, fmt.Errorf("%s: %w", op, mapError(ctx, err))
	}
	log.Info("✅ Payment intent created", "payment_intent_id", pi.ID, "amount", pi.Amount)
	return toIntent(pi), nil
}

func (s *StripePaymentProvider) RetrieveIntent(ctx context.Context, id string) (*payment.Intent, error) {
	const op = "stripepayment.RetrieveIntent"
	pi, err := s.client.V1PaymentIntents.Retrieve(ctx, id, nil)
	if err != nil {
		s.logger.Error("failed to retrieve payment intent", "op", op, "payment_intent_id", id, "error", err)
		return nil, fmt.Errorf("%s: %w", op, mapError(ctx, err))
	}
	return toIntent(pi), nil
}

// RefundIntent refunds a payment intent. With ReverseTransfer the connected
// account's share is pulled back and the application fee is refunded, so
// fee and payout are reversed in proportion to the refunded amount.
func (s *StripePaymentProvider) RefundIntent(
	ctx context.Context,
	params payment.RefundParams,
) (*payment.Refund, error) {
	const op = "stripepayment.RefundIntent"
	p := &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(params.PaymentIntentID),
	}
	if params.Amount > 0 {
		p.Amount = stripe.Int64(params.Amount)
	}
	if params.ReverseTransfer {
		p.ReverseTransfer = stripe.Bool(true)
	}
	if params.Reason != "" {
		p.AddMetadata("reason", params.Reason)
	}
	if params.IdempotencyKey != "" {
		p.SetIdempotencyKey("re-" + params.IdempotencyKey)
	}

	r, err := s.client.V1Refunds.Create(ctx, p)
	if err != nil {
		s.logger.Error("failed to create refund", "op", op, "payment_intent_id", params.PaymentIntentID, "error", err)
		return nil, fmt.Errorf("%s: %w", op, mapError(ctx, err))
	}
	s.logger.Info("💸 Refund created", "refund_id", r.ID, "amount", r.Amount)
	return &payment.Refund{ID: r.ID, Amount: r.Amount, Status: string(r.Status)}, nil
}

func toIntent(pi *stripe.PaymentIntent) *payment.Intent {
	intent := &payment.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
	}
	if pi.TransferData != nil && pi.TransferData.Destination != nil {
		intent.TransferDestination = pi.TransferData.Destination.ID
	}
	return intent
}

var _ payment.Provider = (*StripePaymentProvider)(nil)
