package mockpayment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain"
	"github.com/mywatercloset/api/pkg/provider/payment"
)

// MockPaymentProvider simulates a payment provider for tests and local development.
//
// Intents are idempotent on the idempotency key, like the real provider.
// Webhooks are accepted when the signature is the hex HMAC-SHA256 of the
// payload under the configured secret; see Sign.
type MockPaymentProvider struct {
	mu       sync.Mutex
	intents  map[string]*payment.Intent
	byKey    map[string]string
	accounts map[string]*payment.ConnectedAccount
	refunds  []payment.RefundParams

	secret  string
	creates atomic.Int64

	// Delay is applied to every CreateIntent call, honouring ctx.
	Delay time.Duration
	// Err, when set, is returned by every gateway call.
	Err error
	// LastCreate records the most recent CreateIntent params.
	LastCreate payment.CreateIntentParams
}

// NewMockPaymentProvider creates a new instance of MockPaymentProvider.
func NewMockPaymentProvider(secret string) *MockPaymentProvider {
	return &MockPaymentProvider{
		intents:  make(map[string]*payment.Intent),
		byKey:    make(map[string]string),
		accounts: make(map[string]*payment.ConnectedAccount),
		secret:   secret,
	}
}

// Creates reports how many intents were actually created.
func (m *MockPaymentProvider) Creates() int64 {
	return m.creates.Load()
}

func (m *MockPaymentProvider) CreateIntent(ctx context.Context, params payment.CreateIntentParams) (*payment.Intent, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, ctx.Err())
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.LastCreate = params
	if id, ok := m.byKey[params.IdempotencyKey]; ok && params.IdempotencyKey != "" {
		copied := *m.intents[id]
		return &copied, nil
	}
	id := "pi_mock_" + uuid.NewString()[:8]
	intent := &payment.Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.NewString()[:8],
		Amount:       params.Amount,
		Currency:     params.Currency,
		Status:       "requires_payment_method",
	}
	if params.Transfer != nil {
		intent.TransferDestination = params.Transfer.Destination
	}
	m.intents[id] = intent
	if params.IdempotencyKey != "" {
		m.byKey[params.IdempotencyKey] = id
	}
	m.creates.Add(1)
	copied := *intent
	return &copied, nil
}

func (m *MockPaymentProvider) RetrieveIntent(_ context.Context, id string) (*payment.Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	intent, ok := m.intents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *intent
	return &copied, nil
}

func (m *MockPaymentProvider) RefundIntent(_ context.Context, params payment.RefundParams) (*payment.Refund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	intent, ok := m.intents[params.PaymentIntentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	amount := params.Amount
	if amount == 0 {
		amount = intent.Amount
	}
	m.refunds = append(m.refunds, params)
	return &payment.Refund{ID: "re_mock_" + uuid.NewString()[:8], Amount: amount, Status: "pending"}, nil
}

// Refunds returns the refund requests received so far.
func (m *MockPaymentProvider) Refunds() []payment.RefundParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]payment.RefundParams(nil), m.refunds...)
}

// Payload is the JSON body accepted by VerifyWebhook.
type Payload struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	BookingID       uuid.UUID `json:"bookingId"`
	PaymentIntentID string    `json:"paymentIntentId"`
	AmountRefunded  int64     `json:"amountRefunded"`
	AccountID       string    `json:"accountId"`
	Onboarded       bool      `json:"onboarded"`
}

// Sign returns the signature VerifyWebhook expects for payload.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (m *MockPaymentProvider) VerifyWebhook(body []byte, signature string) (*payment.WebhookEvent, error) {
	if m.secret == "" {
		return nil, fmt.Errorf("%w: signing secret not configured", domain.ErrInvalidSignature)
	}
	if !hmac.Equal([]byte(Sign(body, m.secret)), []byte(signature)) {
		return nil, domain.ErrInvalidSignature
	}
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}
	return &payment.WebhookEvent{
		ID:               p.ID,
		Type:             payment.EventType(p.Type),
		BookingID:        p.BookingID,
		PaymentIntentID:  p.PaymentIntentID,
		AmountRefunded:   p.AmountRefunded,
		AccountID:        p.AccountID,
		DetailsSubmitted: p.Onboarded,
	}, nil
}

func (m *MockPaymentProvider) CreateConnectedAccount(_ context.Context, userID uuid.UUID, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := "acct_mock_" + userID.String()[:8]
	if _, ok := m.accounts[id]; !ok {
		m.accounts[id] = &payment.ConnectedAccount{ID: id}
	}
	return id, nil
}

func (m *MockPaymentProvider) CreateOnboardingLink(_ context.Context, accountID string) (string, error) {
	return "https://connect.mock/onboarding/" + accountID, nil
}

func (m *MockPaymentProvider) GetConnectedAccount(_ context.Context, accountID string) (*payment.ConnectedAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *acct
	return &copied, nil
}

// CompleteOnboarding marks a connected account as fully onboarded.
func (m *MockPaymentProvider) CompleteOnboarding(accountID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[accountID] = &payment.ConnectedAccount{
		ID:               accountID,
		DetailsSubmitted: true,
		ChargesEnabled:   true,
		PayoutsEnabled:   true,
	}
}

func (m *MockPaymentProvider) CreateLoginLink(_ context.Context, accountID string) (string, error) {
	return "https://connect.mock/login/" + accountID, nil
}

var _ payment.Provider = (*MockPaymentProvider)(nil)
