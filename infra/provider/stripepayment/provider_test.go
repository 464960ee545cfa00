package stripepayment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/config"
	"github.com/mywatercloset/api/pkg/domain"
	"github.com/mywatercloset/api/pkg/provider/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testSecret = "whsec_test_secret"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) *StripePaymentProvider {
	t.Helper()
	cfg := &config.Stripe{ApiKey: "sk_test_123", SigningSecret: testSecret, Currency: "usd"}
	if handler == nil {
		return New(cfg, testLogger())
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	backends := stripe.NewBackendsWithConfig(&stripe.BackendConfig{
		URL:               stripe.String(server.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
	client := stripe.NewClient(cfg.ApiKey, stripe.WithBackends(backends))
	return NewWithClient(client, cfg, testLogger())
}

func signedEvent(t *testing.T, eventType string, object any) ([]byte, string) {
	t.Helper()
	raw, err := json.Marshal(object)
	require.NoError(t, err)
	payload := []byte(fmt.Sprintf(`{"id":"evt_%s","object":"event","type":%q,"api_version":%q,"data":{"object":%s}}`,
		uuid.NewString(), eventType, stripe.APIVersion, raw))
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func TestVerifyWebhook(t *testing.T) {
	p := newTestProvider(t, nil)
	bookingID := uuid.New()

	t.Run("checkout session carries booking and intent", func(t *testing.T) {
		payload, header := signedEvent(t, "checkout.session.completed", map[string]any{
			"id":             "cs_1",
			"object":         "checkout.session",
			"payment_intent": "pi_123",
			"metadata":       map[string]string{"bookingId": bookingID.String()},
		})
		evt, err := p.VerifyWebhook(payload, header)
		require.NoError(t, err)
		assert.Equal(t, payment.EventCheckoutSessionCompleted, evt.Type)
		assert.Equal(t, bookingID, evt.BookingID)
		assert.Equal(t, "pi_123", evt.PaymentIntentID)
	})

	t.Run("charge refunded carries amount", func(t *testing.T) {
		payload, header := signedEvent(t, "charge.refunded", map[string]any{
			"id":              "ch_1",
			"object":          "charge",
			"amount_refunded": 660,
			"payment_intent":  "pi_123",
			"metadata":        map[string]string{"bookingId": bookingID.String()},
		})
		evt, err := p.VerifyWebhook(payload, header)
		require.NoError(t, err)
		assert.Equal(t, int64(660), evt.AmountRefunded)
		assert.Equal(t, bookingID, evt.BookingID)
	})

	t.Run("missing booking metadata yields nil id", func(t *testing.T) {
		payload, header := signedEvent(t, "payment_intent.payment_failed", map[string]any{
			"id":     "pi_9",
			"object": "payment_intent",
		})
		evt, err := p.VerifyWebhook(payload, header)
		require.NoError(t, err)
		assert.Equal(t, uuid.Nil, evt.BookingID)
	})

	t.Run("unknown types are decoded but not parsed", func(t *testing.T) {
		payload, header := signedEvent(t, "customer.created", map[string]any{"id": "cus_1", "object": "customer"})
		evt, err := p.VerifyWebhook(payload, header)
		require.NoError(t, err)
		assert.Equal(t, payment.EventType("customer.created"), evt.Type)
	})

	t.Run("tampered payload is rejected", func(t *testing.T) {
		payload, header := signedEvent(t, "payment_intent.succeeded", map[string]any{"id": "pi_1", "object": "payment_intent"})
		payload = append(payload[:len(payload)-1], []byte(` `)...)
		_, err := p.VerifyWebhook(payload, header)
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		payload, _ := signedEvent(t, "payment_intent.succeeded", map[string]any{"id": "pi_1", "object": "payment_intent"})
		_, err := p.VerifyWebhook(payload, "")
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	})
}

func TestVerifyWebhook_FailsClosedWithoutSecret(t *testing.T) {
	p := New(&config.Stripe{ApiKey: "sk_test"}, testLogger())
	payload, header := signedEvent(t, "payment_intent.succeeded", map[string]any{"id": "pi_1", "object": "payment_intent"})
	_, err := p.VerifyWebhook(payload, header)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestCreateIntent_SendsTransferAndIdempotencyKey(t *testing.T) {
	bookingID := uuid.New()
	var form url.Values
	var idempotencyKey string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))
		idempotencyKey = r.Header.Get("Idempotency-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_abc","object":"payment_intent","amount":660,"currency":"usd","client_secret":"pi_abc_secret","status":"requires_payment_method"}`))
	})

	intent, err := p.CreateIntent(context.Background(), payment.CreateIntentParams{
		IdempotencyKey: bookingID.String(),
		Amount:         660,
		Currency:       "USD",
		Metadata:       map[string]string{"bookingId": bookingID.String()},
		Transfer:       &payment.Transfer{Destination: "acct_1", Amount: 561},
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_abc", intent.ID)
	assert.Equal(t, "pi_abc_secret", intent.ClientSecret)
	assert.Equal(t, "pi-"+bookingID.String(), idempotencyKey)
	assert.Equal(t, "660", form.Get("amount"))
	assert.Equal(t, "usd", form.Get("currency"))
	assert.Equal(t, "acct_1", form.Get("transfer_data[destination]"))
	assert.Equal(t, "561", form.Get("transfer_data[amount]"))
	assert.Equal(t, bookingID.String(), form.Get("metadata[bookingId]"))
}

func TestCreateIntent_ServerErrorIsRetryable(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"type":"api_error","message":"down"}}`))
	})
	_, err := p.CreateIntent(context.Background(), payment.CreateIntentParams{Amount: 100, Currency: "usd"})
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
}

func TestMapError(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, mapError(ctx, nil))
	assert.ErrorIs(t, mapError(ctx, context.DeadlineExceeded), domain.ErrGatewayUnavailable)
	assert.ErrorIs(t, mapError(ctx, &stripe.Error{HTTPStatusCode: 429}), domain.ErrGatewayUnavailable)
	assert.ErrorIs(t, mapError(ctx, &stripe.Error{HTTPStatusCode: 404, Code: stripe.ErrorCodeResourceMissing}), domain.ErrNotFound)
	cardErr := &stripe.Error{HTTPStatusCode: 402, Type: stripe.ErrorTypeCard}
	assert.NotErrorIs(t, mapError(ctx, cardErr), domain.ErrGatewayUnavailable)
}
