package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mywatercloset/api/pkg/config"
	"github.com/mywatercloset/api/pkg/notify"
)

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoRequest struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
	Tags        []string       `json:"tags,omitempty"`
}

// BrevoNotifier sends transactional e-mail through the Brevo SMTP API.
type BrevoNotifier struct {
	cfg        *config.Notify
	httpClient *http.Client
	logger     *slog.Logger
}

func NewBrevoNotifier(cfg *config.Notify, logger *slog.Logger) *BrevoNotifier {
	return &BrevoNotifier{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		logger:     logger.With("notifier", "brevo"),
	}
}

func (n *BrevoNotifier) Send(ctx context.Context, email notify.Email) error {
	body, err := json.Marshal(brevoRequest{
		Sender:      brevoContact{Email: n.cfg.SenderEmail, Name: n.cfg.SenderName},
		To:          []brevoContact{{Email: email.To.Email, Name: email.To.Name}},
		Subject:     email.Subject,
		HTMLContent: email.HTML,
		Tags:        []string{string(email.Kind)},
	})
	if err != nil {
		return fmt.Errorf("brevo: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.BrevoURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("brevo: build request: %w", err)
	}
	req.Header.Set("api-key", n.cfg.BrevoApiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("brevo: send: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("brevo: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	n.logger.Debug("email sent", "kind", email.Kind, "to", email.To.Email)
	return nil
}

// New returns the Brevo notifier when an API key is configured and the
// log notifier otherwise.
func New(cfg *config.Notify, logger *slog.Logger) notify.Notifier {
	if cfg == nil || cfg.BrevoApiKey == "" {
		logger.Warn("BREVO api key not configured, e-mails will only be logged")
		return NewLogNotifier(logger)
	}
	return NewBrevoNotifier(cfg, logger)
}

var _ notify.Notifier = (*BrevoNotifier)(nil)
