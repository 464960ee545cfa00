package notifier

import (
	"context"
	"log/slog"

	"github.com/mywatercloset/api/pkg/notify"
)

// LogNotifier writes e-mails to the log instead of sending them. It is used
// when no e-mail provider is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("notifier", "log")}
}

func (n *LogNotifier) Send(_ context.Context, email notify.Email) error {
	n.logger.Info("📧 Email (not sent)",
		"kind", email.Kind,
		"to", email.To.Email,
		"subject", email.Subject,
	)
	return nil
}

var _ notify.Notifier = (*LogNotifier)(nil)
