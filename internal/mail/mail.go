// Package mail implements the outbound alert-mail capability and the
// send_alert_email queue handler, following the general capability
// interface plus swappable implementation idiom used for the fetch and
// PDF-parser adapters.
package mail

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trustwatch/internal/interfaces"
)

// LogSender is the development MailSender: it writes the alert to the
// structured logger instead of a real transport. It is the only
// MailSender: cmd/worker always uses it, and config.MailConfig.Provider
// is not consulted.
type LogSender struct {
	logger arbor.ILogger
}

func NewLogSender(logger arbor.ILogger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, mail interfaces.AlertMail) error {
	s.logger.Info().
		Str("to", mail.To).
		Str("subject", mail.Subject).
		Msg("alert email (log sender, not actually delivered): " + mail.Body)
	return nil
}
