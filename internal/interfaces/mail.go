package interfaces

import "context"

// AlertMail is the body of one Critical-change alert email.
type AlertMail struct {
	To      string
	Subject string
	Body    string
}

// MailSender is the pluggable outbound-mail capability used by the
// send_alert_email queue.
type MailSender interface {
	Send(ctx context.Context, mail AlertMail) error
}
