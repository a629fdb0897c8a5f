package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trustwatch/internal/detector"
	"github.com/ternarybob/trustwatch/internal/interfaces"
	"github.com/ternarybob/trustwatch/internal/queue"
)

// Handler builds the send_alert_email queue.Handler: it loads the
// triggering ChangeEvent, re-checks the Critical-alert rate limit right
// before sending, sends the alert, and stamps emailed_at on success so
// the rate limiter can count it.
//
// The enqueue-time check in detector.maybeAlert counts ChangeEvents
// already stamped emailed_at, but stamping only happens here, after
// Send succeeds. Under concurrent crawl workers, several Critical events
// can all pass that enqueue-time check before any of them reach this
// handler, so the cap is only best-effort at enqueue time. Re-checking
// here, immediately before Send, narrows (without eliminating) the
// window: two handler goroutines processing different jobs for the same
// company at the same instant can still both pass this check before
// either stamps emailed_at, since CountEmailedSince and MarkEmailed
// aren't one atomic operation. A hard guarantee would need a per-company
// counter row updated with the same compare-and-swap approach as
// internal/scheduler/lock.go; this engine accepts "at most 5 per hour"
// as a soft cap rather than adding that machinery for an alerting path
// where a handful of extra emails during a burst is a cosmetic problem,
// not a correctness one.
func Handler(storage interfaces.StorageManager, sender interfaces.MailSender, logger arbor.ILogger) queue.Handler {
	return func(ctx context.Context, job *queue.Job) error {
		var payload queue.SendAlertEmailPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal send_alert_email payload: %w", err)
		}

		event, err := storage.ChangeEvents().Get(ctx, payload.EventID)
		if err != nil {
			return fmt.Errorf("load change event: %w", err)
		}
		if event == nil {
			// Nothing to send for; complete the job rather than retry.
			return nil
		}
		if event.EmailedAt != nil {
			// Already sent by a previous attempt; treat as success.
			return nil
		}

		since := time.Now().Add(-detector.CriticalAlertWindow)
		count, err := storage.ChangeEvents().CountEmailedSince(ctx, event.CompanyID, since)
		if err != nil {
			return fmt.Errorf("recheck critical alert rate limit: %w", err)
		}
		if count >= detector.CriticalAlertCap {
			logger.Info().Str("company_id", event.CompanyID).Int("count", count).Msg("critical alert rate limit hit at send time, dropping silently")
			return nil
		}

		mail := interfaces.AlertMail{
			To:      payload.RecipientEmail,
			Subject: fmt.Sprintf("[trustwatch] %s severity %s change detected", event.Severity, event.Type),
			Body:    fmt.Sprintf("Claim %s (%s) changed: %s", event.NormalizedKey, event.ClaimType, event.Type),
		}
		if err := sender.Send(ctx, mail); err != nil {
			return fmt.Errorf("send alert mail: %w", err)
		}

		return storage.ChangeEvents().MarkEmailed(ctx, event.ID, time.Now())
	}
}
