package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trustwatch/internal/interfaces"
	"github.com/ternarybob/trustwatch/internal/models"
	"github.com/ternarybob/trustwatch/internal/queue"
)

// ParserSelector resolves the right PDFParser for a given PDF URL, mirroring
// crawlworker.FetcherSelector's per-job adapter-selection shape.
type ParserSelector func(pdfURL string) interfaces.PDFParser

// Handler builds the process_evidence queue.Handler: parse the discovered
// PDF, extract its deterministic fields, and persist the result onto the
// Evidence row.
func Handler(storage interfaces.StorageManager, selectParser ParserSelector, logger arbor.ILogger) queue.Handler {
	return func(ctx context.Context, job *queue.Job) error {
		var payload queue.ProcessEvidencePayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal process_evidence payload: %w", err)
		}

		ev, err := storage.Evidence().Get(ctx, payload.EvidenceID)
		if err != nil {
			return fmt.Errorf("load evidence: %w", err)
		}
		if ev == nil {
			return nil
		}
		if ev.Status == models.EvidenceReady {
			// Idempotent replay: a READY record is never re-parsed or
			// re-written.
			return nil
		}

		parser := selectParser(payload.PDFURL)
		extraction, err := parser.Extract(ctx, payload.PDFURL)
		if err != nil {
			return failEvidence(ctx, storage, ev, err)
		}

		fields := Extract(extraction.FullText, extraction.PageContent)

		now := time.Now()
		ev.ReportType = fields.ReportType
		ev.Auditor = fields.Auditor
		ev.PeriodStart = fields.PeriodStart
		ev.PeriodEnd = fields.PeriodEnd
		ev.Scope = fields.Scope
		ev.PageContent = fields.PageContent
		ev.Status = models.EvidenceReady
		ev.Error = ""
		ev.ProcessedAt = &now

		if err := storage.Evidence().Save(ctx, ev); err != nil {
			return fmt.Errorf("save evidence: %w", err)
		}
		logger.Info().
			Str("evidence_id", ev.ID).
			Str("report_type", ev.ReportType).
			Msg("evidence processed")
		return nil
	}
}

func failEvidence(ctx context.Context, storage interfaces.StorageManager, ev *models.Evidence, cause error) error {
	now := time.Now()
	ev.Status = models.EvidenceFailed
	ev.Error = cause.Error()
	ev.ProcessedAt = &now
	if saveErr := storage.Evidence().Save(ctx, ev); saveErr != nil {
		return fmt.Errorf("save failed evidence after parse error %v: %w", cause, saveErr)
	}
	// Re-throw so the queue retries within its attempt budget; a later
	// successful attempt overwrites this row.
	return fmt.Errorf("parse evidence pdf: %w", cause)
}
