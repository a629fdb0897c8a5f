// Package detector implements the per-(company,target) change detection
// and event-classification state machine that drives the crawl worker. It
// is a pure algorithm over injected storage/queue seams
// (interfaces.StorageManager, *queue.Store) so it is unit-testable
// without a live Badger instance. It never calls a mail sender itself.
package detector

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trustwatch/internal/common"
	"github.com/ternarybob/trustwatch/internal/extract"
	"github.com/ternarybob/trustwatch/internal/interfaces"
	"github.com/ternarybob/trustwatch/internal/models"
	"github.com/ternarybob/trustwatch/internal/queue"
)

// CriticalAlertWindow and CriticalAlertCap implement the per-company
// Critical-alert rate limit. Exported so internal/mail's send handler can
// re-check the same cap immediately before sending, since emailed_at is
// stamped there, not here.
const (
	CriticalAlertWindow = 60 * time.Minute
	CriticalAlertCap    = 5
)

var pdfURLPattern = regexp.MustCompile(`(?i)https?://\S+\.pdf\b`)

// Detector runs one crawl cycle's change-detection logic. It only enqueues
// alert-email jobs; the actual mail-adapter invocation and emailed_at
// stamping happens in the send_alert_email queue handler (internal/mail),
// since that is a separately retryable unit of work.
type Detector struct {
	storage interfaces.StorageManager
	jobs    *queue.Store
	logger  arbor.ILogger
}

func New(storage interfaces.StorageManager, jobs *queue.Store, logger arbor.ILogger) *Detector {
	return &Detector{storage: storage, jobs: jobs, logger: logger}
}

// Result summarizes one Run call for CrawlRun telemetry.
type Result struct {
	NoChange      bool
	ClaimsFound   int
	EventsEmitted int
}

// Run executes one full change-detection cycle for a (company, target,
// fetched text) triple: digest short-circuit, claim extraction, per-claim
// upsert and classification, removal sweep, digest persistence, and
// evidence fan-out.
func (d *Detector) Run(ctx context.Context, company *models.Company, target *models.CrawlTarget, text string) (*Result, error) {
	// Step 1: digest short-circuit.
	newDigest := Digest(text)
	if newDigest == target.LastDigest {
		d.logger.Debug().Str("company_id", company.ID).Str("target_id", target.ID).Msg("no content change, skipping")
		return &Result{NoChange: true}, nil
	}

	// Step 2: extract.
	extracted := extract.Document(text, target.URL)

	result := &Result{ClaimsFound: len(extracted)}
	seenKeys := make(map[string]bool, len(extracted))

	// Step 3: per-claim upsert + classify + emit.
	for _, ec := range extracted {
		seenKeys[ec.NormalizedKey] = true
		emitted, err := d.upsertClaim(ctx, company, target, ec)
		if err != nil {
			return result, fmt.Errorf("upsert claim %s: %w", ec.NormalizedKey, err)
		}
		if emitted {
			result.EventsEmitted++
		}
	}

	// Step 4: removal sweep.
	removed, err := d.removalSweep(ctx, company, target, seenKeys)
	if err != nil {
		return result, fmt.Errorf("removal sweep: %w", err)
	}
	result.EventsEmitted += removed

	// Step 7: persist new digest + last_crawled_at.
	now := time.Now()
	if err := d.storage.CrawlTargets().UpdateDigest(ctx, target.ID, newDigest, now); err != nil {
		return result, fmt.Errorf("update target digest: %w", err)
	}

	// Step 8: evidence fan-out.
	if err := d.evidenceFanOut(ctx, company, target, text); err != nil {
		return result, fmt.Errorf("evidence fan-out: %w", err)
	}

	return result, nil
}

// upsertClaim creates or updates one extracted claim, classifies the
// change if any, emits the matching event, and applies the risk-score
// delta. Returns whether an event was emitted.
func (d *Detector) upsertClaim(ctx context.Context, company *models.Company, target *models.CrawlTarget, ec extract.Claim) (bool, error) {
	claims := d.storage.Claims()
	versions := d.storage.ClaimVersions()
	now := time.Now()
	newDigest := Digest(ec.Snippet)

	existing, err := claims.FindByKey(ctx, company.ID, ec.ClaimType, ec.NormalizedKey)
	if err != nil {
		return false, err
	}

	if existing == nil {
		claim := &models.Claim{
			ID:               common.NewID("claim"),
			CompanyID:        company.ID,
			ClaimType:        ec.ClaimType,
			NormalizedKey:    ec.NormalizedKey,
			Polarity:         ec.Polarity,
			Status:           models.ClaimStatusActive,
			CurrentSnippet:   ec.Snippet,
			CurrentSourceURL: target.URL,
			Confidence:       ec.Confidence,
			FirstSeenAt:      now,
			LastSeenAt:       now,
		}
		version := newVersion(claim, ec, newDigest, now)
		claim.CurrentVersionID = version.ID

		if err := claims.Save(ctx, claim); err != nil {
			return false, err
		}
		if err := versions.Append(ctx, version); err != nil {
			return false, err
		}
		return d.emitAndScore(ctx, company, claim, models.EventAdded, models.SeverityInfo, "", ec.Snippet, nil, ec.Meta.NumericValue)
	}

	latest, err := versions.Latest(ctx, existing.ID)
	if err != nil {
		return false, err
	}
	if latest != nil && latest.Digest == newDigest {
		existing.LastSeenAt = now
		return false, claims.Save(ctx, existing)
	}

	oldSnippet := existing.CurrentSnippet
	var oldValue *float64
	oldPolarity := existing.Polarity
	if latest != nil {
		oldValue = latest.NumericValue
	}

	version := newVersion(existing, ec, newDigest, now)
	if err := versions.Append(ctx, version); err != nil {
		return false, err
	}

	existing.CurrentSnippet = ec.Snippet
	existing.CurrentSourceURL = target.URL
	existing.CurrentVersionID = version.ID
	existing.Polarity = ec.Polarity
	existing.LastSeenAt = now
	existing.Status = models.ClaimStatusActive
	if err := claims.Save(ctx, existing); err != nil {
		return false, err
	}

	eventType, severity := classify(oldSnippet, ec.Snippet, oldValue, ec.Meta.NumericValue, oldPolarity, ec.Polarity)
	return d.emitAndScore(ctx, company, existing, eventType, severity, oldSnippet, ec.Snippet, oldValue, ec.Meta.NumericValue)
}

func newVersion(claim *models.Claim, ec extract.Claim, digest string, at time.Time) *models.ClaimVersion {
	return &models.ClaimVersion{
		ID:           common.NewID("cver"),
		ClaimID:      claim.ID,
		CompanyID:    claim.CompanyID,
		Snippet:      ec.Snippet,
		SourceURL:    ec.SourceURL,
		Digest:       digest,
		Polarity:     ec.Polarity,
		NumericValue: ec.Meta.NumericValue,
		NumericUnit:  ec.Meta.NumericUnit,
		SeenAt:       at,
	}
}

// classify picks the first rule that fires, in priority order: weakening,
// then numeric change, then polarity reversal, then the default ADDED
// branch.
func classify(oldSnippet, newSnippet string, oldValue, newValue *float64, oldPolarity, newPolarity models.Polarity) (models.EventType, models.Severity) {
	if extract.DetectWeakening(oldSnippet, newSnippet) {
		return models.EventWeakened, models.SeverityCritical
	}

	changed, decreased := extract.DetectNumericChange(extract.NumericMeta{Value: oldValue}, extract.NumericMeta{Value: newValue})
	if changed {
		if decreased {
			return models.EventNumberChanged, models.SeverityMedium
		}
		return models.EventNumberChanged, models.SeverityInfo
	}

	if isReversal(oldPolarity, newPolarity) {
		return models.EventReversed, models.SeverityCritical
	}

	return models.EventAdded, models.SeverityInfo
}

// isReversal reports a true positive<->negative flip; a move to/from
// neutral is not itself a reversal.
func isReversal(oldPolarity, newPolarity models.Polarity) bool {
	return (oldPolarity == models.PolarityPositive && newPolarity == models.PolarityNegative) ||
		(oldPolarity == models.PolarityNegative && newPolarity == models.PolarityPositive)
}

// emitAndScore appends the ChangeEvent, applies the risk-score delta, and
// runs Critical-alert rate limiting plus dispatch.
func (d *Detector) emitAndScore(ctx context.Context, company *models.Company, claim *models.Claim, eventType models.EventType, severity models.Severity, oldSnippet, newSnippet string, oldValue, newValue *float64) (bool, error) {
	event := &models.ChangeEvent{
		ID:            common.NewID("evt"),
		CompanyID:     company.ID,
		ClaimID:       claim.ID,
		ClaimType:     claim.ClaimType,
		NormalizedKey: claim.NormalizedKey,
		Type:          eventType,
		Severity:      severity,
		SourceURL:     claim.CurrentSourceURL,
		DetectedAt:    time.Now(),
	}
	switch eventType {
	case models.EventRemoved:
		event.OldSnippet = oldSnippet
	case models.EventAdded:
		event.NewSnippet = newSnippet
	default:
		event.OldSnippet = oldSnippet
		event.NewSnippet = newSnippet
	}
	event.OldValue = oldValue
	event.NewValue = newValue

	if err := d.storage.ChangeEvents().Append(ctx, event); err != nil {
		return false, err
	}

	if err := d.applyRiskDelta(ctx, company, eventType, severity); err != nil {
		return true, err
	}

	if severity == models.SeverityCritical {
		if err := d.maybeAlert(ctx, company, event); err != nil {
			return true, err
		}
	}

	return true, nil
}

// applyRiskDelta implements the additive, never-decrementing risk score
// update, capped at 100.
func (d *Detector) applyRiskDelta(ctx context.Context, company *models.Company, eventType models.EventType, severity models.Severity) error {
	delta := 0
	switch {
	case eventType == models.EventRemoved && severity == models.SeverityCritical:
		delta = 40
	case eventType == models.EventWeakened && severity == models.SeverityCritical:
		delta = 40
	case eventType == models.EventNumberChanged && severity == models.SeverityMedium:
		delta = 10
	case eventType == models.EventReversed:
		delta = 30
	}
	if delta == 0 {
		return nil
	}

	newScore := company.RiskScore + delta
	if newScore > 100 {
		newScore = 100
	}
	company.RiskScore = newScore
	return d.storage.Companies().UpdateRiskScore(ctx, company.ID, newScore)
}

// maybeAlert applies the trailing-60-minute Critical-alert rate limit and,
// when under the cap, enqueues a send_alert_email job; the mail adapter is
// invoked later by internal/mail's handler. The recipient is the
// Company's owning user - there is no separate user/contact-email store,
// so UserID doubles as the mailable recipient identity.
func (d *Detector) maybeAlert(ctx context.Context, company *models.Company, event *models.ChangeEvent) error {
	since := time.Now().Add(-CriticalAlertWindow)
	count, err := d.storage.ChangeEvents().CountEmailedSince(ctx, company.ID, since)
	if err != nil {
		return err
	}
	if count >= CriticalAlertCap {
		d.logger.Info().Str("company_id", company.ID).Int("count", count).Msg("critical alert rate limit hit, dropping silently")
		return nil
	}

	payload := queue.SendAlertEmailPayload{
		EventID:        event.ID,
		UserID:         company.UserID,
		RecipientEmail: company.UserID,
	}
	_, err = d.jobs.Enqueue(ctx, queue.SendAlertEmail, payload, queue.IdempotencyKeyForAlertEmail(event.ID, company.UserID), queue.PriorityEmail)
	return err
}

// removalSweep marks REMOVED (and emits a REMOVED event for) any ACTIVE
// claim sourced from this target URL that was not in this pass's
// extracted set.
func (d *Detector) removalSweep(ctx context.Context, company *models.Company, target *models.CrawlTarget, seenKeys map[string]bool) (int, error) {
	claims, err := d.storage.Claims().ListActiveByCompanyAndSourceURL(ctx, company.ID, target.URL)
	if err != nil {
		return 0, err
	}

	emitted := 0
	for _, claim := range claims {
		if seenKeys[claim.NormalizedKey] {
			continue
		}

		severity := models.SeverityMedium
		if claim.ClaimType == models.ClaimCompliance {
			severity = models.SeverityCritical
		}

		claim.Status = models.ClaimStatusRemoved
		if err := d.storage.Claims().Save(ctx, claim); err != nil {
			return emitted, err
		}

		if _, err := d.emitAndScore(ctx, company, claim, models.EventRemoved, severity, claim.CurrentSnippet, "", nil, nil); err != nil {
			return emitted, err
		}
		emitted++
	}
	return emitted, nil
}

// evidenceFanOut turns the first three unique PDF URLs not already known
// for this company into PENDING Evidence rows and process_evidence jobs.
func (d *Detector) evidenceFanOut(ctx context.Context, company *models.Company, target *models.CrawlTarget, text string) error {
	found := pdfURLPattern.FindAllString(text, -1)
	seen := make(map[string]bool)
	created := 0

	for _, url := range found {
		if created >= 3 {
			break
		}
		if seen[url] {
			continue
		}
		seen[url] = true

		existing, err := d.storage.Evidence().FindByCompanyAndURL(ctx, company.ID, url)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		ev := &models.Evidence{
			ID:            common.NewID("evid"),
			CompanyID:     company.ID,
			ClaimType:     models.ClaimCompliance,
			PDFURL:        url,
			SourcePageURL: target.URL,
			Status:        models.EvidencePending,
			DiscoveredAt:  time.Now(),
		}
		if err := d.storage.Evidence().Save(ctx, ev); err != nil {
			return err
		}

		payload := queue.ProcessEvidencePayload{EvidenceID: ev.ID, PDFURL: url, CompanyID: company.ID}
		if _, err := d.jobs.Enqueue(ctx, queue.ProcessEvidence, payload, queue.IdempotencyKeyForEvidence(ev.ID), queue.PriorityEvidence); err != nil {
			return err
		}
		created++
	}
	return nil
}
