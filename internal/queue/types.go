// Package queue implements the durable job pipeline: three named queues,
// idempotency-key deduplication, bounded-retry exponential backoff, and
// retention-bounded completed/failed history. Ticker-poll workers,
// staggered starts, one handler per worker pool, and graceful-shutdown drain, all
// stored in badgerhold since that is this module's one shared store.
package queue

import (
	"encoding/json"
	"time"
)

// Name identifies one of the three durable queues.
type Name string

const (
	CrawlTarget    Name = "crawl_target"
	ProcessEvidence Name = "process_evidence"
	SendAlertEmail Name = "send_alert_email"
)

// Priority orders ready jobs within a dequeue pass: lower value wins.
// 0 = email, 1 = crawl, 2 = evidence.
type Priority int

const (
	PriorityEmail    Priority = 0
	PriorityCrawl    Priority = 1
	PriorityEvidence Priority = 2
)

// Status is a job's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusDelayed   Status = "delayed"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

const maxAttempts = 3

// backoffSchedule gives the delay before the Nth retry (1-indexed):
// attempt 1 failed -> retry after 5s, attempt 2 -> 10s. A third failure
// reaches maxAttempts and is terminal, so the 20s entry is not used while
// maxAttempts is 3.
var backoffSchedule = []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second}

// Job is one unit of work in a named queue.
type Job struct {
	ID             string `badgerhold:"key"`
	Queue          Name   `badgerholdIndex:"Queue"`
	Payload        json.RawMessage
	IdempotencyKey string `badgerholdIndex:"IdempotencyKey"`
	Priority       Priority
	Attempt        int
	MaxAttempts    int
	Status         Status `badgerholdIndex:"Status"`
	NextAttemptAt  time.Time
	LastError      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CrawlTargetPayload is the message body enqueued onto CrawlTarget:
// { company_id, target_id, url }.
type CrawlTargetPayload struct {
	CompanyID string `json:"company_id"`
	TargetID  string `json:"target_id"`
	URL       string `json:"url"`
}

// ProcessEvidencePayload is the message body enqueued onto ProcessEvidence:
// { evidence_id, pdf_url, company_id }.
type ProcessEvidencePayload struct {
	EvidenceID string `json:"evidence_id"`
	PDFURL     string `json:"pdf_url"`
	CompanyID  string `json:"company_id"`
}

// SendAlertEmailPayload is the message body enqueued onto SendAlertEmail:
// { event_id, user_id, recipient_email }.
type SendAlertEmailPayload struct {
	EventID        string `json:"event_id"`
	UserID         string `json:"user_id"`
	RecipientEmail string `json:"recipient_email"`
}

// IdempotencyKeyForCrawl builds the crawl_target queue's idempotency key
// (crawl-{company_id}-{target_id}), serializing per-target crawls so at
// most one is in flight.
func IdempotencyKeyForCrawl(companyID, targetID string) string {
	return "crawl-" + companyID + "-" + targetID
}

// IdempotencyKeyForEvidence builds the process_evidence queue's idempotency
// key (evidence-{evidence_id}).
func IdempotencyKeyForEvidence(evidenceID string) string {
	return "evidence-" + evidenceID
}

// IdempotencyKeyForAlertEmail builds the send_alert_email queue's
// idempotency key (email-{event_id}-{user_id}).
func IdempotencyKeyForAlertEmail(eventID, userID string) string {
	return "email-" + eventID + "-" + userID
}
