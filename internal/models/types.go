// Package models defines the persistent entities and small enum types of
// the monitoring engine: Company, CrawlTarget, Claim, ClaimVersion,
// ChangeEvent, CrawlRun and Evidence, plus their lifecycle enums.
package models

import "time"

// ClaimType is the coarse category a normalized claim key belongs to. It is
// distinct from the normalized key itself (e.g. key "SOC2_TYPE_II" has type
// ClaimCompliance).
type ClaimType string

const (
	ClaimCompliance ClaimType = "compliance"
	ClaimPrivacy    ClaimType = "privacy"
	ClaimSLA        ClaimType = "sla"
	ClaimSecurity   ClaimType = "security"
)

// Normalized claim keys recognized by the pattern catalogue (extract
// package). These are not a Go enum of their own since the catalogue is a
// data table, not a fixed closed type - but the constants document the keys
// every storage/event-classification path must recognize.
const (
	KeySOC2TypeII         = "SOC2_TYPE_II"
	KeyISO27001           = "ISO_27001"
	KeyISO27017           = "ISO_27017"
	KeyISO27018           = "ISO_27018"
	KeyHIPAA              = "HIPAA"
	KeyGDPR               = "GDPR"
	KeyPCIDSS             = "PCI_DSS"
	KeyCCPA               = "CCPA"
	KeyFedRAMP            = "FEDRAMP"
	KeyEncryption         = "ENCRYPTION"
	KeyDataProtection     = "DATA_PROTECTION"
	KeyDoNotSell          = "DO_NOT_SELL"
	KeyUptime             = "UPTIME"
	KeyBackup             = "BACKUP"
	KeyAudit              = "AUDIT"
	KeyPenetrationTesting = "PENETRATION_TESTING"
	KeyMFA                = "MFA"
)

// Category is one of the watchable vendor surface areas; it drives both
// seed-URL derivation and a Company's enabled-category set.
type Category string

const (
	CategorySecurity Category = "security"
	CategoryPrivacy  Category = "privacy"
	CategorySLA      Category = "sla"
	CategoryPricing  Category = "pricing"
)

// Polarity is whether a claim's phrasing is a positive trust signal
// ("we are compliant"), a negative assertion whose disappearance is itself
// the concerning event (e.g. DO_NOT_SELL), or neutral.
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
	PolarityNeutral  Polarity = "neutral"
)

// ClaimStatus is the lifecycle state of a Claim's current (latest) version.
type ClaimStatus string

const (
	ClaimStatusActive   ClaimStatus = "ACTIVE"
	ClaimStatusRemoved  ClaimStatus = "REMOVED"
	ClaimStatusDisputed ClaimStatus = "DISPUTED"
)

// EventType enumerates the kinds of change a ChangeEvent can record.
type EventType string

const (
	EventAdded         EventType = "ADDED"
	EventRemoved       EventType = "REMOVED"
	EventWeakened      EventType = "WEAKENED"
	EventReversed      EventType = "REVERSED"
	EventNumberChanged EventType = "NUMBER_CHANGED"
)

// Severity is the operator-facing priority of a ChangeEvent.
type Severity string

const (
	SeverityInfo     Severity = "Info"
	SeverityMedium   Severity = "Medium"
	SeverityCritical Severity = "Critical"
)

// CrawlRunStatus is the terminal or in-flight state of a CrawlRun.
type CrawlRunStatus string

const (
	CrawlRunRunning   CrawlRunStatus = "running"
	CrawlRunCompleted CrawlRunStatus = "completed"
	CrawlRunFailed    CrawlRunStatus = "failed"
)

// EvidenceStatus is the processing lifecycle of a discovered PDF.
type EvidenceStatus string

const (
	EvidencePending EvidenceStatus = "PENDING"
	EvidenceReady   EvidenceStatus = "READY"
	EvidenceFailed  EvidenceStatus = "FAILED"
)

// Company is a monitored vendor, owned by exactly one User. No
// multi-tenant auth beyond single User-owns-Company.
type Company struct {
	ID         string   `badgerhold:"key"`
	UserID     string   `badgerholdIndex:"UserID"`
	Domain     string
	DisplayName string
	Categories []Category // enabled category set, drives seed-URL derivation
	RiskScore  int        // additive, capped at 100
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CrawlTargetKind distinguishes operator-seeded targets from ones found by
// following links during a crawl (discovery is not implemented here, but
// the field is carried so evidence/claim provenance can distinguish them).
type CrawlTargetKind string

const (
	TargetSeed       CrawlTargetKind = "seed"
	TargetDiscovered CrawlTargetKind = "discovered"
)

// CrawlTarget is one URL this engine periodically fetches for a Company.
// Unique on (CompanyID, URL).
type CrawlTarget struct {
	ID            string `badgerhold:"key"`
	CompanyID     string `badgerholdIndex:"CompanyID"`
	URL           string
	Kind          CrawlTargetKind
	LastDigest    string // content digest from the previous successful cycle
	LastCrawledAt *time.Time
	CreatedAt     time.Time
}

// Claim is the current, deduplicated view of one detected trust claim for
// a Company. Unique on (CompanyID, ClaimType, NormalizedKey). This is the
// summary row; full history lives in ClaimVersion.
type Claim struct {
	ID               string `badgerhold:"key"`
	CompanyID        string `badgerholdIndex:"CompanyID"`
	ClaimType        ClaimType `badgerholdIndex:"ClaimType"`
	NormalizedKey    string
	Polarity         Polarity
	Status           ClaimStatus
	CurrentSnippet   string
	CurrentSourceURL string
	Confidence       float64
	CurrentVersionID string
	FirstSeenAt      time.Time
	LastSeenAt       time.Time
}

// ExtractedMeta is the sparse, claim-specific metadata an extracted claim
// may carry. Modeled as a tagged value rather than an open map - the only
// current consumer is numeric-change detection.
type ExtractedMeta struct {
	NumericValue *float64
	NumericUnit  string
}

// ClaimVersion is an append-only snapshot of a Claim's text/metadata at one
// point in time. Consecutive identical digests are never stored twice.
type ClaimVersion struct {
	ID           string `badgerhold:"key"`
	ClaimID      string `badgerholdIndex:"ClaimID"`
	CompanyID    string
	Snippet      string
	SourceURL    string
	Digest       string // sha-256 of the snippet
	Polarity     Polarity
	NumericValue *float64
	NumericUnit  string
	SeenAt       time.Time `badgerholdIndex:"SeenAt"`
}

// ChangeEvent is an append-only record of one detected change, carrying
// the old/new payload pair appropriate to its EventType. Invariant: REMOVED
// carries old only; ADDED carries new only; WEAKENED/REVERSED/NUMBER_CHANGED
// carry both.
type ChangeEvent struct {
	ID             string `badgerhold:"key"`
	CompanyID      string `badgerholdIndex:"CompanyID"`
	ClaimID        string
	ClaimType      ClaimType
	NormalizedKey  string
	Type           EventType
	Severity       Severity `badgerholdIndex:"Severity"`
	OldSnippet     string
	NewSnippet     string
	OldValue       *float64
	NewValue       *float64
	SourceURL      string
	DetectedAt     time.Time `badgerholdIndex:"DetectedAt"`
	Acknowledged   bool
	AcknowledgedAt *time.Time
	EmailedAt      *time.Time `badgerholdIndex:"EmailedAt"`
}

// CrawlRun is telemetry for one orchestrated crawl-cycle execution.
type CrawlRun struct {
	ID            string `badgerhold:"key"`
	CompanyID     string `badgerholdIndex:"CompanyID"`
	CrawlTargetID string
	Status        CrawlRunStatus
	PagesCount    int
	ClaimsFound   int
	EventsEmitted int
	Errors        []string
	StartedAt     time.Time `badgerholdIndex:"StartedAt"`
	FinishedAt    *time.Time
}

// Evidence is a PDF document discovered by scanning a crawled page's text
// for PDF links during a crawl cycle. Unique on (CompanyID, PDFURL).
type Evidence struct {
	ID              string `badgerhold:"key"`
	CompanyID       string `badgerholdIndex:"CompanyID"`
	ClaimType       ClaimType // presumed claim type, defaults to compliance when undetermined
	PDFURL          string
	SourcePageURL   string
	ContextSnippet  string
	Status          EvidenceStatus `badgerholdIndex:"Status"`
	ReportType      string
	Auditor         string
	PeriodStart     *time.Time
	PeriodEnd       *time.Time
	Scope           string
	PageContent     map[int]string
	Error           string
	DiscoveredAt    time.Time
	ProcessedAt     *time.Time
}
