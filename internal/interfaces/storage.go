package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/trustwatch/internal/models"
)

// ListOptions is a generic pagination/sort window used across list methods.
type ListOptions struct {
	Limit   int
	Offset  int
	OrderBy string
	Reverse bool
}

// CompanyStorage persists monitored vendors.
type CompanyStorage interface {
	Save(ctx context.Context, c *models.Company) error
	Get(ctx context.Context, id string) (*models.Company, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Company, error)
	List(ctx context.Context) ([]*models.Company, error)
	Delete(ctx context.Context, id string) error
	UpdateRiskScore(ctx context.Context, id string, newScore int) error
}

// CrawlTargetStorage persists per-company URLs to monitor.
type CrawlTargetStorage interface {
	Save(ctx context.Context, t *models.CrawlTarget) error
	Get(ctx context.Context, id string) (*models.CrawlTarget, error)
	FindByCompanyAndURL(ctx context.Context, companyID, url string) (*models.CrawlTarget, error)
	ListByCompany(ctx context.Context, companyID string) ([]*models.CrawlTarget, error)
	List(ctx context.Context) ([]*models.CrawlTarget, error)
	UpdateDigest(ctx context.Context, id, digest string, crawledAt time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteByCompany(ctx context.Context, companyID string) error
}

// ClaimStorage persists the current view of each distinct claim.
type ClaimStorage interface {
	Save(ctx context.Context, c *models.Claim) error
	Get(ctx context.Context, id string) (*models.Claim, error)
	FindByKey(ctx context.Context, companyID string, claimType models.ClaimType, normalizedKey string) (*models.Claim, error)
	ListActiveByCompany(ctx context.Context, companyID string) ([]*models.Claim, error)
	ListActiveByCompanyAndSourceURL(ctx context.Context, companyID, sourceURL string) ([]*models.Claim, error)
	Delete(ctx context.Context, id string) error
}

// ClaimVersionStorage persists the append-only version history of a claim.
type ClaimVersionStorage interface {
	Append(ctx context.Context, v *models.ClaimVersion) error
	Latest(ctx context.Context, claimID string) (*models.ClaimVersion, error)
	ListByClaim(ctx context.Context, claimID string) ([]*models.ClaimVersion, error)
}

// ChangeEventStorage persists the append-only change event log.
type ChangeEventStorage interface {
	Append(ctx context.Context, e *models.ChangeEvent) error
	Get(ctx context.Context, id string) (*models.ChangeEvent, error)
	ListByCompany(ctx context.Context, companyID string, opts *ListOptions) ([]*models.ChangeEvent, error)
	CountEmailedSince(ctx context.Context, companyID string, since time.Time) (int, error)
	Acknowledge(ctx context.Context, id string, at time.Time) error
	MarkEmailed(ctx context.Context, id string, at time.Time) error
}

// CrawlRunStorage persists per-cycle telemetry.
type CrawlRunStorage interface {
	Save(ctx context.Context, r *models.CrawlRun) error
	Get(ctx context.Context, id string) (*models.CrawlRun, error)
	ListByCompany(ctx context.Context, companyID string, opts *ListOptions) ([]*models.CrawlRun, error)
}

// EvidenceStorage persists discovered PDF evidence.
type EvidenceStorage interface {
	Save(ctx context.Context, e *models.Evidence) error
	Get(ctx context.Context, id string) (*models.Evidence, error)
	FindByCompanyAndURL(ctx context.Context, companyID, pdfURL string) (*models.Evidence, error)
	ListByCompany(ctx context.Context, companyID string) ([]*models.Evidence, error)
}

// StorageManager is the composite accessor for every entity store plus the
// generic key/value store. The job queue and the scheduler lock do not go
// through it; they use the raw badgerhold store directly.
type StorageManager interface {
	Companies() CompanyStorage
	CrawlTargets() CrawlTargetStorage
	Claims() ClaimStorage
	ClaimVersions() ClaimVersionStorage
	ChangeEvents() ChangeEventStorage
	CrawlRuns() CrawlRunStorage
	Evidence() EvidenceStorage
	KV() KeyValueStorage
	Close() error
}
