package crawlworker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trustwatch/internal/detector"
	"github.com/ternarybob/trustwatch/internal/interfaces"
	"github.com/ternarybob/trustwatch/internal/models"
	"github.com/ternarybob/trustwatch/internal/queue"
)

type fakeCompanies struct{ rows map[string]*models.Company }

func (f *fakeCompanies) Save(ctx context.Context, c *models.Company) error { f.rows[c.ID] = c; return nil }
func (f *fakeCompanies) Get(ctx context.Context, id string) (*models.Company, error) {
	return f.rows[id], nil
}
func (f *fakeCompanies) ListByUser(ctx context.Context, userID string) ([]*models.Company, error) {
	return nil, nil
}
func (f *fakeCompanies) List(ctx context.Context) ([]*models.Company, error) { return nil, nil }
func (f *fakeCompanies) Delete(ctx context.Context, id string) error        { delete(f.rows, id); return nil }
func (f *fakeCompanies) UpdateRiskScore(ctx context.Context, id string, newScore int) error {
	return nil
}

type fakeTargets struct{ rows map[string]*models.CrawlTarget }

func (f *fakeTargets) Save(ctx context.Context, t *models.CrawlTarget) error { f.rows[t.ID] = t; return nil }
func (f *fakeTargets) Get(ctx context.Context, id string) (*models.CrawlTarget, error) {
	return f.rows[id], nil
}
func (f *fakeTargets) FindByCompanyAndURL(ctx context.Context, companyID, url string) (*models.CrawlTarget, error) {
	return nil, nil
}
func (f *fakeTargets) ListByCompany(ctx context.Context, companyID string) ([]*models.CrawlTarget, error) {
	return nil, nil
}
func (f *fakeTargets) List(ctx context.Context) ([]*models.CrawlTarget, error) { return nil, nil }
func (f *fakeTargets) UpdateDigest(ctx context.Context, id, digest string, crawledAt time.Time) error {
	t, ok := f.rows[id]
	if !ok {
		return nil
	}
	t.LastDigest = digest
	t.LastCrawledAt = &crawledAt
	return nil
}
func (f *fakeTargets) Delete(ctx context.Context, id string) error             { delete(f.rows, id); return nil }
func (f *fakeTargets) DeleteByCompany(ctx context.Context, companyID string) error { return nil }

type fakeClaims struct{}

func (f *fakeClaims) Save(ctx context.Context, c *models.Claim) error { return nil }
func (f *fakeClaims) Get(ctx context.Context, id string) (*models.Claim, error) { return nil, nil }
func (f *fakeClaims) FindByKey(ctx context.Context, companyID string, claimType models.ClaimType, normalizedKey string) (*models.Claim, error) {
	return nil, nil
}
func (f *fakeClaims) ListActiveByCompany(ctx context.Context, companyID string) ([]*models.Claim, error) {
	return nil, nil
}
func (f *fakeClaims) ListActiveByCompanyAndSourceURL(ctx context.Context, companyID, sourceURL string) ([]*models.Claim, error) {
	return nil, nil
}
func (f *fakeClaims) Delete(ctx context.Context, id string) error { return nil }

type fakeCrawlRuns struct{ rows map[string]*models.CrawlRun }

func (f *fakeCrawlRuns) Save(ctx context.Context, r *models.CrawlRun) error { f.rows[r.ID] = r; return nil }
func (f *fakeCrawlRuns) Get(ctx context.Context, id string) (*models.CrawlRun, error) {
	return f.rows[id], nil
}
func (f *fakeCrawlRuns) ListByCompany(ctx context.Context, companyID string, opts *interfaces.ListOptions) ([]*models.CrawlRun, error) {
	return nil, nil
}

type fakeManager struct {
	companies *fakeCompanies
	targets   *fakeTargets
	claims    *fakeClaims
	runs      *fakeCrawlRuns
}

func (f *fakeManager) Companies() interfaces.CompanyStorage          { return f.companies }
func (f *fakeManager) CrawlTargets() interfaces.CrawlTargetStorage   { return f.targets }
func (f *fakeManager) Claims() interfaces.ClaimStorage               { return f.claims }
func (f *fakeManager) ClaimVersions() interfaces.ClaimVersionStorage { return nil }
func (f *fakeManager) ChangeEvents() interfaces.ChangeEventStorage   { return nil }
func (f *fakeManager) CrawlRuns() interfaces.CrawlRunStorage         { return f.runs }
func (f *fakeManager) Evidence() interfaces.EvidenceStorage          { return nil }
func (f *fakeManager) KV() interfaces.KeyValueStorage                { return nil }
func (f *fakeManager) Close() error                                  { return nil }

func newFakeManager(company *models.Company, target *models.CrawlTarget) *fakeManager {
	companies := &fakeCompanies{rows: map[string]*models.Company{}}
	targets := &fakeTargets{rows: map[string]*models.CrawlTarget{}}
	if company != nil {
		companies.rows[company.ID] = company
	}
	if target != nil {
		targets.rows[target.ID] = target
	}
	return &fakeManager{
		companies: companies,
		targets:   targets,
		claims:    &fakeClaims{},
		runs:      &fakeCrawlRuns{rows: map[string]*models.CrawlRun{}},
	}
}

type fakeFetcher struct {
	text string
	err  error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, interfaces.FetchMetadata, error) {
	return f.text, interfaces.FetchMetadata{}, f.err
}

func jobFor(t *testing.T, payload queue.CrawlTargetPayload) *queue.Job {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &queue.Job{Payload: raw}
}

func TestHandler_MissingCompanyIsNoop(t *testing.T) {
	storage := newFakeManager(nil, nil)
	det := detector.New(storage, nil, arbor.NewLogger())
	selector := func(url string) interfaces.Fetcher { return &fakeFetcher{} }
	handler := Handler(storage, selector, det, arbor.NewLogger())

	job := jobFor(t, queue.CrawlTargetPayload{CompanyID: "missing", TargetID: "t1", URL: "https://vendor.example/trust"})
	if err := handler(context.Background(), job); err != nil {
		t.Fatalf("expected nil error for missing company, got %v", err)
	}
	if len(storage.runs.rows) != 0 {
		t.Error("expected no crawl run to be created for a missing company")
	}
}

func TestHandler_MissingTargetIsNoop(t *testing.T) {
	company := &models.Company{ID: "c1"}
	storage := newFakeManager(company, nil)
	det := detector.New(storage, nil, arbor.NewLogger())
	selector := func(url string) interfaces.Fetcher { return &fakeFetcher{} }
	handler := Handler(storage, selector, det, arbor.NewLogger())

	job := jobFor(t, queue.CrawlTargetPayload{CompanyID: "c1", TargetID: "missing", URL: "https://vendor.example/trust"})
	if err := handler(context.Background(), job); err != nil {
		t.Fatalf("expected nil error for missing target, got %v", err)
	}
}

func TestHandler_FetchErrorFailsRun(t *testing.T) {
	company := &models.Company{ID: "c1"}
	target := &models.CrawlTarget{ID: "t1", CompanyID: "c1", URL: "https://vendor.example/trust"}
	storage := newFakeManager(company, target)
	det := detector.New(storage, nil, arbor.NewLogger())
	selector := func(url string) interfaces.Fetcher { return &fakeFetcher{err: context.DeadlineExceeded} }
	handler := Handler(storage, selector, det, arbor.NewLogger())

	job := jobFor(t, queue.CrawlTargetPayload{CompanyID: "c1", TargetID: "t1", URL: target.URL})
	if err := handler(context.Background(), job); err == nil {
		t.Fatal("expected fetch error to propagate so the queue retries")
	}

	if len(storage.runs.rows) != 1 {
		t.Fatalf("expected exactly one crawl run recorded, got %d", len(storage.runs.rows))
	}
	for _, run := range storage.runs.rows {
		if run.Status != models.CrawlRunFailed {
			t.Errorf("expected run status failed, got %s", run.Status)
		}
		if run.FinishedAt == nil {
			t.Error("expected FinishedAt stamped even on failure")
		}
		if len(run.Errors) == 0 {
			t.Error("expected the fetch error recorded on the run")
		}
	}
}

func TestHandler_NoClaimsCompletesRun(t *testing.T) {
	company := &models.Company{ID: "c1"}
	target := &models.CrawlTarget{ID: "t1", CompanyID: "c1", URL: "https://vendor.example/trust", LastDigest: "stale"}
	storage := newFakeManager(company, target)
	det := detector.New(storage, nil, arbor.NewLogger())
	selector := func(url string) interfaces.Fetcher { return &fakeFetcher{text: "Just ordinary marketing copy, nothing to extract."} }
	handler := Handler(storage, selector, det, arbor.NewLogger())

	job := jobFor(t, queue.CrawlTargetPayload{CompanyID: "c1", TargetID: "t1", URL: target.URL})
	if err := handler(context.Background(), job); err != nil {
		t.Fatalf("handler: %v", err)
	}

	for _, run := range storage.runs.rows {
		if run.Status != models.CrawlRunCompleted {
			t.Errorf("expected run status completed, got %s", run.Status)
		}
	}
	if target.LastDigest == "stale" {
		t.Error("expected the target digest to be updated after a successful crawl")
	}
}
