package evidence

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trustwatch/internal/interfaces"
	"github.com/ternarybob/trustwatch/internal/models"
	"github.com/ternarybob/trustwatch/internal/queue"
)

type fakeEvidenceStorage struct {
	rows map[string]*models.Evidence
}

func (f *fakeEvidenceStorage) Save(ctx context.Context, e *models.Evidence) error {
	f.rows[e.ID] = e
	return nil
}
func (f *fakeEvidenceStorage) Get(ctx context.Context, id string) (*models.Evidence, error) {
	return f.rows[id], nil
}
func (f *fakeEvidenceStorage) FindByCompanyAndURL(ctx context.Context, companyID, pdfURL string) (*models.Evidence, error) {
	return nil, nil
}
func (f *fakeEvidenceStorage) ListByCompany(ctx context.Context, companyID string) ([]*models.Evidence, error) {
	return nil, nil
}

type fakeManager struct {
	evidence *fakeEvidenceStorage
}

func (f *fakeManager) Companies() interfaces.CompanyStorage          { return nil }
func (f *fakeManager) CrawlTargets() interfaces.CrawlTargetStorage   { return nil }
func (f *fakeManager) Claims() interfaces.ClaimStorage               { return nil }
func (f *fakeManager) ClaimVersions() interfaces.ClaimVersionStorage { return nil }
func (f *fakeManager) ChangeEvents() interfaces.ChangeEventStorage   { return nil }
func (f *fakeManager) CrawlRuns() interfaces.CrawlRunStorage         { return nil }
func (f *fakeManager) Evidence() interfaces.EvidenceStorage          { return f.evidence }
func (f *fakeManager) KV() interfaces.KeyValueStorage                { return nil }
func (f *fakeManager) Close() error                                  { return nil }

func newFakeManager(rows ...*models.Evidence) *fakeManager {
	m := make(map[string]*models.Evidence)
	for _, r := range rows {
		m[r.ID] = r
	}
	return &fakeManager{evidence: &fakeEvidenceStorage{rows: m}}
}

type fakeParser struct {
	extraction *interfaces.PDFExtraction
	err        error
}

func (f *fakeParser) Extract(ctx context.Context, pdfURL string) (*interfaces.PDFExtraction, error) {
	return f.extraction, f.err
}

func noopLogger() arbor.ILogger {
	return arbor.NewLogger()
}

func TestHandler_ParsesAndMarksReady(t *testing.T) {
	ev := &models.Evidence{ID: "ev_1", Status: models.EvidencePending, PDFURL: "https://vendor.example/soc2.pdf"}
	storage := newFakeManager(ev)
	parser := &fakeParser{extraction: &interfaces.PDFExtraction{
		FullText:    "This is a SOC 2 Type II report performed by Example Assurance LLP.",
		PageContent: map[int]string{1: "page one"},
	}}
	selector := func(pdfURL string) interfaces.PDFParser { return parser }
	handler := Handler(storage, selector, noopLogger())

	payload, _ := json.Marshal(queue.ProcessEvidencePayload{EvidenceID: "ev_1", PDFURL: ev.PDFURL})
	if err := handler(context.Background(), &queue.Job{Payload: payload}); err != nil {
		t.Fatalf("handler: %v", err)
	}

	if ev.Status != models.EvidenceReady {
		t.Fatalf("expected status READY, got %s", ev.Status)
	}
	if ev.ReportType != "SOC 2 Type II" {
		t.Errorf("expected report type extracted, got %q", ev.ReportType)
	}
	if ev.ProcessedAt == nil {
		t.Error("expected ProcessedAt to be stamped")
	}
}

func TestHandler_ReadyRowIsIdempotent(t *testing.T) {
	ev := &models.Evidence{ID: "ev_2", Status: models.EvidenceReady, ReportType: "HIPAA"}
	storage := newFakeManager(ev)
	parser := &fakeParser{err: context.DeadlineExceeded}
	selector := func(pdfURL string) interfaces.PDFParser { return parser }
	handler := Handler(storage, selector, noopLogger())

	payload, _ := json.Marshal(queue.ProcessEvidencePayload{EvidenceID: "ev_2", PDFURL: "https://vendor.example/x.pdf"})
	if err := handler(context.Background(), &queue.Job{Payload: payload}); err != nil {
		t.Fatalf("expected no-op on already-ready evidence, got %v", err)
	}
	if ev.ReportType != "HIPAA" {
		t.Error("ready evidence must not be re-parsed or overwritten")
	}
}

func TestHandler_ParseFailureMarksFailedAndReturnsError(t *testing.T) {
	ev := &models.Evidence{ID: "ev_3", Status: models.EvidencePending}
	storage := newFakeManager(ev)
	parser := &fakeParser{err: context.DeadlineExceeded}
	selector := func(pdfURL string) interfaces.PDFParser { return parser }
	handler := Handler(storage, selector, noopLogger())

	payload, _ := json.Marshal(queue.ProcessEvidencePayload{EvidenceID: "ev_3", PDFURL: "https://vendor.example/x.pdf"})
	err := handler(context.Background(), &queue.Job{Payload: payload})
	if err == nil {
		t.Fatal("expected error to propagate so the queue retries")
	}
	if ev.Status != models.EvidenceFailed {
		t.Fatalf("expected status FAILED, got %s", ev.Status)
	}
	if ev.Error == "" {
		t.Error("expected Error field populated")
	}
}

func TestHandler_MissingEvidenceIsNoop(t *testing.T) {
	storage := newFakeManager()
	parser := &fakeParser{}
	selector := func(pdfURL string) interfaces.PDFParser { return parser }
	handler := Handler(storage, selector, noopLogger())

	payload, _ := json.Marshal(queue.ProcessEvidencePayload{EvidenceID: "missing"})
	if err := handler(context.Background(), &queue.Job{Payload: payload}); err != nil {
		t.Fatalf("expected nil error for missing evidence row, got %v", err)
	}
}
