package badger

import (
	"context"
	"testing"
	"time"

	"github.com/ternarybob/trustwatch/internal/interfaces"
	"github.com/ternarybob/trustwatch/internal/models"
)

func TestCrawlRunStorage_SaveGet(t *testing.T) {
	db := openTestDB(t)
	s := NewCrawlRunStorage(db, testLogger())
	ctx := context.Background()

	r := &models.CrawlRun{ID: "run-1", CompanyID: "co-1", Status: models.CrawlRunRunning, StartedAt: time.Now()}
	if err := s.Save(ctx, r); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Status != models.CrawlRunRunning {
		t.Fatalf("expected running run-1, got %+v", got)
	}
}

func TestCrawlRunStorage_ListByCompany_Paginated(t *testing.T) {
	db := openTestDB(t)
	s := NewCrawlRunStorage(db, testLogger())
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		r := &models.CrawlRun{
			ID:        idForIndex("run", i),
			CompanyID: "co-1",
			Status:    models.CrawlRunCompleted,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.Save(ctx, r); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	all, err := s.ListByCompany(ctx, "co-1", nil)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 runs, got %d", len(all))
	}
	// newest first
	if !all[0].StartedAt.After(all[len(all)-1].StartedAt) {
		t.Fatalf("expected descending StartedAt order")
	}

	page, err := s.ListByCompany(ctx, "co-1", &interfaces.ListOptions{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("list paginated: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 runs in page, got %d", len(page))
	}
	if page[0].ID != all[1].ID {
		t.Fatalf("expected page to start at offset 1, got %s vs %s", page[0].ID, all[1].ID)
	}
}
