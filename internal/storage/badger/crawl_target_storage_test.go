package badger

import (
	"context"
	"testing"
	"time"

	"github.com/ternarybob/trustwatch/internal/models"
)

func TestCrawlTargetStorage_FindByCompanyAndURL(t *testing.T) {
	db := openTestDB(t)
	s := NewCrawlTargetStorage(db, testLogger())
	ctx := context.Background()

	t1 := &models.CrawlTarget{ID: "t1", CompanyID: "co-1", URL: "https://example.com/trust", Kind: models.TargetSeed}
	if err := s.Save(ctx, t1); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.FindByCompanyAndURL(ctx, "co-1", "https://example.com/trust")
	if err != nil {
		t.Fatalf("find by company and url: %v", err)
	}
	if got == nil || got.ID != "t1" {
		t.Fatalf("expected t1, got %+v", got)
	}

	none, err := s.FindByCompanyAndURL(ctx, "co-2", "https://example.com/trust")
	if err != nil {
		t.Fatalf("find by company and url (other company): %v", err)
	}
	if none != nil {
		t.Fatalf("expected no match for unrelated company, got %+v", none)
	}
}

func TestCrawlTargetStorage_UpdateDigest(t *testing.T) {
	db := openTestDB(t)
	s := NewCrawlTargetStorage(db, testLogger())
	ctx := context.Background()

	s.Save(ctx, &models.CrawlTarget{ID: "t1", CompanyID: "co-1", URL: "https://example.com"})
	now := time.Now()
	if err := s.UpdateDigest(ctx, "t1", "digest-abc", now); err != nil {
		t.Fatalf("update digest: %v", err)
	}

	got, err := s.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LastDigest != "digest-abc" {
		t.Fatalf("expected digest-abc, got %s", got.LastDigest)
	}
	if got.LastCrawledAt == nil || !got.LastCrawledAt.Equal(now) {
		t.Fatalf("expected last crawled at %v, got %v", now, got.LastCrawledAt)
	}
}

func TestCrawlTargetStorage_ListByCompanyAndList(t *testing.T) {
	db := openTestDB(t)
	s := NewCrawlTargetStorage(db, testLogger())
	ctx := context.Background()

	s.Save(ctx, &models.CrawlTarget{ID: "t1", CompanyID: "co-1", URL: "https://a"})
	s.Save(ctx, &models.CrawlTarget{ID: "t2", CompanyID: "co-1", URL: "https://b"})
	s.Save(ctx, &models.CrawlTarget{ID: "t3", CompanyID: "co-2", URL: "https://c"})

	byCompany, err := s.ListByCompany(ctx, "co-1")
	if err != nil {
		t.Fatalf("list by company: %v", err)
	}
	if len(byCompany) != 2 {
		t.Fatalf("expected 2 targets for co-1, got %d", len(byCompany))
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 targets total, got %d", len(all))
	}
}

func TestCrawlTargetStorage_DeleteByCompany(t *testing.T) {
	db := openTestDB(t)
	s := NewCrawlTargetStorage(db, testLogger())
	ctx := context.Background()

	s.Save(ctx, &models.CrawlTarget{ID: "t1", CompanyID: "co-1", URL: "https://a"})
	s.Save(ctx, &models.CrawlTarget{ID: "t2", CompanyID: "co-1", URL: "https://b"})
	s.Save(ctx, &models.CrawlTarget{ID: "t3", CompanyID: "co-2", URL: "https://c"})

	if err := s.DeleteByCompany(ctx, "co-1"); err != nil {
		t.Fatalf("delete by company: %v", err)
	}

	remaining, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != "t3" {
		t.Fatalf("expected only t3 remaining, got %+v", remaining)
	}
}
