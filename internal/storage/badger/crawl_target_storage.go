package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/trustwatch/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// CrawlTargetStorage implements interfaces.CrawlTargetStorage.
type CrawlTargetStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

func NewCrawlTargetStorage(db *BadgerDB, logger arbor.ILogger) *CrawlTargetStorage {
	return &CrawlTargetStorage{db: db, logger: logger}
}

func (s *CrawlTargetStorage) Save(ctx context.Context, t *models.CrawlTarget) error {
	if err := s.db.Store().Upsert(t.ID, t); err != nil {
		return fmt.Errorf("save crawl target: %w", err)
	}
	return nil
}

func (s *CrawlTargetStorage) Get(ctx context.Context, id string) (*models.CrawlTarget, error) {
	var t models.CrawlTarget
	if err := s.db.Store().Get(id, &t); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get crawl target: %w", err)
	}
	return &t, nil
}

// FindByCompanyAndURL enforces the (CompanyID, URL) uniqueness invariant:
// callers check this before inserting a new target.
func (s *CrawlTargetStorage) FindByCompanyAndURL(ctx context.Context, companyID, url string) (*models.CrawlTarget, error) {
	var targets []models.CrawlTarget
	err := s.db.Store().Find(&targets, badgerhold.Where("CompanyID").Eq(companyID).And("URL").Eq(url))
	if err != nil {
		return nil, fmt.Errorf("find crawl target: %w", err)
	}
	if len(targets) == 0 {
		return nil, nil
	}
	return &targets[0], nil
}

func (s *CrawlTargetStorage) ListByCompany(ctx context.Context, companyID string) ([]*models.CrawlTarget, error) {
	var targets []*models.CrawlTarget
	if err := s.db.Store().Find(&targets, badgerhold.Where("CompanyID").Eq(companyID)); err != nil {
		return nil, fmt.Errorf("list crawl targets by company: %w", err)
	}
	return targets, nil
}

func (s *CrawlTargetStorage) List(ctx context.Context) ([]*models.CrawlTarget, error) {
	var targets []*models.CrawlTarget
	if err := s.db.Store().Find(&targets, nil); err != nil {
		return nil, fmt.Errorf("list crawl targets: %w", err)
	}
	return targets, nil
}

func (s *CrawlTargetStorage) UpdateDigest(ctx context.Context, id, digest string, crawledAt time.Time) error {
	var t models.CrawlTarget
	if err := s.db.Store().Get(id, &t); err != nil {
		return fmt.Errorf("get crawl target for digest update: %w", err)
	}
	t.LastDigest = digest
	t.LastCrawledAt = &crawledAt
	if err := s.db.Store().Update(id, &t); err != nil {
		return fmt.Errorf("update crawl target digest: %w", err)
	}
	return nil
}

func (s *CrawlTargetStorage) Delete(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.CrawlTarget{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("delete crawl target: %w", err)
	}
	return nil
}

func (s *CrawlTargetStorage) DeleteByCompany(ctx context.Context, companyID string) error {
	targets, err := s.ListByCompany(ctx, companyID)
	if err != nil {
		return err
	}
	for _, t := range targets {
		if err := s.Delete(ctx, t.ID); err != nil {
			return err
		}
	}
	return nil
}
