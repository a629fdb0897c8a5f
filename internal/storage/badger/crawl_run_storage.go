package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/trustwatch/internal/interfaces"
	"github.com/ternarybob/trustwatch/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// CrawlRunStorage implements interfaces.CrawlRunStorage.
type CrawlRunStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

func NewCrawlRunStorage(db *BadgerDB, logger arbor.ILogger) *CrawlRunStorage {
	return &CrawlRunStorage{db: db, logger: logger}
}

func (s *CrawlRunStorage) Save(ctx context.Context, r *models.CrawlRun) error {
	if err := s.db.Store().Upsert(r.ID, r); err != nil {
		return fmt.Errorf("save crawl run: %w", err)
	}
	return nil
}

func (s *CrawlRunStorage) Get(ctx context.Context, id string) (*models.CrawlRun, error) {
	var r models.CrawlRun
	if err := s.db.Store().Get(id, &r); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get crawl run: %w", err)
	}
	return &r, nil
}

func (s *CrawlRunStorage) ListByCompany(ctx context.Context, companyID string, opts *interfaces.ListOptions) ([]*models.CrawlRun, error) {
	query := badgerhold.Where("CompanyID").Eq(companyID).SortBy("StartedAt").Reverse()
	if opts != nil {
		if opts.Limit > 0 {
			query = query.Limit(opts.Limit)
		}
		if opts.Offset > 0 {
			query = query.Skip(opts.Offset)
		}
	}
	var runs []*models.CrawlRun
	if err := s.db.Store().Find(&runs, query); err != nil {
		return nil, fmt.Errorf("list crawl runs: %w", err)
	}
	return runs, nil
}
