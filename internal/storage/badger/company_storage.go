package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/trustwatch/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// CompanyStorage implements interfaces.CompanyStorage.
type CompanyStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

func NewCompanyStorage(db *BadgerDB, logger arbor.ILogger) *CompanyStorage {
	return &CompanyStorage{db: db, logger: logger}
}

func (s *CompanyStorage) Save(ctx context.Context, c *models.Company) error {
	if err := s.db.Store().Upsert(c.ID, c); err != nil {
		return fmt.Errorf("save company: %w", err)
	}
	return nil
}

func (s *CompanyStorage) Get(ctx context.Context, id string) (*models.Company, error) {
	var c models.Company
	if err := s.db.Store().Get(id, &c); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}

func (s *CompanyStorage) ListByUser(ctx context.Context, userID string) ([]*models.Company, error) {
	var companies []*models.Company
	if err := s.db.Store().Find(&companies, badgerhold.Where("UserID").Eq(userID)); err != nil {
		return nil, fmt.Errorf("list companies by user: %w", err)
	}
	return companies, nil
}

func (s *CompanyStorage) List(ctx context.Context) ([]*models.Company, error) {
	var companies []*models.Company
	if err := s.db.Store().Find(&companies, nil); err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}

func (s *CompanyStorage) Delete(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Company{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("delete company: %w", err)
	}
	return nil
}

// UpdateRiskScore performs a read-modify-write. Concurrent crawls of
// different targets for the same company can race here; not made atomic.
func (s *CompanyStorage) UpdateRiskScore(ctx context.Context, id string, newScore int) error {
	var c models.Company
	if err := s.db.Store().Get(id, &c); err != nil {
		return fmt.Errorf("get company for risk score update: %w", err)
	}
	c.RiskScore = newScore
	if err := s.db.Store().Update(id, &c); err != nil {
		return fmt.Errorf("update risk score: %w", err)
	}
	return nil
}
