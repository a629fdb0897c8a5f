package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/trustwatch/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ClaimStorage implements interfaces.ClaimStorage.
type ClaimStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

func NewClaimStorage(db *BadgerDB, logger arbor.ILogger) *ClaimStorage {
	return &ClaimStorage{db: db, logger: logger}
}

func (s *ClaimStorage) Save(ctx context.Context, c *models.Claim) error {
	if err := s.db.Store().Upsert(c.ID, c); err != nil {
		return fmt.Errorf("save claim: %w", err)
	}
	return nil
}

func (s *ClaimStorage) Get(ctx context.Context, id string) (*models.Claim, error) {
	var c models.Claim
	if err := s.db.Store().Get(id, &c); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get claim: %w", err)
	}
	return &c, nil
}

// FindByKey enforces the (CompanyID, ClaimType, NormalizedKey) uniqueness
// invariant that the change detector's per-claim upsert depends on.
func (s *ClaimStorage) FindByKey(ctx context.Context, companyID string, claimType models.ClaimType, normalizedKey string) (*models.Claim, error) {
	var claims []models.Claim
	err := s.db.Store().Find(&claims, badgerhold.Where("CompanyID").Eq(companyID).
		And("ClaimType").Eq(claimType).
		And("NormalizedKey").Eq(normalizedKey))
	if err != nil {
		return nil, fmt.Errorf("find claim by key: %w", err)
	}
	if len(claims) == 0 {
		return nil, nil
	}
	return &claims[0], nil
}

func (s *ClaimStorage) ListActiveByCompany(ctx context.Context, companyID string) ([]*models.Claim, error) {
	var claims []*models.Claim
	err := s.db.Store().Find(&claims, badgerhold.Where("CompanyID").Eq(companyID).
		And("Status").Eq(models.ClaimStatusActive))
	if err != nil {
		return nil, fmt.Errorf("list active claims: %w", err)
	}
	return claims, nil
}

// ListActiveByCompanyAndSourceURL backs the removal sweep: claims
// currently attributed to this target URL.
func (s *ClaimStorage) ListActiveByCompanyAndSourceURL(ctx context.Context, companyID, sourceURL string) ([]*models.Claim, error) {
	var claims []*models.Claim
	err := s.db.Store().Find(&claims, badgerhold.Where("CompanyID").Eq(companyID).
		And("Status").Eq(models.ClaimStatusActive).
		And("CurrentSourceURL").Eq(sourceURL))
	if err != nil {
		return nil, fmt.Errorf("list active claims by source url: %w", err)
	}
	return claims, nil
}

func (s *ClaimStorage) Delete(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Claim{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("delete claim: %w", err)
	}
	return nil
}
