package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/trustwatch/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ClaimVersionStorage implements interfaces.ClaimVersionStorage. Versions are
// append-only: no Update or Delete methods exist on this store.
type ClaimVersionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

func NewClaimVersionStorage(db *BadgerDB, logger arbor.ILogger) *ClaimVersionStorage {
	return &ClaimVersionStorage{db: db, logger: logger}
}

func (s *ClaimVersionStorage) Append(ctx context.Context, v *models.ClaimVersion) error {
	if err := s.db.Store().Insert(v.ID, v); err != nil {
		return fmt.Errorf("append claim version: %w", err)
	}
	return nil
}

// Latest returns the most recent version for a claim, or nil if the claim
// has no recorded versions yet.
func (s *ClaimVersionStorage) Latest(ctx context.Context, claimID string) (*models.ClaimVersion, error) {
	var versions []models.ClaimVersion
	err := s.db.Store().Find(&versions, badgerhold.Where("ClaimID").Eq(claimID).
		SortBy("SeenAt").Reverse().Limit(1))
	if err != nil {
		return nil, fmt.Errorf("find latest claim version: %w", err)
	}
	if len(versions) == 0 {
		return nil, nil
	}
	return &versions[0], nil
}

func (s *ClaimVersionStorage) ListByClaim(ctx context.Context, claimID string) ([]*models.ClaimVersion, error) {
	var versions []*models.ClaimVersion
	err := s.db.Store().Find(&versions, badgerhold.Where("ClaimID").Eq(claimID).SortBy("SeenAt"))
	if err != nil {
		return nil, fmt.Errorf("list claim versions: %w", err)
	}
	return versions, nil
}
