package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/trustwatch/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// EvidenceStorage implements interfaces.EvidenceStorage.
type EvidenceStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

func NewEvidenceStorage(db *BadgerDB, logger arbor.ILogger) *EvidenceStorage {
	return &EvidenceStorage{db: db, logger: logger}
}

func (s *EvidenceStorage) Save(ctx context.Context, e *models.Evidence) error {
	if err := s.db.Store().Upsert(e.ID, e); err != nil {
		return fmt.Errorf("save evidence: %w", err)
	}
	return nil
}

func (s *EvidenceStorage) Get(ctx context.Context, id string) (*models.Evidence, error) {
	var e models.Evidence
	if err := s.db.Store().Get(id, &e); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get evidence: %w", err)
	}
	return &e, nil
}

// FindByCompanyAndURL enforces the (CompanyID, PDFURL) uniqueness invariant
// the evidence fan-out's first-3-unique-URL scan relies on to avoid
// re-enqueueing a PDF already discovered in an earlier cycle.
func (s *EvidenceStorage) FindByCompanyAndURL(ctx context.Context, companyID, pdfURL string) (*models.Evidence, error) {
	var docs []models.Evidence
	err := s.db.Store().Find(&docs, badgerhold.Where("CompanyID").Eq(companyID).And("PDFURL").Eq(pdfURL))
	if err != nil {
		return nil, fmt.Errorf("find evidence: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return &docs[0], nil
}

func (s *EvidenceStorage) ListByCompany(ctx context.Context, companyID string) ([]*models.Evidence, error) {
	var docs []*models.Evidence
	if err := s.db.Store().Find(&docs, badgerhold.Where("CompanyID").Eq(companyID)); err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	return docs, nil
}
