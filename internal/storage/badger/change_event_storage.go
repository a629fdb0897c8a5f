package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/trustwatch/internal/interfaces"
	"github.com/ternarybob/trustwatch/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ChangeEventStorage implements interfaces.ChangeEventStorage. Events are
// append-only other than the Acknowledge/MarkEmailed timestamp updates.
type ChangeEventStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

func NewChangeEventStorage(db *BadgerDB, logger arbor.ILogger) *ChangeEventStorage {
	return &ChangeEventStorage{db: db, logger: logger}
}

func (s *ChangeEventStorage) Append(ctx context.Context, e *models.ChangeEvent) error {
	if err := s.db.Store().Insert(e.ID, e); err != nil {
		return fmt.Errorf("append change event: %w", err)
	}
	return nil
}

func (s *ChangeEventStorage) Get(ctx context.Context, id string) (*models.ChangeEvent, error) {
	var e models.ChangeEvent
	if err := s.db.Store().Get(id, &e); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get change event: %w", err)
	}
	return &e, nil
}

func (s *ChangeEventStorage) ListByCompany(ctx context.Context, companyID string, opts *interfaces.ListOptions) ([]*models.ChangeEvent, error) {
	query := badgerhold.Where("CompanyID").Eq(companyID).SortBy("DetectedAt").Reverse()
	if opts != nil {
		if opts.Limit > 0 {
			query = query.Limit(opts.Limit)
		}
		if opts.Offset > 0 {
			query = query.Skip(opts.Offset)
		}
	}
	var events []*models.ChangeEvent
	if err := s.db.Store().Find(&events, query); err != nil {
		return nil, fmt.Errorf("list change events: %w", err)
	}
	return events, nil
}

// CountEmailedSince backs the Critical-alert rate limiter: it counts
// events for a company already emailed in a trailing window.
func (s *ChangeEventStorage) CountEmailedSince(ctx context.Context, companyID string, since time.Time) (int, error) {
	var events []models.ChangeEvent
	err := s.db.Store().Find(&events, badgerhold.Where("CompanyID").Eq(companyID).
		And("EmailedAt").Ge(since))
	if err != nil {
		return 0, fmt.Errorf("count emailed change events: %w", err)
	}
	return len(events), nil
}

func (s *ChangeEventStorage) Acknowledge(ctx context.Context, id string, at time.Time) error {
	var e models.ChangeEvent
	if err := s.db.Store().Get(id, &e); err != nil {
		return fmt.Errorf("get change event for acknowledge: %w", err)
	}
	e.Acknowledged = true
	e.AcknowledgedAt = &at
	if err := s.db.Store().Update(id, &e); err != nil {
		return fmt.Errorf("acknowledge change event: %w", err)
	}
	return nil
}

func (s *ChangeEventStorage) MarkEmailed(ctx context.Context, id string, at time.Time) error {
	var e models.ChangeEvent
	if err := s.db.Store().Get(id, &e); err != nil {
		return fmt.Errorf("get change event for mark emailed: %w", err)
	}
	e.EmailedAt = &at
	if err := s.db.Store().Update(id, &e); err != nil {
		return fmt.Errorf("mark change event emailed: %w", err)
	}
	return nil
}
