package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/trustwatch/internal/common"
)

// ErrNoJob is returned by Dequeue when no job is currently eligible.
var ErrNoJob = errors.New("no job ready")

// RetentionConfig bounds how long completed/failed jobs are kept
// (typically completed: 1h or 1000 rows; failed: 24h or 500 rows,
// whichever limit is reached first).
type RetentionConfig struct {
	CompletedFor time.Duration
	CompletedMax int
	FailedFor    time.Duration
	FailedMax    int
}

// Store is the durable job queue, backed directly by badgerhold.
type Store struct {
	db        *badgerhold.Store
	logger    arbor.ILogger
	retention RetentionConfig
}

// NewStore wraps an already-open badgerhold store as a job queue.
func NewStore(db *badgerhold.Store, logger arbor.ILogger, retention RetentionConfig) *Store {
	return &Store{db: db, logger: logger, retention: retention}
}

// Enqueue adds a job unless a non-terminal job with the same idempotency
// key already exists. Returns the job ID either way so callers can log
// consistently.
func (s *Store) Enqueue(ctx context.Context, queueName Name, payload interface{}, idempotencyKey string, priority Priority) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal job payload: %w", err)
	}

	var existing []Job
	err = s.db.Find(&existing, badgerhold.Where("IdempotencyKey").Eq(idempotencyKey).
		And("Status").In(StatusPending, StatusActive, StatusDelayed))
	if err != nil {
		return "", fmt.Errorf("check existing job: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Debug().Str("idempotency_key", idempotencyKey).Msg("enqueue deduplicated: job already outstanding")
		return existing[0].ID, nil
	}

	now := time.Now()
	job := Job{
		ID:             common.NewID("job"),
		Queue:          queueName,
		Payload:        body,
		IdempotencyKey: idempotencyKey,
		Priority:       priority,
		MaxAttempts:    maxAttempts,
		Status:         StatusPending,
		NextAttemptAt:  now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.db.Insert(job.ID, job); err != nil {
		return "", fmt.Errorf("insert job: %w", err)
	}
	s.logger.Debug().Str("job_id", job.ID).Str("queue", string(queueName)).Msg("job enqueued")
	return job.ID, nil
}

// Dequeue returns the highest-priority eligible job for queueName (pending,
// or delayed with NextAttemptAt due) and marks it active.
func (s *Store) Dequeue(ctx context.Context, queueName Name) (*Job, error) {
	var candidates []Job
	err := s.db.Find(&candidates, badgerhold.Where("Queue").Eq(queueName).
		And("Status").In(StatusPending, StatusDelayed).
		SortBy("NextAttemptAt"))
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}

	now := time.Now()
	var best *Job
	for i := range candidates {
		c := candidates[i]
		if c.NextAttemptAt.After(now) {
			continue
		}
		if best == nil || c.Priority < best.Priority {
			best = &c
		}
	}
	if best == nil {
		return nil, ErrNoJob
	}

	best.Status = StatusActive
	best.UpdatedAt = now
	if err := s.db.Update(best.ID, best); err != nil {
		return nil, fmt.Errorf("mark job active: %w", err)
	}
	return best, nil
}

// Complete marks a job finished successfully.
func (s *Store) Complete(ctx context.Context, jobID string) error {
	var job Job
	if err := s.db.Get(jobID, &job); err != nil {
		return fmt.Errorf("get job: %w", err)
	}
	job.Status = StatusCompleted
	job.UpdatedAt = time.Now()
	return s.db.Update(jobID, &job)
}

// Fail records a handler error. If attempts remain, the job is delayed per
// the fixed backoff schedule (5s, then 10s); otherwise it is marked failed
// terminally.
func (s *Store) Fail(ctx context.Context, jobID string, handlerErr error) error {
	var job Job
	if err := s.db.Get(jobID, &job); err != nil {
		return fmt.Errorf("get job: %w", err)
	}

	job.Attempt++
	job.LastError = handlerErr.Error()
	job.UpdatedAt = time.Now()

	if job.Attempt >= job.MaxAttempts {
		job.Status = StatusFailed
		s.logger.Warn().Str("job_id", jobID).Int("attempt", job.Attempt).Err(handlerErr).Msg("job failed permanently")
	} else {
		job.Status = StatusDelayed
		delay := backoffSchedule[job.Attempt-1]
		job.NextAttemptAt = time.Now().Add(delay)
		s.logger.Warn().Str("job_id", jobID).Int("attempt", job.Attempt).Dur("retry_in", delay).Err(handlerErr).Msg("job failed, will retry")
	}

	return s.db.Update(jobID, &job)
}

// Sweep deletes completed/failed jobs past the retention window or count.
func (s *Store) Sweep(ctx context.Context) error {
	if err := s.sweepStatus(StatusCompleted, s.retention.CompletedFor, s.retention.CompletedMax); err != nil {
		return err
	}
	return s.sweepStatus(StatusFailed, s.retention.FailedFor, s.retention.FailedMax)
}

func (s *Store) sweepStatus(status Status, maxAge time.Duration, maxCount int) error {
	var jobs []Job
	if err := s.db.Find(&jobs, badgerhold.Where("Status").Eq(status).SortBy("UpdatedAt").Reverse()); err != nil {
		return fmt.Errorf("find %s jobs: %w", status, err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for i, job := range jobs {
		if i < maxCount && job.UpdatedAt.After(cutoff) {
			continue
		}
		if err := s.db.Delete(job.ID, &Job{}); err != nil {
			s.logger.Warn().Str("job_id", job.ID).Err(err).Msg("failed to delete job during retention sweep")
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Debug().Str("status", string(status)).Int("removed", removed).Msg("retention sweep removed jobs")
	}
	return nil
}
