package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/trustwatch/internal/common"
	"github.com/ternarybob/trustwatch/internal/interfaces"
	"github.com/ternarybob/trustwatch/internal/queue"
)

// Scheduler fires crawl cycles on a cron cadence. Only one replica's tick
// does real work per cycle; the rest see TryAcquire fail and no-op.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	lock     *Lock
	storage  interfaces.StorageManager
	jobs     *queue.Store
	holderID string
	logger   arbor.ILogger
}

// New builds a Scheduler. holderID should be unique per process (hostname,
// pid, or similar) so lock-steal log lines are attributable. rawStore is
// the shared badgerhold store (Manager.Raw().Store()): the lock needs
// atomic Insert/UpdateMatching, which the KeyValueStorage seam doesn't
// expose.
func New(schedule string, lockTTL time.Duration, storage interfaces.StorageManager, rawStore *badgerhold.Store, jobs *queue.Store, holderID string, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		schedule: schedule,
		lock:     NewLock(rawStore, lockTTL, logger),
		storage:  storage,
		jobs:     jobs,
		holderID: holderID,
		logger:   logger,
	}
}

// Start registers the cron entry and begins running it. Non-blocking.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		common.SafeGo(s.logger, "scheduler-tick", func() {
			s.runTickSafely(ctx)
		})
	})
	if err != nil {
		return fmt.Errorf("register crawl schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info().Str("schedule", s.schedule).Msg("scheduler started")
	return nil
}

// Stop halts the cron loop and waits for any in-flight tick to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info().Msg("scheduler stopped")
}

// runTickSafely acquires the cross-replica lock and runs one tick. Panic
// recovery is the caller's job (Start wraps this in common.SafeGo); this
// method assumes it already runs inside a recovered goroutine.
func (s *Scheduler) runTickSafely(ctx context.Context) {
	acquired, err := s.lock.TryAcquire(ctx, s.holderID)
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduler lock acquisition failed")
		return
	}
	if !acquired {
		s.logger.Debug().Msg("scheduler lock held elsewhere, skipping tick")
		return
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("failed to release scheduler lock")
		}
	}()

	s.runTick(ctx)
}

// runTick enqueues one crawl_target job per known CrawlTarget.
func (s *Scheduler) runTick(ctx context.Context) {
	targets, err := s.storage.CrawlTargets().List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list crawl targets for tick")
		return
	}

	enqueued := 0
	for _, t := range targets {
		payload := queue.CrawlTargetPayload{CompanyID: t.CompanyID, TargetID: t.ID, URL: t.URL}
		_, err := s.jobs.Enqueue(ctx, queue.CrawlTarget, payload, queue.IdempotencyKeyForCrawl(t.CompanyID, t.ID), queue.PriorityCrawl)
		if err != nil {
			s.logger.Error().Err(err).Str("crawl_target_id", t.ID).Msg("failed to enqueue crawl job")
			continue
		}
		enqueued++
	}
	s.logger.Info().Int("targets", len(targets)).Int("enqueued", enqueued).Msg("crawl cycle tick complete")
}
