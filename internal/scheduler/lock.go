// Package scheduler drives the periodic crawl cycle: a cron-scheduled tick
// that, after acquiring a cross-replica lock, enqueues one crawl_target job
// per CrawlTarget. Uses robfig/cron with a panic-recovery wrapper and a
// graceful shutdown wait loop; a single-process mutex isn't enough here
// since multiple replicas need to coordinate on who runs a given tick, so
// the lock is store-backed instead.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/trustwatch/internal/interfaces"
)

const lockKey = "scheduler:crawl:lock"

// Lock is a cross-replica mutual-exclusion primitive. It bypasses the
// KeyValueStorage seam (whose Set/Upsert are a non-atomic get-then-write)
// and talks to the raw badgerhold store directly, the same way the queue
// does via Manager.Raw(): a fresh acquire is badgerhold's Insert, which
// fails atomically with ErrKeyExists if another replica already holds the
// key, so two replicas racing a cold lock can never both succeed. Stealing
// an expired lock uses UpdateMatching scoped to the exact stale UpdatedAt
// this replica observed; if a second replica is stealing the same expired
// lock concurrently, Badger's transaction-conflict detection - not this
// code - decides which UpdateMatching call actually commits, so at most
// one steal wins.
type Lock struct {
	store  *badgerhold.Store
	ttl    time.Duration
	logger arbor.ILogger
}

func NewLock(store *badgerhold.Store, ttl time.Duration, logger arbor.ILogger) *Lock {
	return &Lock{store: store, ttl: ttl, logger: logger}
}

// TryAcquire returns true if the lock was acquired, false if another replica
// currently holds it. A held lock past its TTL is treated as abandoned (the
// holder crashed mid-tick) and is stolen.
func (l *Lock) TryAcquire(ctx context.Context, holder string) (bool, error) {
	now := time.Now()
	fresh := &interfaces.KeyValuePair{
		Key:         lockKey,
		Value:       holder,
		Description: "crawl cycle lock holder",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := l.store.Insert(lockKey, fresh)
	if err == nil {
		return true, nil
	}
	if err != badgerhold.ErrKeyExists {
		return false, fmt.Errorf("insert scheduler lock: %w", err)
	}

	var existing interfaces.KeyValuePair
	if getErr := l.store.Get(lockKey, &existing); getErr != nil {
		if getErr == badgerhold.ErrNotFound {
			// Released between our failed Insert and this Get; one retry
			// either wins a now-cold lock or observes a fresh holder.
			return l.TryAcquire(ctx, holder)
		}
		return false, fmt.Errorf("read scheduler lock: %w", getErr)
	}
	if now.Sub(existing.UpdatedAt) < l.ttl {
		return false, nil
	}

	l.logger.Warn().Str("previous_holder", existing.Value).Time("held_since", existing.UpdatedAt).Msg("scheduler lock expired, stealing")

	staleSince := existing.UpdatedAt
	query := badgerhold.Where("Key").Eq(lockKey).And("UpdatedAt").Eq(staleSince)
	stole := false
	updateErr := l.store.UpdateMatching(&interfaces.KeyValuePair{}, query, func(record interface{}) error {
		pair, ok := record.(*interfaces.KeyValuePair)
		if !ok {
			return fmt.Errorf("unexpected record type in scheduler lock steal")
		}
		pair.Value = holder
		pair.Description = "crawl cycle lock holder"
		pair.UpdatedAt = now
		stole = true
		return nil
	})
	if updateErr != nil {
		return false, fmt.Errorf("steal scheduler lock: %w", updateErr)
	}
	return stole, nil
}

// Release drops the lock unconditionally. Safe to call even if this
// replica no longer holds it (e.g. it was stolen after TTL expiry).
func (l *Lock) Release(ctx context.Context) error {
	if err := l.store.Delete(lockKey, &interfaces.KeyValuePair{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("release scheduler lock: %w", err)
	}
	return nil
}
