package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

func openTestStore(t *testing.T) *badgerhold.Store {
	t.Helper()
	opts := badgerhold.DefaultOptions
	opts.Dir = t.TempDir()
	opts.ValueDir = opts.Dir
	opts.Logger = nil
	db, err := badgerhold.Open(opts)
	if err != nil {
		t.Fatalf("open badgerhold: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLock_AcquireRelease(t *testing.T) {
	logger := arbor.NewLogger()
	lock := NewLock(openTestStore(t), 60*time.Second, logger)

	ok, err := lock.TryAcquire(context.Background(), "replica-a")
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed, got ok=%v err=%v", ok, err)
	}

	ok, err = lock.TryAcquire(context.Background(), "replica-b")
	if err != nil || ok {
		t.Fatalf("expected second acquire to fail while held, got ok=%v err=%v", ok, err)
	}

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	ok, err = lock.TryAcquire(context.Background(), "replica-b")
	if err != nil || !ok {
		t.Fatalf("expected acquire after release to succeed, got ok=%v err=%v", ok, err)
	}
}

func TestLock_StealsExpired(t *testing.T) {
	logger := arbor.NewLogger()
	lock := NewLock(openTestStore(t), 10*time.Millisecond, logger)

	ok, err := lock.TryAcquire(context.Background(), "replica-a")
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed, got ok=%v err=%v", ok, err)
	}

	time.Sleep(20 * time.Millisecond)

	ok, err = lock.TryAcquire(context.Background(), "replica-b")
	if err != nil || !ok {
		t.Fatalf("expected acquire to steal expired lock, got ok=%v err=%v", ok, err)
	}
}

// TestLock_ConcurrentAcquire_OnlyOneWins exercises the atomic-Insert path
// directly: many replicas racing a cold lock must yield exactly one
// winner, not the non-atomic get-then-write race the lock previously had.
func TestLock_ConcurrentAcquire_OnlyOneWins(t *testing.T) {
	logger := arbor.NewLogger()
	lock := NewLock(openTestStore(t), 60*time.Second, logger)

	const replicas = 8
	results := make(chan bool, replicas)
	for i := 0; i < replicas; i++ {
		go func(n int) {
			ok, err := lock.TryAcquire(context.Background(), "replica")
			if err != nil {
				results <- false
				return
			}
			results <- ok
		}(i)
	}

	wins := 0
	for i := 0; i < replicas; i++ {
		if <-results {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner among %d racing replicas, got %d", replicas, wins)
	}
}
