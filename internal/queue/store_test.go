package queue

import (
	"context"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

func openTestStore(t *testing.T, retention RetentionConfig) *Store {
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
	return NewStore(db, arbor.NewLogger(), retention)
}

type samplePayload struct {
	Value string `json:"value"`
}

func TestEnqueueDequeue_RoundTrip(t *testing.T) {
	store := openTestStore(t, RetentionConfig{})
	ctx := context.Background()

	id, err := store.Enqueue(ctx, CrawlTarget, samplePayload{Value: "a"}, "key-1", PriorityCrawl)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	job, err := store.Dequeue(ctx, CrawlTarget)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if job.ID != id {
		t.Errorf("expected job %s, got %s", id, job.ID)
	}
	if job.Status != StatusActive {
		t.Errorf("expected status active, got %s", job.Status)
	}
}

func TestEnqueue_DedupesOnIdempotencyKey(t *testing.T) {
	store := openTestStore(t, RetentionConfig{})
	ctx := context.Background()

	id1, err := store.Enqueue(ctx, CrawlTarget, samplePayload{Value: "a"}, "same-key", PriorityCrawl)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	id2, err := store.Enqueue(ctx, CrawlTarget, samplePayload{Value: "b"}, "same-key", PriorityCrawl)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if id1 != id2 {
		t.Errorf("expected deduplicated enqueue to return the same job id, got %s and %s", id1, id2)
	}
}

func TestEnqueue_AllowsReenqueueAfterCompletion(t *testing.T) {
	store := openTestStore(t, RetentionConfig{})
	ctx := context.Background()

	id1, _ := store.Enqueue(ctx, CrawlTarget, samplePayload{Value: "a"}, "key-2", PriorityCrawl)
	if err := store.Complete(ctx, id1); err != nil {
		t.Fatalf("complete: %v", err)
	}

	id2, err := store.Enqueue(ctx, CrawlTarget, samplePayload{Value: "a"}, "key-2", PriorityCrawl)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if id1 == id2 {
		t.Error("expected a fresh job once the prior one reached a terminal state")
	}
}

func TestDequeue_PicksLowestPriorityValueFirst(t *testing.T) {
	store := openTestStore(t, RetentionConfig{})
	ctx := context.Background()

	_, _ = store.Enqueue(ctx, CrawlTarget, samplePayload{Value: "low"}, "k-low", PriorityEvidence)
	highID, _ := store.Enqueue(ctx, CrawlTarget, samplePayload{Value: "high"}, "k-high", PriorityEmail)

	job, err := store.Dequeue(ctx, CrawlTarget)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if job.ID != highID {
		t.Errorf("expected the lower-priority-value job to dequeue first, got %s", job.ID)
	}
}

func TestDequeue_NoJobReady(t *testing.T) {
	store := openTestStore(t, RetentionConfig{})
	_, err := store.Dequeue(context.Background(), CrawlTarget)
	if err != ErrNoJob {
		t.Fatalf("expected ErrNoJob, got %v", err)
	}
}

func TestDequeue_SkipsDelayedJobsNotYetDue(t *testing.T) {
	store := openTestStore(t, RetentionConfig{})
	ctx := context.Background()

	id, _ := store.Enqueue(ctx, CrawlTarget, samplePayload{Value: "a"}, "key-3", PriorityCrawl)
	_, _ = store.Dequeue(ctx, CrawlTarget)
	if err := store.Fail(ctx, id, context.DeadlineExceeded); err != nil {
		t.Fatalf("fail: %v", err)
	}

	_, err := store.Dequeue(ctx, CrawlTarget)
	if err != ErrNoJob {
		t.Fatalf("expected ErrNoJob while the retry delay has not elapsed, got %v", err)
	}
}

func TestFail_MarksFailedAfterMaxAttempts(t *testing.T) {
	store := openTestStore(t, RetentionConfig{})
	ctx := context.Background()

	id, _ := store.Enqueue(ctx, CrawlTarget, samplePayload{Value: "a"}, "key-4", PriorityCrawl)
	for i := 0; i < maxAttempts; i++ {
		if err := store.Fail(ctx, id, context.DeadlineExceeded); err != nil {
			t.Fatalf("fail attempt %d: %v", i, err)
		}
	}

	var job Job
	if err := store.db.Get(id, &job); err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Status != StatusFailed {
		t.Errorf("expected status failed after %d attempts, got %s", maxAttempts, job.Status)
	}
}

func TestSweep_RemovesCompletedPastRetentionWindow(t *testing.T) {
	store := openTestStore(t, RetentionConfig{CompletedFor: time.Millisecond, CompletedMax: 1000, FailedFor: time.Hour, FailedMax: 1000})
	ctx := context.Background()

	id, _ := store.Enqueue(ctx, CrawlTarget, samplePayload{Value: "a"}, "key-5", PriorityCrawl)
	if err := store.Complete(ctx, id); err != nil {
		t.Fatalf("complete: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if err := store.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	var job Job
	if err := store.db.Get(id, &job); err == nil {
		t.Error("expected completed job past its retention window to be swept")
	}
}

func TestSweep_KeepsCompletedWithinRetentionWindow(t *testing.T) {
	store := openTestStore(t, RetentionConfig{CompletedFor: time.Hour, CompletedMax: 1000, FailedFor: time.Hour, FailedMax: 1000})
	ctx := context.Background()

	id, _ := store.Enqueue(ctx, CrawlTarget, samplePayload{Value: "a"}, "key-6", PriorityCrawl)
	if err := store.Complete(ctx, id); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if err := store.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	var job Job
	if err := store.db.Get(id, &job); err != nil {
		t.Error("expected completed job within its retention window to survive the sweep")
	}
}
