// Package crawlworker implements the crawl_target queue handler: fetch a
// target's live text, hand it to the change detector, and record a
// CrawlRun for telemetry. It is the glue between the fetch capability and
// the pure detector package, wired around this engine's queue.Handler
// signature.
package crawlworker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trustwatch/internal/common"
	"github.com/ternarybob/trustwatch/internal/detector"
	"github.com/ternarybob/trustwatch/internal/interfaces"
	"github.com/ternarybob/trustwatch/internal/models"
	"github.com/ternarybob/trustwatch/internal/queue"
)

// FetcherSelector resolves the right Fetcher for a given URL. It is a
// closure over fetch.Select with the demo flag and both fetchers already
// bound, so crawlworker does not depend on the concrete fetch package types.
type FetcherSelector func(targetURL string) interfaces.Fetcher

// Handler builds the crawl_target queue.Handler.
func Handler(storage interfaces.StorageManager, selectFetcher FetcherSelector, det *detector.Detector, logger arbor.ILogger) queue.Handler {
	return func(ctx context.Context, job *queue.Job) error {
		var payload queue.CrawlTargetPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal crawl_target payload: %w", err)
		}

		company, err := storage.Companies().Get(ctx, payload.CompanyID)
		if err != nil {
			return fmt.Errorf("load company: %w", err)
		}
		if company == nil {
			// Company was deleted after the job was enqueued: nothing to do.
			return nil
		}

		target, err := storage.CrawlTargets().Get(ctx, payload.TargetID)
		if err != nil {
			return fmt.Errorf("load crawl target: %w", err)
		}
		if target == nil {
			return nil
		}

		run := &models.CrawlRun{
			ID:            common.NewID("run"),
			CompanyID:     company.ID,
			CrawlTargetID: target.ID,
			Status:        models.CrawlRunRunning,
			StartedAt:     time.Now(),
		}
		if err := storage.CrawlRuns().Save(ctx, run); err != nil {
			return fmt.Errorf("save crawl run: %w", err)
		}

		fetcher := selectFetcher(payload.URL)
		text, _, fetchErr := fetcher.Fetch(ctx, payload.URL)
		if fetchErr != nil {
			return finishRun(ctx, storage, run, fmt.Errorf("fetch %s: %w", payload.URL, fetchErr))
		}

		run.PagesCount = 1
		result, err := det.Run(ctx, company, target, text)
		if err != nil {
			return finishRun(ctx, storage, run, fmt.Errorf("detect changes: %w", err))
		}

		if result != nil {
			run.ClaimsFound = result.ClaimsFound
			run.EventsEmitted = result.EventsEmitted
		}
		return finishRun(ctx, storage, run, nil)
	}
}

func finishRun(ctx context.Context, storage interfaces.StorageManager, run *models.CrawlRun, cause error) error {
	now := time.Now()
	run.FinishedAt = &now
	if cause != nil {
		run.Status = models.CrawlRunFailed
		run.Errors = append(run.Errors, cause.Error())
	} else {
		run.Status = models.CrawlRunCompleted
	}
	if err := storage.CrawlRuns().Save(ctx, run); err != nil {
		return fmt.Errorf("save crawl run result: %w", err)
	}
	if cause != nil {
		// Crawl failures do not poison the target: re-throw so the queue
		// retries, the next scheduled cycle will also re-try regardless.
		return cause
	}
	return nil
}
