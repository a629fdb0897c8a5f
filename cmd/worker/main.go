package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/trustwatch/internal/common"
	"github.com/ternarybob/trustwatch/internal/crawlworker"
	"github.com/ternarybob/trustwatch/internal/detector"
	"github.com/ternarybob/trustwatch/internal/evidence"
	"github.com/ternarybob/trustwatch/internal/fetch"
	"github.com/ternarybob/trustwatch/internal/interfaces"
	"github.com/ternarybob/trustwatch/internal/mail"
	"github.com/ternarybob/trustwatch/internal/platform/config"
	"github.com/ternarybob/trustwatch/internal/platform/logging"
	"github.com/ternarybob/trustwatch/internal/queue"
	"github.com/ternarybob/trustwatch/internal/storage/badger"
)

func main() {
	configFile := flag.String("config", "", "configuration file path")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	common.InstallCrashHandler(cfg.Logging.FileDir)
	defer common.RecoverWithCrashFile()
	common.PrintBanner("worker", cfg, logger)

	manager, err := badger.NewManager(logger, &cfg.Store)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer manager.Close()

	completedFor, _ := time.ParseDuration(cfg.Queue.RetainCompletedFor)
	failedFor, _ := time.ParseDuration(cfg.Queue.RetainFailedFor)
	retention := queue.RetentionConfig{
		CompletedFor: completedFor,
		CompletedMax: cfg.Queue.RetainCompletedMax,
		FailedFor:    failedFor,
		FailedMax:    cfg.Queue.RetainFailedMax,
	}
	jobs := queue.NewStore(manager.Raw().Store(), logger, retention)

	fetchTimeout, err := time.ParseDuration(cfg.Crawler.FetchTimeout)
	if err != nil {
		fetchTimeout = 30 * time.Second
	}
	limiter := fetch.NewLimiter(cfg.Crawler.RatePerSecond)
	liveFetcher := fetch.NewHTTPFetcher(fetchTimeout, limiter, logger)
	demoFetcher := fetch.NewDemoFetcher()
	selectFetcher := func(targetURL string) interfaces.Fetcher {
		return fetch.Select(cfg.Crawler.DemoMode, targetURL, demoFetcher, liveFetcher)
	}

	det := detector.New(manager, jobs, logger)
	crawlHandler := crawlworker.Handler(manager, selectFetcher, det, logger)

	parseTimeout, err := time.ParseDuration(cfg.Evidence.ParseTimeout)
	if err != nil {
		parseTimeout = 2 * time.Minute
	}
	realParser := evidence.NewRealPDFParser(parseTimeout, logger)
	demoParser := evidence.NewDemoPDFParser()
	selectParser := func(pdfURL string) interfaces.PDFParser {
		return evidence.SelectParser(cfg.Crawler.DemoMode, pdfURL, demoParser, realParser)
	}
	evidenceHandler := evidence.Handler(manager, selectParser, logger)

	sender := mail.NewLogSender(logger)
	mailHandler := mail.Handler(manager, sender, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pollInterval, err := time.ParseDuration(cfg.Queue.PollInterval)
	if err != nil {
		pollInterval = time.Second
	}

	crawlPool := queue.NewWorkerPool(ctx, jobs, queue.CrawlTarget, cfg.Queue.CrawlConcurrency, pollInterval, crawlHandler, logger)
	evidencePool := queue.NewWorkerPool(ctx, jobs, queue.ProcessEvidence, cfg.Queue.EvidenceConcurrency, pollInterval, evidenceHandler, logger)
	mailPool := queue.NewWorkerPool(ctx, jobs, queue.SendAlertEmail, 1, pollInterval, mailHandler, logger)

	crawlPool.Start()
	evidencePool.Start()
	mailPool.Start()

	go queue.RunRetentionLoop(ctx, jobs, 5*time.Minute, logger)

	logger.Info().
		Int("crawl_concurrency", cfg.Queue.CrawlConcurrency).
		Int("evidence_concurrency", cfg.Queue.EvidenceConcurrency).
		Msg("worker pools running, press ctrl+c to stop")

	<-ctx.Done()

	crawlPool.Stop()
	evidencePool.Stop()
	mailPool.Stop()

	common.PrintShutdown("worker", logger)
}
