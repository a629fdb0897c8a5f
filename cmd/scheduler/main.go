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
	"github.com/ternarybob/trustwatch/internal/platform/config"
	"github.com/ternarybob/trustwatch/internal/platform/logging"
	"github.com/ternarybob/trustwatch/internal/queue"
	"github.com/ternarybob/trustwatch/internal/scheduler"
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
	common.PrintBanner("scheduler", cfg, logger)

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

	lockTTL, err := time.ParseDuration(cfg.Scheduler.LockTTL)
	if err != nil {
		lockTTL = 60 * time.Second
	}
	holderID := common.NewID("scheduler")

	sched := scheduler.New(cfg.Scheduler.Schedule, lockTTL, manager, manager.Raw().Store(), jobs, holderID, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sched.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start scheduler")
	}

	logger.Info().Str("schedule", cfg.Scheduler.Schedule).Str("holder_id", holderID).Msg("scheduler running, press ctrl+c to stop")
	<-ctx.Done()

	sched.Stop()
	common.PrintShutdown("scheduler", logger)
}
