package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/trustwatch/internal/api"
	"github.com/ternarybob/trustwatch/internal/common"
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
	common.PrintBanner("api", cfg, logger)

	manager, err := badger.NewManager(logger, &cfg.Store)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer manager.Close()

	retention := retentionConfig(cfg.Queue)
	jobs := queue.NewStore(manager.Raw().Store(), logger, retention)

	server := api.NewServer(manager, jobs, logger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: server,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("api server failed")
		}
	}()

	logger.Info().Str("addr", httpServer.Addr).Msg("api server ready, press ctrl+c to stop")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)

	common.PrintShutdown("api", logger)
}

func retentionConfig(cfg config.QueueConfig) queue.RetentionConfig {
	completedFor, _ := time.ParseDuration(cfg.RetainCompletedFor)
	failedFor, _ := time.ParseDuration(cfg.RetainFailedFor)
	return queue.RetentionConfig{
		CompletedFor: completedFor,
		CompletedMax: cfg.RetainCompletedMax,
		FailedFor:    failedFor,
		FailedMax:    cfg.RetainFailedMax,
	}
}
