// Package logging configures the process-wide structured logger.
//
// There is no package-level singleton here: New builds a logger once at
// process startup and callers thread it explicitly through constructors.
package logging

import (
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"

	"github.com/ternarybob/trustwatch/internal/platform/config"
)

// New builds an arbor.ILogger from the logging section of Config.
func New(cfg config.LoggingConfig) arbor.ILogger {
	logger := arbor.NewLogger()

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = "15:04:05.000"
	}

	hasFile, hasConsole := false, false
	for _, output := range cfg.Output {
		switch output {
		case "file":
			hasFile = true
		case "stdout", "console":
			hasConsole = true
		}
	}

	if hasFile {
		logsDir := cfg.FileDir
		if logsDir == "" {
			logsDir = "./logs"
		}
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			logger = logger.WithConsoleWriter(writerConfig(models.LogWriterTypeConsole, "", timeFormat))
			logger.Warn().Err(err).Str("logs_dir", logsDir).Msg("failed to create logs directory, falling back to console")
		} else {
			logFile := filepath.Join(logsDir, "trustwatch.log")
			logger = logger.WithFileWriter(writerConfig(models.LogWriterTypeFile, logFile, timeFormat))
		}
	}

	if hasConsole || !hasFile {
		logger = logger.WithConsoleWriter(writerConfig(models.LogWriterTypeConsole, "", timeFormat))
	}

	logger = logger.WithLevelFromString(cfg.Level)

	return logger
}

func writerConfig(t models.LogWriterType, filename, timeFormat string) models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:             t,
		FileName:         filename,
		TimeFormat:       timeFormat,
		TextOutput:       true,
		DisableTimestamp: false,
		MaxSize:          100 * 1024 * 1024,
		MaxBackups:       3,
	}
}
