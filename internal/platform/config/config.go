// Package config loads process configuration from TOML files with
// environment variable overrides: defaults -> file1 -> file2 -> ... ->
// env (highest priority).
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config is the root configuration for all three process roles (api,
// scheduler, worker). Each binary only reads the sections it needs.
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Server      ServerConfig   `toml:"server"`
	Queue       QueueConfig    `toml:"queue"`
	Store       StoreConfig    `toml:"store"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Crawler     CrawlerConfig  `toml:"crawler"`
	Evidence    EvidenceConfig `toml:"evidence"`
	Mail        MailConfig     `toml:"mail"`
	Logging     LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// QueueConfig tunes the durable job queue and its worker pools.
type QueueConfig struct {
	PollInterval       string `toml:"poll_interval"`        // e.g. "1s"
	CrawlConcurrency   int    `toml:"crawl_concurrency"`    // default 3, worker pool size for crawl_target
	EvidenceConcurrency int   `toml:"evidence_concurrency"` // default 2, worker pool size for process_evidence
	RetainCompletedFor string `toml:"retain_completed_for"` // e.g. "1h"
	RetainCompletedMax int    `toml:"retain_completed_max"` // default 1000
	RetainFailedFor    string `toml:"retain_failed_for"`    // e.g. "24h"
	RetainFailedMax    int    `toml:"retain_failed_max"`    // default 500
}

type StoreConfig struct {
	Path           string `toml:"path"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
}

// SchedulerConfig controls crawl-cycle cadence. Schedule is overridable by
// CRAWL_SCHEDULE; the env var wins over the file.
type SchedulerConfig struct {
	Schedule string `toml:"schedule"` // cron expression, default "0 */6 * * *"
	LockTTL  string `toml:"lock_ttl"` // default "60s"
}

// CrawlerConfig controls the content fetch adapter.
type CrawlerConfig struct {
	DemoMode       bool   `toml:"demo_mode"`       // overridable by DEMO_MODE
	FetchTimeout   string `toml:"fetch_timeout"`   // default "30s"
	RatePerSecond  float64 `toml:"rate_per_second"` // per-host fetch throttle (fetch.Limiter)
}

type EvidenceConfig struct {
	ParseTimeout string `toml:"parse_timeout"` // default "2m"
}

type MailConfig struct {
	Provider string `toml:"provider"` // not read: cmd/worker always wires mail.LogSender
	From     string `toml:"from"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`
	Output     []string `toml:"output"` // "stdout", "file"
	FileDir    string   `toml:"file_dir"`
	TimeFormat string   `toml:"time_format"`
}

// Default returns the baseline configuration applied before any file or
// environment overlay.
func Default() *Config {
	return &Config{
		Environment: "development",
		Server:      ServerConfig{Port: 8080, Host: "0.0.0.0"},
		Queue: QueueConfig{
			PollInterval:        "1s",
			CrawlConcurrency:    3,
			EvidenceConcurrency: 2,
			RetainCompletedFor:  "1h",
			RetainCompletedMax:  1000,
			RetainFailedFor:     "24h",
			RetainFailedMax:     500,
		},
		Store:     StoreConfig{Path: "./data/store"},
		Scheduler: SchedulerConfig{Schedule: "0 */6 * * *", LockTTL: "60s"},
		Crawler:   CrawlerConfig{DemoMode: false, FetchTimeout: "30s", RatePerSecond: 1},
		Evidence:  EvidenceConfig{ParseTimeout: "2m"},
		Mail:      MailConfig{Provider: "log"},
		Logging:   LoggingConfig{Level: "info", Output: []string{"stdout"}, TimeFormat: "15:04:05.000"},
	}
}

// Load reads defaults, then each path in order (later overrides earlier),
// then applies environment overrides (highest priority).
func Load(paths ...string) (*Config, error) {
	cfg := Default()

	for i, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides is the configuration-by-env-var surface.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CRAWL_SCHEDULE"); v != "" {
		cfg.Scheduler.Schedule = v
	}
	if v := os.Getenv("DEMO_MODE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Crawler.DemoMode = b
		}
	}
	if v := os.Getenv("STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
