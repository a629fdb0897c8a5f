package common

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trustwatch/internal/platform/config"
)

// PrintBanner prints a short startup banner and logs the same information
// through the structured logger.
func PrintBanner(role string, cfg *config.Config, logger arbor.ILogger) {
	version := GetVersion()
	serviceURL := fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)

	fmt.Printf("\n== trustwatch %s (%s) ==\n", role, version)
	fmt.Printf("environment: %s\n", cfg.Environment)
	if role == "api" {
		fmt.Printf("listening:   %s\n", serviceURL)
	}
	fmt.Printf("\n")

	logger.Info().
		Str("role", role).
		Str("version", version).
		Str("environment", cfg.Environment).
		Msg("starting up")
}

// PrintShutdown logs process shutdown.
func PrintShutdown(role string, logger arbor.ILogger) {
	logger.Info().Str("role", role).Msg("shutting down")
}
