// Package main implements the entry point for the Spoils API server,
// which exposes the product and job endpoints and runs the background
// task workers that fetch products and resolve their ingredient graphs.
package main

import (
	"fmt"
	"log"
	"log/slog"

	"github.com/spoilsapp/spoils-api/internal/config"
	"github.com/spoilsapp/spoils-api/internal/platform/logger"
)

func main() {
	cfg, appLogger, err := initialize()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app, err := newApplication(cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to assemble application", "error", err)
		log.Fatalf("Failed to assemble application: %v", err)
	}

	if err := app.Run(); err != nil {
		appLogger.Error("Server exited with error", "error", err)
		log.Fatalf("Server exited with error: %v", err)
	}
}

// initialize loads configuration and sets up structured logging.
func initialize() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"worker_count", cfg.Worker.Count)

	return cfg, appLogger, nil
}
