// Package main implements the entry point for the recipe extraction API
// server, which accepts recipe URLs and raw text, runs them through an
// LLM-backed extraction pipeline, and serves job status over HTTP.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/joho/godotenv"

	"github.com/tastebase/recipe-api/internal/config"
	"github.com/tastebase/recipe-api/internal/platform/logger"
)

func main() {
	// A .env file is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, appLogger, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// initializeApp loads configuration and sets up structured logging.
func initializeApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"model", cfg.LLM.ModelName,
		"type_key", cfg.Pipeline.TypeKey)

	if cfg.Database.URL == "" {
		appLogger.Warn("No database URL configured; recipes will not be persisted")
	}
	if cfg.Translate.ProjectID == "" {
		appLogger.Warn("No translation project configured; bilingual fields will be skipped")
	}
	if cfg.Image.ProjectID == "" || cfg.Image.Bucket == "" {
		appLogger.Warn("Image generation not fully configured; recipes will have no generated image")
	}

	return cfg, appLogger, nil
}
