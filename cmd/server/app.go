package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/tastebase/recipe-api/internal/config"
	"github.com/tastebase/recipe-api/internal/illustrate"
	"github.com/tastebase/recipe-api/internal/pipeline"
	"github.com/tastebase/recipe-api/internal/platform/gemini"
	"github.com/tastebase/recipe-api/internal/platform/postgres"
	"github.com/tastebase/recipe-api/internal/scrape"
	"github.com/tastebase/recipe-api/internal/translate"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil when no database URL is configured.
	db *sql.DB

	queue *pipeline.Queue
}

// newApplication creates a new application instance with all dependencies
// initialized. Translation, illustration, and persistence are wired only
// when configured; the pipeline runs in degraded form without them.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	stages := pipeline.Stages{
		Source: scrape.New(cfg.Pipeline.MaxContentChars, logger),
	}

	extractor, err := gemini.NewExtractor(
		ctx,
		logger.With("component", "extractor"),
		cfg.LLM,
		cfg.Pipeline.MaxContentChars,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize extractor: %w", err)
	}
	stages.Extractor = extractor
	logger.Info("Extraction model initialized", "model", cfg.LLM.ModelName)

	if cfg.Translate.ProjectID != "" {
		translator, err := translate.New(ctx, cfg.Translate, logger.With("component", "translator"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize translator: %w", err)
		}
		stages.Translator = translator
		logger.Info("Translation initialized", "target_language", cfg.Translate.TargetLanguage)
	}

	if cfg.Image.ProjectID != "" && cfg.Image.Bucket != "" {
		illustrator, err := illustrate.New(ctx, cfg.Image, logger.With("component", "illustrator"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize illustrator: %w", err)
		}
		stages.Illustrator = illustrator
		logger.Info("Image generation initialized",
			"model", cfg.Image.ModelName,
			"bucket", cfg.Image.Bucket)
	}

	if cfg.Database.URL != "" {
		db, err := setupAppDatabase(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to set up database: %w", err)
		}
		app.db = db

		if err := runMigrations(db, logger); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		stages.Store = postgres.NewRecipeStore(db, logger)
		logger.Info("Recipe store initialized")
	}

	queueCfg := pipeline.DefaultConfig()
	queueCfg.TypeKey = cfg.Pipeline.TypeKey
	queueCfg.StageTimeout = time.Duration(cfg.Pipeline.StageTimeoutSeconds) * time.Second

	app.queue, err = pipeline.NewQueue(stages, queueCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create job queue: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources. In-flight
// jobs are drained before the database connection is closed so the final
// persistence stage still has a working store.
func (app *application) cleanup() {
	app.queue.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
