package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/spoilsapp/spoils-api/internal/config"
	"github.com/spoilsapp/spoils-api/internal/events"
	"github.com/spoilsapp/spoils-api/internal/ingredients"
	"github.com/spoilsapp/spoils-api/internal/platform/openfoodfacts"
	"github.com/spoilsapp/spoils-api/internal/platform/postgres"
	"github.com/spoilsapp/spoils-api/internal/task"
)

// application holds the assembled dependency graph: database, stores, the
// task queue and its runner, and the HTTP handlers they feed.
type application struct {
	config *config.Config
	logger *slog.Logger

	db *sql.DB

	taskStore       *postgres.PostgresTaskStore
	productStore    *postgres.PostgresProductStore
	ingredientStore *postgres.PostgresIngredientStore

	queue   *task.Queue
	runner  *task.Runner
	emitter *events.InMemoryEventEmitter
}

// newApplication wires the full application from configuration: opens the
// database, runs migrations, and assembles stores, task handlers, queue,
// runner, and the event emitter.
func newApplication(cfg *config.Config, appLogger *slog.Logger) (*application, error) {
	db, err := openDatabase(cfg, appLogger)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db, appLogger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	taskStore := postgres.NewPostgresTaskStore(db, appLogger)
	productStore := postgres.NewPostgresProductStore(db, appLogger)
	ingredientStore := postgres.NewPostgresIngredientStore(db, appLogger)

	registry := task.NewRegistry()
	queue := task.NewQueue(taskStore, registry, appLogger)

	resolver, err := ingredients.NewResolver(
		ingredientStore,
		&task.ResolveTaskEnqueuer{Queue: queue},
		appLogger,
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create ingredient resolver: %w", err)
	}

	catalog, err := openfoodfacts.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout, appLogger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create catalog client: %w", err)
	}

	if err := registerHandlers(registry, taskStore, productStore, catalog, resolver, queue, cfg, appLogger); err != nil {
		db.Close()
		return nil, err
	}

	runner := task.NewRunner(taskStore, registry, queue, task.RunnerConfig{
		WorkerCount:     cfg.Worker.Count,
		PollInterval:    cfg.Worker.PollInterval,
		ReclaimAge:      cfg.Worker.ReclaimAge,
		ReclaimInterval: cfg.Worker.ReclaimInterval,
	}, appLogger)

	emitter := events.NewInMemoryEventEmitter(appLogger)
	emitter.RegisterHandler(task.NewEnqueueEventHandler(queue, registry, appLogger))

	return &application{
		config:          cfg,
		logger:          appLogger,
		db:              db,
		taskStore:       taskStore,
		productStore:    productStore,
		ingredientStore: ingredientStore,
		queue:           queue,
		runner:          runner,
		emitter:         emitter,
	}, nil
}

// registerHandlers registers every task variant the workers can process.
func registerHandlers(
	registry *task.Registry,
	taskStore task.Store,
	productStore *postgres.PostgresProductStore,
	catalog *openfoodfacts.Client,
	resolver *ingredients.Resolver,
	queue *task.Queue,
	cfg *config.Config,
	appLogger *slog.Logger,
) error {
	fetchHandler, err := task.NewFetchProductHandler(catalog, productStore, queue, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create fetch_product handler: %w", err)
	}

	analyzeHandler, err := task.NewAnalyzeIngredientsHandler(productStore, resolver, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create analyze_ingredients handler: %w", err)
	}

	resolveHandler, err := task.NewResolveSubIngredientHandler(resolver, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create resolve_sub_ingredient handler: %w", err)
	}

	notifyHandler, err := task.NewSendNotificationHandler(&task.LogNotifier{Logger: appLogger}, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create send_notification handler: %w", err)
	}

	cleanupHandler, err := task.NewCleanupHandler(
		taskStore,
		cfg.Cleanup.Retention,
		cfg.Cleanup.Schedule,
		appLogger,
	)
	if err != nil {
		return fmt.Errorf("failed to create cleanup handler: %w", err)
	}

	for _, h := range []task.Handler{
		fetchHandler,
		analyzeHandler,
		resolveHandler,
		notifyHandler,
		cleanupHandler,
	} {
		if err := registry.Register(h); err != nil {
			return fmt.Errorf("failed to register task handler: %w", err)
		}
	}
	return nil
}

// openDatabase connects to Postgres and verifies the connection.
func openDatabase(cfg *config.Config, appLogger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	appLogger.Info("Database connection established")
	return db, nil
}

// Run starts the task runner and the HTTP server, then blocks until a
// shutdown signal arrives and everything has drained.
func (app *application) Run() error {
	if err := app.runner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: app.setupRouter(),
	}

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("Starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdownCh:
		app.logger.Info("Shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		app.logger.Error("Server failed", "error", err)
		app.cleanup()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("Server shutdown failed", "error", err)
		app.cleanup()
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.cleanup()
	app.logger.Info("Server shutdown completed")
	return nil
}

// cleanup stops the workers and closes the database.
func (app *application) cleanup() {
	app.runner.Stop()
	if err := app.db.Close(); err != nil {
		app.logger.Error("Failed to close database", "error", err)
	}
}
