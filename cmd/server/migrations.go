package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	"github.com/spoilsapp/spoils-api/internal/platform/postgres"
)

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct{}

func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	slog.Info(fmt.Sprintf(format, v...))
}

// Fatalf does not call os.Exit; the error propagates to main, which owns
// process exit.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error(fmt.Sprintf(format, v...))
}

// runMigrations applies any pending schema migrations from the embedded
// migration files.
func runMigrations(db *sql.DB, appLogger *slog.Logger) error {
	// A correlation ID ties together every log line of one migration run.
	migrationLogger := appLogger.With(
		"correlation_id", uuid.New().String(),
		"component", "migrations",
	)

	startTime := time.Now()
	migrationLogger.Info("Starting migration operation")

	goose.SetLogger(&slogGooseLogger{})
	goose.SetBaseFS(postgres.MigrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		migrationLogger.Error("Migration failed",
			"error", err,
			"duration", time.Since(startTime))
		return err
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	migrationLogger.Info("Migrations applied",
		"db_version", version,
		"duration", time.Since(startTime))
	return nil
}
