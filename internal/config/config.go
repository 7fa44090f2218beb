package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Worker   WorkerConfig   `mapstructure:"worker"   validate:"required"`
	Catalog  CatalogConfig  `mapstructure:"catalog"  validate:"required"`
	Cleanup  CleanupConfig  `mapstructure:"cleanup"  validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// WorkerConfig tunes the background task runner.
type WorkerConfig struct {
	// Count is the number of concurrent workers polling the task store.
	Count int `mapstructure:"count" validate:"required,gt=0"`

	// PollInterval is how long an idle worker pauses between claim attempts.
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"required,gt=0"`

	// ReclaimAge is how long a task may sit in_progress before the reclaim
	// sweep considers its worker dead and returns it to new.
	ReclaimAge time.Duration `mapstructure:"reclaim_age" validate:"required,gt=0"`

	// ReclaimInterval is how often the reclaim sweep runs.
	ReclaimInterval time.Duration `mapstructure:"reclaim_interval" validate:"required,gt=0"`
}

// CatalogConfig configures the external product catalog client.
type CatalogConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout"  validate:"required,gt=0"`
}

// CleanupConfig configures the recurring cleanup task.
type CleanupConfig struct {
	// Schedule is a cron expression for when cleanup runs.
	Schedule string `mapstructure:"schedule" validate:"required"`

	// Retention is how long terminal task rows are kept before deletion.
	Retention time.Duration `mapstructure:"retention" validate:"required,gt=0"`
}
