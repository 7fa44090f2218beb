package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional config
// file. Environment variables (prefixed SPOILS_, nested keys joined with _,
// e.g. SPOILS_DATABASE_URL) take precedence over values from the file.
// Returns a populated Config or an error if loading or validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file: ./config.yaml. Absence is fine; a malformed
	// file is not.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("SPOILS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers defaults for every key so that viper's AutomaticEnv
// lookup knows about them, and so a bare environment still yields a usable
// local configuration (except the database URL, which has no sane default).
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.url", "")

	v.SetDefault("worker.count", 5)
	v.SetDefault("worker.poll_interval", "1s")
	v.SetDefault("worker.reclaim_age", "30m")
	v.SetDefault("worker.reclaim_interval", "5m")

	v.SetDefault("catalog.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("catalog.timeout", "10s")

	v.SetDefault("cleanup.schedule", "0 2 * * *")
	v.SetDefault("cleanup.retention", "720h")
}
