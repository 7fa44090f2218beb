package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spoilsapp/spoils-api/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	// Not parallel: Load reads process environment.
	t.Setenv("SPOILS_DATABASE_URL", "postgres://localhost:5432/spoils")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "postgres://localhost:5432/spoils", cfg.Database.URL)
	assert.Equal(t, 5, cfg.Worker.Count)
	assert.Equal(t, time.Second, cfg.Worker.PollInterval)
	assert.Equal(t, 30*time.Minute, cfg.Worker.ReclaimAge)
	assert.Equal(t, "0 2 * * *", cfg.Cleanup.Schedule)
	assert.Equal(t, 720*time.Hour, cfg.Cleanup.Retention)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SPOILS_DATABASE_URL", "postgres://localhost:5432/spoils")
	t.Setenv("SPOILS_SERVER_PORT", "9090")
	t.Setenv("SPOILS_SERVER_LOG_LEVEL", "debug")
	t.Setenv("SPOILS_WORKER_COUNT", "3")
	t.Setenv("SPOILS_WORKER_POLL_INTERVAL", "250ms")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 3, cfg.Worker.Count)
	assert.Equal(t, 250*time.Millisecond, cfg.Worker.PollInterval)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing database url",
			env:  map[string]string{},
		},
		{
			name: "invalid log level",
			env: map[string]string{
				"SPOILS_DATABASE_URL":     "postgres://localhost:5432/spoils",
				"SPOILS_SERVER_LOG_LEVEL": "verbose",
			},
		},
		{
			name: "zero worker count",
			env: map[string]string{
				"SPOILS_DATABASE_URL": "postgres://localhost:5432/spoils",
				"SPOILS_WORKER_COUNT": "0",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}
