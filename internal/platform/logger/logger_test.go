package logger_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spoilsapp/spoils-api/internal/config"
	"github.com/spoilsapp/spoils-api/internal/platform/logger"
)

func TestSetup(t *testing.T) {
	// Not parallel: Setup mutates the process default logger.
	original := slog.Default()
	defer slog.SetDefault(original)

	for _, level := range []string{"debug", "info", "warn", "error", "DEBUG", "bogus"} {
		log, err := logger.Setup(config.ServerConfig{Port: 8080, LogLevel: level})
		require.NoError(t, err, "level %q", level)
		require.NotNil(t, log, "level %q", level)
		assert.Equal(t, log, slog.Default(), "Setup should install the logger as default")
	}
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	// Empty context falls back to the default logger
	assert.Equal(t, slog.Default(), logger.FromContext(context.Background()))

	// A stored logger round-trips
	stored := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := logger.WithLogger(context.Background(), stored)
	assert.Equal(t, stored, logger.FromContext(ctx))
}

func TestFromContextOrDefault(t *testing.T) {
	t.Parallel()

	def := slog.New(slog.NewTextHandler(os.Stderr, nil))

	tests := []struct {
		name string
		ctx  context.Context
		want *slog.Logger
	}{
		{name: "nil context", ctx: nil, want: def},
		{name: "context without logger", ctx: context.Background(), want: def},
		{name: "context with logger", ctx: logger.WithLogger(context.Background(), def), want: def},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.FromContextOrDefault(tt.ctx, def))
		})
	}
}
