package middleware

import (
	"log/slog"
	"net/http"

	"github.com/spoilsapp/spoils-api/internal/api/shared"
	"github.com/spoilsapp/spoils-api/internal/platform/logger"
)

// NewTraceMiddleware returns middleware that assigns each request a trace ID
// and attaches a trace-scoped logger to the context, so every store and
// handler downstream logs with the request's trace ID via logger.FromContext.
// Apply it early in the chain. A nil base falls back to the process default
// logger.
func NewTraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context())
			traceID := shared.GetTraceID(ctx)

			requestLogger := base.With(slog.String("trace_id", traceID))
			ctx = logger.WithLogger(ctx, requestLogger)

			requestLogger.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
