package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spoilsapp/spoils-api/internal/api/shared"
	"github.com/spoilsapp/spoils-api/internal/platform/logger"
)

func TestNewTraceMiddlewareAssignsTraceID(t *testing.T) {
	t.Parallel()

	var seen string
	handler := NewTraceMiddleware(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = shared.GetTraceID(r.Context())
		}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Len(t, seen, 2*shared.TraceIDLength, "trace id is hex over TraceIDLength bytes")
}

func TestNewTraceMiddlewareAttachesTraceScopedLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	var traceID string
	handler := NewTraceMiddleware(base)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID = shared.GetTraceID(r.Context())
			// Downstream code reads the request logger from the context,
			// the way the stores do.
			logger.FromContext(r.Context()).Info("claiming row")
		}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/jobs", nil))

	require.NotEmpty(t, traceID)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	assert.Equal(t, "claiming row", entry["msg"])
	assert.Equal(t, traceID, entry["trace_id"], "context logger must carry the request's trace id")
}
