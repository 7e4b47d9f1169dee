package shared

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrazzld/taskcal/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requestWithLog returns a request whose context carries a text logger
// writing into buf, and optionally a trace ID.
func requestWithLog(buf *strings.Builder, traceID string) *http.Request {
	l := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := logger.WithLogger(context.Background(), l)
	if traceID != "" {
		ctx = WithTraceID(ctx, traceID)
	}
	return httptest.NewRequest(http.MethodGet, "/api/feed", nil).WithContext(ctx)
}

func TestRespondWithJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	RespondWithJSON(w, req, http.StatusOK, map[string]any{"status": "ok", "hits": 3})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(3), body["hits"])
}

func TestRespondWithJSON_Nil(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithJSON(w, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, nil)
	assert.Equal(t, "null\n", w.Body.String())
}

func TestRespondWithJSON_EncodingError(t *testing.T) {
	var logBuf strings.Builder
	req := requestWithLog(&logBuf, "")
	w := httptest.NewRecorder()

	RespondWithJSON(w, req, http.StatusOK, map[string]any{"ch": make(chan int)})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, logBuf.String(), "failed to encode JSON response")
}

func TestRespondWithError(t *testing.T) {
	var logBuf strings.Builder
	req := requestWithLog(&logBuf, "test-trace-id")
	w := httptest.NewRecorder()

	RespondWithError(w, req, http.StatusBadRequest, "Invalid date range")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Invalid date range", response.Error)
	assert.Equal(t, "test-trace-id", response.TraceID)
}

func TestRespondWithError_NoTraceID(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithError(w, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusNotFound, "User not found")

	assert.JSONEq(t, `{"error":"User not found"}`, w.Body.String())
}

func TestRespondWithErrorAndLog(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		err           error
		expectedLevel string
	}{
		{"server error", http.StatusInternalServerError, errors.New("database connection failed"), "level=ERROR"},
		{"client error", http.StatusBadRequest, errors.New("invalid input"), "level=DEBUG"},
		{"rate limited", http.StatusTooManyRequests, errors.New("rate limit exceeded"), "level=WARN"},
		{"no error value", http.StatusNotFound, nil, "level=DEBUG"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var logBuf strings.Builder
			req := requestWithLog(&logBuf, "test-trace-id")
			w := httptest.NewRecorder()

			RespondWithErrorAndLog(w, req, tc.status, "safe message", tc.err)

			assert.Equal(t, tc.status, w.Code)
			var response ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, "safe message", response.Error)

			logOutput := logBuf.String()
			assert.Contains(t, logOutput, tc.expectedLevel)
			assert.Contains(t, logOutput, "trace_id=test-trace-id")
			if tc.err != nil {
				assert.Contains(t, logOutput, "error_type=")
			}
		})
	}
}

func TestRespondWithErrorAndLog_RedactsAndHidesError(t *testing.T) {
	var logBuf strings.Builder
	req := requestWithLog(&logBuf, "")
	w := httptest.NewRecorder()

	err := errors.New("connect postgres://app:hunter22@db:5432/taskcal")
	RespondWithErrorAndLog(w, req, http.StatusInternalServerError, "An unexpected error occurred", err)

	assert.NotContains(t, w.Body.String(), "postgres")
	assert.NotContains(t, logBuf.String(), "hunter22")
	assert.Contains(t, logBuf.String(), "[REDACTED_CREDENTIAL]")
}
