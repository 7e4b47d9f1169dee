package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskcal/internal/api/shared"
	"github.com/phrazzld/taskcal/internal/platform/logger"
	"github.com/phrazzld/taskcal/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrace(t *testing.T) {
	var logBuf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var seenTrace string
	handler := Trace(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenTrace = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("inside handler")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/feed", nil))

	require.Len(t, seenTrace, 32)
	assert.Equal(t, seenTrace, w.Header().Get(shared.TraceIDHeader))
	assert.Contains(t, logBuf.String(), "request started")
	assert.Contains(t, logBuf.String(), "msg=\"inside handler\" trace_id="+seenTrace)
}

func TestTrace_ReusesChiRequestID(t *testing.T) {
	var seenTrace string
	handler := chimw.RequestID(Trace(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenTrace = shared.GetTraceID(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(chimw.RequestIDHeader, "upstream-id")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "upstream-id", seenTrace)
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.New(1, 2, time.Minute)
	t.Cleanup(limiter.Stop)

	handler := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	call := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, call("10.0.0.1:1001").Code)

	limited := call("10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), "Too many requests")

	assert.Equal(t, http.StatusOK, call("10.0.0.2:1000").Code, "other clients are not affected")
}

func TestRateLimit_NilLimiter(t *testing.T) {
	handler := RateLimit(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "192.0.2.7", clientKey(req))

	req.RemoteAddr = "192.0.2.7"
	assert.Equal(t, "192.0.2.7", clientKey(req))
}
