package middleware

import (
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskcal/internal/api/shared"
	"github.com/phrazzld/taskcal/internal/platform/logger"
)

// Trace assigns every request a trace ID, echoes it in the X-Trace-ID
// response header and stores a request logger carrying it in the context.
// The chi request ID is reused when RequestID ran earlier in the chain.
func Trace(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := chimw.GetReqID(r.Context())
			if traceID == "" {
				traceID = shared.NewTraceID()
			}

			ctx := shared.WithTraceID(r.Context(), traceID)
			ctx = logger.WithTraceID(ctx, base, traceID)
			w.Header().Set(shared.TraceIDHeader, traceID)

			logger.FromContext(ctx).Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
