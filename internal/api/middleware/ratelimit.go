package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/phrazzld/taskcal/internal/api/shared"
	"github.com/phrazzld/taskcal/internal/ratelimit"
)

// RateLimit rejects requests from clients that exceed their token bucket
// with 429 and a Retry-After header. Clients are keyed by remote IP, so
// chi's RealIP should run first when behind a proxy. A nil limiter lets
// everything through.
func RateLimit(limiter *ratelimit.KeyedRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if !limiter.Allow(key) {
				retry := limiter.RetryAfter(key)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
				shared.RespondWithError(w, r, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
