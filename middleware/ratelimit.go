package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/gramgyan/backend/services/ratelimit"
	"github.com/gramgyan/backend/utils"
	"go.uber.org/zap"
)

// Limiter decides whether a client key may proceed
type Limiter interface {
	Allow(key string) ratelimit.Result
}

// RateLimit throttles requests per client IP. Run it after chi's RealIP so
// forwarded addresses are honoured.
func RateLimit(limiter Limiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			res := limiter.Allow(key)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Burst))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

			if !res.Allowed {
				retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

				logger.Warn("rate limit exceeded",
					zap.String("request_id", GetRequestIDFromContext(r.Context())),
					zap.String("client", key),
					zap.String("path", r.URL.Path))

				_ = utils.WriteTooManyRequests(w, "Rate limit exceeded", map[string]interface{}{
					"retry_after_seconds": retryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
