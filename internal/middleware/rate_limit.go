package middleware

import (
	"net/http"
	"time"

	"github.com/BradenHooton/useradmin/internal/auth"
	pkghttp "github.com/BradenHooton/useradmin/pkg/http"
	"github.com/go-chi/httprate"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
}

// DefaultAuthRateLimit returns default rate limit config for auth endpoints (5 requests per minute)
func DefaultAuthRateLimit() RateLimitConfig {
	return RateLimitConfig{RequestsPerMinute: 5}
}

// DefaultBatchRateLimit returns the default limit for batch actions (30 per minute)
func DefaultBatchRateLimit() RateLimitConfig {
	return RateLimitConfig{RequestsPerMinute: 30}
}

// RateLimitByIP creates a middleware that rate limits requests by the peer
// address. Forwarding headers are ignored so clients cannot pick their bucket.
func RateLimitByIP(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyByIP(),
		httprate.WithLimitHandler(limitExceeded),
	)
}

// RateLimitByActor limits requests per authenticated administrator, falling
// back to the client IP when no actor is in the context. It must run after
// auth.AuthMiddleware.
func RateLimitByActor(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyFuncs(actorKey),
		httprate.WithLimitHandler(limitExceeded),
	)
}

func actorKey(r *http.Request) (string, error) {
	if actor := auth.ActorFromContext(r.Context()); actor != "" {
		return "actor:" + actor, nil
	}
	ip, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + ip, nil
}

func limitExceeded(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteTooManyRequests(w, "Rate limit exceeded")
}
