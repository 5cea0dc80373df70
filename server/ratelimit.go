package server

import (
	"net/http"

	"golang.org/x/time/rate"

	"presale-tracker/utils"
)

// RateLimiter rejects requests beyond a global token-bucket rate.
type RateLimiter struct {
	limiter *rate.Limiter
	logger  *utils.Logger
	metrics *Metrics
}

// NewRateLimiter creates a limiter allowing rps requests per second with the
// given burst.
func NewRateLimiter(rps float64, burst int, logger *utils.Logger, metrics *Metrics) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger,
		metrics: metrics,
	}
}

// Handler implements the middleware.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiter.Allow() {
			rl.logger.Warn("[server] Rate limit exceeded: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
			if rl.metrics != nil {
				rl.metrics.rateLimited.Inc()
			}
			w.Header().Set("Retry-After", "1")
			writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
