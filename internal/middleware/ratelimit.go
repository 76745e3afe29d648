package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clinicops/attendance-service/internal/cache"
)

// RateLimiter throttles requests per client IP using fixed windows backed by
// the shared cache, so limits hold across replicas when Redis is configured.
type RateLimiter struct {
	cache       cache.Cache
	scope       string
	window      time.Duration
	maxRequests int
}

// NewRateLimiter returns a rate limiter for the named scope (e.g. "login").
func NewRateLimiter(c cache.Cache, scope string, window time.Duration, maxRequests int) *RateLimiter {
	return &RateLimiter{
		cache:       c,
		scope:       scope,
		window:      window,
		maxRequests: maxRequests,
	}
}

// Handler wraps next with the rate limit. Over-limit requests get 429 with a
// Retry-After header. Counter errors fail open: an unavailable cache must not
// lock everyone out.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		windowStart := time.Now().Unix() / int64(rl.window.Seconds())
		key := cache.RateLimitKey(rl.scope, ip, windowStart)

		count, err := rl.cache.Increment(r.Context(), key, rl.window)
		if err != nil {
			log.Warn().Err(err).Msg("Rate limit counter unavailable")
			next.ServeHTTP(w, r)
			return
		}

		remaining := rl.maxRequests - int(count)
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.maxRequests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if int(count) > rl.maxRequests {
			retryAfter := (windowStart+1)*int64(rl.window.Seconds()) - time.Now().Unix()
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			log.Warn().Str("ip", ip).Str("scope", rl.scope).Msg("Rate limit exceeded")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP returns the request's client IP. Trusts RemoteAddr; RealIP
// middleware has already resolved X-Forwarded-For upstream.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
