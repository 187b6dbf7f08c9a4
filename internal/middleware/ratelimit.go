package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/verdantlane/loyalty-game-server/internal/audit"
	"github.com/verdantlane/loyalty-game-server/internal/config"
	"github.com/verdantlane/loyalty-game-server/internal/service"
)

// CustomerRateLimitMiddleware applies a per-customer sliding window on
// authenticated routes. The limit comes from the customer row, falling back
// to the configured default.
type CustomerRateLimitMiddleware struct {
	limiter *service.RateLimiter
	window  time.Duration
}

func NewCustomerRateLimitMiddleware(limiter *service.RateLimiter) *CustomerRateLimitMiddleware {
	return &CustomerRateLimitMiddleware{
		limiter: limiter,
		window:  time.Minute,
	}
}

func (m *CustomerRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		customer := GetCustomer(r.Context())
		if customer == nil {
			next.ServeHTTP(w, r)
			return
		}

		limit := customer.RateLimitPerMin
		if limit <= 0 {
			limit = config.DefaultRateLimitPerMin
		}

		key := fmt.Sprintf("customer:%s", customer.ID)
		allowed, resetAt := m.limiter.CheckLimit(r.Context(), key, limit, m.window)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			audit.LogFromRequest(r, audit.Event{
				Type:       audit.EventRateLimitExceed,
				CustomerID: customer.ID,
			})
			secondsLeft := int(time.Until(resetAt).Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(secondsLeft))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// IPRateLimitMiddleware damps anonymous brute force against a single route.
type IPRateLimitMiddleware struct {
	limiter *service.RateLimiter
	limit   int
	window  time.Duration
	prefix  string
}

func NewIPRateLimitMiddleware(limiter *service.RateLimiter, limit int, window time.Duration, prefix string) *IPRateLimitMiddleware {
	return &IPRateLimitMiddleware{
		limiter: limiter,
		limit:   limit,
		window:  window,
		prefix:  prefix,
	}
}

func (m *IPRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr

		key := fmt.Sprintf("ip:%s:%s", m.prefix, ip)
		allowed, resetAt := m.limiter.CheckLimit(r.Context(), key, m.limit, m.window)

		if !allowed {
			secondsLeft := int(time.Until(resetAt).Seconds()) + 1
			w.Header().Set("Retry-After", fmt.Sprintf("%d", secondsLeft))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Too many requests. Please try again later.",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
