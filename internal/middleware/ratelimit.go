package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/sys3222/akshare-mcp-adapter/internal/errors"
	"github.com/sys3222/akshare-mcp-adapter/internal/httputil"
	"github.com/sys3222/akshare-mcp-adapter/internal/logging"
)

// RateLimiter applies a per-subject token bucket: keyed on the resolved
// username when the request is authenticated, falling back to client IP for
// the public /token route.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
	limit    int
	window   time.Duration
	logger   *logging.Logger
}

// NewRateLimiterWithWindow builds a RateLimiter allowing limit requests per
// window, with the given burst capacity.
func NewRateLimiterWithWindow(limit int, window time.Duration, burst int, logger *logging.Logger) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	perSecond := float64(limit) / window.Seconds()
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(perSecond),
		burst:    burst,
		limit:    limit,
		window:   window,
		logger:   logger,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	l, ok := rl.limiters[key]
	if !ok {
		l = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = l
	}
	return l
}

// Handler wraps next with per-subject rate limiting.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, ok := logging.UserIDFromContext(r.Context())
		if !ok || key == "" {
			key = clientIP(r)
		}

		if !rl.getLimiter(key).Allow() {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			httputil.WriteError(w, errors.RateLimited("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartCleanup periodically drops the limiter map once it grows past a
// bound, so long-running processes don't leak memory for one-shot callers.
func (rl *RateLimiter) StartCleanup(interval time.Duration) (stop func()) {
	if interval <= 0 {
		return func() {}
	}
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				rl.mu.Lock()
				if len(rl.limiters) > 10000 {
					rl.limiters = make(map[string]*rate.Limiter)
				}
				rl.mu.Unlock()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}
