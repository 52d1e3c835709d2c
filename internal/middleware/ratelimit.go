package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
)

const (
	maxTrackedCallers = 4096
	idleCallerTTL     = 3 * time.Minute
	rateLimitMessage  = "Too many requests. Please wait a moment and try again."
)

// RateLimiter limits requests per caller. Authenticated callers are keyed by
// their OIDC subject, everyone else by client IP.
type RateLimiter struct {
	callers *expirable.LRU[string, *rate.Limiter]
	limit   rate.Limit
	burst   int
}

// NewRateLimiter creates a rate limiter. rps is requests per second, burst is max burst size.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		callers: expirable.NewLRU[string, *rate.Limiter](maxTrackedCallers, nil, idleCallerTTL),
		limit:   rate.Limit(rps),
		burst:   burst,
	}
}

// limiter returns the bucket of key. Every hit pushes its expiry back, so
// only idle callers are forgotten.
func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	l, ok := rl.callers.Get(key)
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
	}
	rl.callers.Add(key, l)
	return l
}

// Limit returns middleware that rate-limits requests per caller. Rejected
// requests get a 429 carrying a failure notification and Retry-After.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := rl.limiter(callerKey(r))
		if !l.Allow() {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter(l)))
			model.WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED", rateLimitMessage)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// retryAfter is the number of whole seconds until l grants one more token.
func retryAfter(l *rate.Limiter) int {
	res := l.Reserve()
	defer res.Cancel()
	if !res.OK() {
		return 1
	}
	return max(1, int(math.Ceil(res.Delay().Seconds())))
}

func callerKey(r *http.Request) string {
	if c := GetClaims(r.Context()); c != nil && c.Subject != "" {
		return "sub:" + c.Subject
	}
	return "ip:" + clientIP(r)
}

// clientIP extracts the client IP from the request, respecting X-Forwarded-For.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
