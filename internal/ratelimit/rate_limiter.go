// Package ratelimit gates high-cost System operations per principal,
// adapted from payout-engine/shared/security/rate_limiter.go's per-user
// token-bucket limiter.
package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// PrincipalLimiter enforces a per-principal token bucket, used by the
// System actor to gate create_wallet at SYSTEM_RATE_LIMIT per spec §4.5.
type PrincipalLimiter struct {
	limiters        map[string]*principalBucket
	mu              sync.RWMutex
	rate            rate.Limit
	burst           int
	cleanupInterval time.Duration
}

type principalBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewPrincipalLimiter builds a limiter allowing `r` events per second with
// burst `b` per principal; stale buckets are swept every 10 minutes.
func NewPrincipalLimiter(r rate.Limit, b int) *PrincipalLimiter {
	l := &PrincipalLimiter{
		limiters:        make(map[string]*principalBucket),
		rate:            r,
		burst:           b,
		cleanupInterval: 10 * time.Minute,
	}
	go l.cleanup()
	return l
}

// SystemRateLimitInterval is the default create_wallet cadence named in spec §4.5
// ("at most one creation per user per SYSTEM_RATE_LIMIT interval").
const SystemRateLimitInterval = time.Minute

// NewSystemRateLimiter builds the limiter used for create_wallet: one
// allowed creation per SystemRateLimitInterval, no burst.
func NewSystemRateLimiter() *PrincipalLimiter {
	return NewPrincipalLimiter(rate.Every(SystemRateLimitInterval), 1)
}

func (l *PrincipalLimiter) bucket(principalText string) *rate.Limiter {
	l.mu.RLock()
	b, exists := l.limiters[principalText]
	l.mu.RUnlock()

	if exists {
		l.mu.Lock()
		b.lastSeen = time.Now()
		l.mu.Unlock()
		return b.limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, exists = l.limiters[principalText]; exists {
		b.lastSeen = time.Now()
		return b.limiter
	}

	limiter := rate.NewLimiter(l.rate, l.burst)
	l.limiters[principalText] = &principalBucket{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

// Allow reports whether `principalText` may proceed right now, consuming
// a token if so.
func (l *PrincipalLimiter) Allow(principalText string) bool {
	return l.bucket(principalText).Allow()
}

func (l *PrincipalLimiter) cleanup() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		for id, b := range l.limiters {
			if time.Since(b.lastSeen) > l.cleanupInterval {
				delete(l.limiters, id)
			}
		}
		l.mu.Unlock()
	}
}

// HTTPMiddleware rate-limits inbound HTTP requests by the caller principal
// carried in X-Principal, falling back to remote address — the thin illustrative
// transport surface noted as a non-goal in spec §1.
func (l *PrincipalLimiter) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Principal")
		if id == "" {
			id = r.RemoteAddr
		}
		if !l.Allow(id) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, `{"code":"RATE_LIMIT_EXCEEDED"}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
