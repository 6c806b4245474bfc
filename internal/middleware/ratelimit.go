package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimiterConfig tunes a token-bucket limiter. Requests are keyed per
// client, so one misbehaving caller cannot starve the rest.
type RateLimiterConfig struct {
	// RequestsPerSecond is the steady-state refill rate per key.
	RequestsPerSecond float64

	// Burst is the bucket capacity: how far a key may run ahead of the
	// refill rate.
	Burst int

	// CleanupInterval is how often idle buckets are evicted.
	CleanupInterval time.Duration

	// KeyFunc derives the limiter key from the request. Defaults to
	// GetClientIP.
	KeyFunc func(r *http.Request) string
}

// DefaultRateLimiterConfig is the general API tier.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 10,
		Burst:             20,
		CleanupInterval:   time.Minute,
		KeyFunc:           GetClientIP,
	}
}

// StrictRateLimiterConfig is the tier for credential endpoints, where a
// burst of attempts is the attack itself.
func StrictRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 1,
		Burst:             5,
		CleanupInterval:   time.Minute,
		KeyFunc:           GetClientIP,
	}
}

type bucket struct {
	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// RateLimiter holds one token bucket per key, refilled continuously and
// evicted once idle. Stop ends the eviction goroutine.
type RateLimiter struct {
	cfg     RateLimiterConfig
	mu      sync.Mutex
	buckets map[string]*bucket
	done    chan struct{}
}

// NewRateLimiter creates a limiter and starts its eviction loop.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = GetClientIP
	}
	rl := &RateLimiter{
		cfg:     cfg,
		buckets: make(map[string]*bucket),
		done:    make(chan struct{}),
	}
	go rl.evictIdle()
	return rl
}

// Allow spends one token from the key's bucket, reporting whether one was
// available. New keys start with a full bucket.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(rl.cfg.Burst), last: time.Now()}
		rl.buckets[key] = b
	}
	rl.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens += now.Sub(b.last).Seconds() * rl.cfg.RequestsPerSecond
	if limit := float64(rl.cfg.Burst); b.tokens > limit {
		b.tokens = limit
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// evictIdle drops buckets that refilled completely and saw no traffic for a
// full cleanup interval; they are indistinguishable from fresh ones.
func (rl *RateLimiter) evictIdle() {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			rl.mu.Lock()
			for key, b := range rl.buckets {
				b.mu.Lock()
				idle := b.tokens >= float64(rl.cfg.Burst) &&
					now.Sub(b.last) > rl.cfg.CleanupInterval
				b.mu.Unlock()
				if idle {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.done:
			return
		}
	}
}

// Stop ends the eviction goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.done)
}

// Middleware rejects requests whose key is out of tokens with a 429 and a
// Retry-After hint.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(rl.cfg.KeyFunc(r)) {
			w.Header().Set("Retry-After", "1")
			respondTooManyRequests(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetClientIP resolves the caller's address, trusting reverse-proxy headers
// when present: the first X-Forwarded-For entry, then X-Real-IP, then the
// socket address.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
