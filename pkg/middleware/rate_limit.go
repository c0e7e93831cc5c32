package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	apperrors "itemshare/pkg/errors"
	httputil "itemshare/pkg/http"
	"itemshare/pkg/logger"
	"itemshare/pkg/sanitizer"
)

// KeyExtractor picks the bucket a request is counted against. An empty key
// is not limited.
type KeyExtractor func(r *http.Request) string

type RateLimiter struct {
	mu       sync.RWMutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	key      KeyExtractor
	log      *logger.Logger
	stopCh   chan struct{}
	now      func() time.Time
}

func NewRateLimiter(limit int, window time.Duration, extractor KeyExtractor, log *logger.Logger) *RateLimiter {
	if extractor == nil {
		extractor = IdentityKey
	}
	limiter := &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		key:      extractor,
		log:      log,
		stopCh:   make(chan struct{}),
		now:      time.Now,
	}

	go limiter.cleanup()

	return limiter
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for key, timestamps := range rl.requests {
				if len(timestamps) == 0 || rl.now().Sub(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *RateLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	valid := rl.requests[key][:0:0]
	for _, ts := range rl.requests[key] {
		if now.Sub(ts) < rl.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}

	rl.requests[key] = append(valid, now)
	return true
}

func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limiter.key(r)

			if !limiter.Allow(key) {
				limiter.log.Warn("Rate limit exceeded",
					"request_id", RequestID(r.Context()),
					"key", key,
					"path", r.URL.Path,
				)
				_ = httputil.WriteError(w, apperrors.RateLimited())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IdentityKey counts requests per caller identity, and per client address
// for anonymous calls.
func IdentityKey(r *http.Request) string {
	if identity := sanitizer.NormalizeIdentity(r.Header.Get(httputil.HeaderUserIdentity)); identity != "" {
		return identity
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
