package middleware

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	apperrors "itemshare/pkg/errors"
	httputil "itemshare/pkg/http"
	"itemshare/pkg/sanitizer"
)

const (
	HeaderIdempotencyKey      = "Idempotency-Key"
	HeaderIdempotencyReplayed = "Idempotent-Replayed"
)

type IdempotencyStore interface {
	// Reserve returns the stored response for key, or claims the key for the
	// caller. claimed is false while another request holds the key.
	Reserve(key string) (cached *CachedResponse, claimed bool)
	Complete(key string, response *CachedResponse)
	Release(key string)
	Stop()
}

type CachedResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

type idempotencyEntry struct {
	response *CachedResponse
	at       time.Time
}

type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]*idempotencyEntry
	ttl     time.Duration
	now     func() time.Time
	stopCh  chan struct{}
	once    sync.Once
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		entries: make(map[string]*idempotencyEntry),
		ttl:     ttl,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	go s.cleanup()
	return s
}

func (s *InMemoryIdempotencyStore) Reserve(key string) (*CachedResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && now.Sub(e.at) <= s.ttl {
		if e.response == nil {
			return nil, false
		}
		return e.response, true
	}

	s.entries[key] = &idempotencyEntry{at: now}
	return nil, true
}

func (s *InMemoryIdempotencyStore) Complete(key string, response *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &idempotencyEntry{response: response, at: s.now()}
}

func (s *InMemoryIdempotencyStore) Release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && e.response == nil {
		delete(s.entries, key)
	}
}

func (s *InMemoryIdempotencyStore) cleanup() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			now := s.now()
			for key, e := range s.entries {
				if now.Sub(e.at) > s.ttl {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) Stop() {
	s.once.Do(func() { close(s.stopCh) })
}

type responseCapture struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rc *responseCapture) WriteHeader(statusCode int) {
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// Idempotency replays the first successful response for a repeated key.
// Keys are scoped to the caller and the route, so two identities reusing a
// key never see each other's responses. A retry that arrives while the
// first attempt is still running gets a conflict instead of a second
// reservation.
func Idempotency(store IdempotencyStore, headerName string) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = HeaderIdempotencyKey
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := idempotencyKey(r, headerName)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			cached, claimed := store.Reserve(key)
			switch {
			case cached != nil:
				replay(w, cached)
				return
			case !claimed:
				_ = httputil.WriteError(w, apperrors.Conflict("A request with this idempotency key is still in progress"))
				return
			}

			capture := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
			completed := false
			defer func() {
				if !completed {
					store.Release(key)
				}
			}()

			next.ServeHTTP(capture, r)

			if capture.statusCode >= 200 && capture.statusCode < 300 {
				store.Complete(key, &CachedResponse{
					StatusCode: capture.statusCode,
					Headers:    w.Header().Clone(),
					Body:       bytes.Clone(capture.body.Bytes()),
				})
				completed = true
			}
		})
	}
}

func idempotencyKey(r *http.Request, headerName string) string {
	key := r.Header.Get(headerName)
	if key == "" || r.Method == http.MethodGet || r.Method == http.MethodHead {
		return ""
	}
	identity := sanitizer.NormalizeIdentity(r.Header.Get(httputil.HeaderUserIdentity))
	return identity + " " + r.Method + " " + r.URL.Path + " " + key
}

func replay(w http.ResponseWriter, cached *CachedResponse) {
	for name, values := range cached.Headers {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.Header().Set(HeaderIdempotencyReplayed, "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}
