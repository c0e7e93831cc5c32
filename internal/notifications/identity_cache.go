package notifications

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	name    string
	expires time.Time
}

// CachingResolver remembers resolved names for ttl. Failed lookups are not
// cached.
type CachingResolver struct {
	next    IdentityResolver
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]cacheEntry
}

func NewCachingResolver(next IdentityResolver, ttl time.Duration) *CachingResolver {
	return &CachingResolver{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (r *CachingResolver) DisplayName(ctx context.Context, identity string) (string, error) {
	now := r.now()

	r.mu.Lock()
	entry, ok := r.entries[identity]
	r.mu.Unlock()
	if ok && now.Before(entry.expires) {
		return entry.name, nil
	}

	name, err := r.next.DisplayName(ctx, identity)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.entries[identity] = cacheEntry{name: name, expires: now.Add(r.ttl)}
	r.mu.Unlock()
	return name, nil
}
