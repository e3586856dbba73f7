package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"pebble/internal/domain"
)

const defaultCacheTTL = 30 * time.Second

type cacheEntry struct {
	result   ListResult
	storedAt time.Time
}

// CachedLister remembers listings so collapsing and re-expanding a node does
// not hit the server again. Reload invalidates the affected collections.
type CachedLister struct {
	next    Lister
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func NewCachedLister(next Lister, ttl time.Duration) *CachedLister {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedLister{next: next, ttl: ttl, now: time.Now, entries: make(map[string]cacheEntry)}
}

func cacheKey(connection domain.Connection, collection string) string {
	return connection.ID() + "\x00" + collection
}

func (cache *CachedLister) List(ctx context.Context, req ListRequest) (ListResult, error) {
	key := cacheKey(req.Connection, req.Collection)
	cache.mu.RLock()
	entry, ok := cache.entries[key]
	cache.mu.RUnlock()
	if ok && cache.now().Sub(entry.storedAt) < cache.ttl {
		result := entry.result
		result.Resources = append([]domain.Resource(nil), entry.result.Resources...)
		result.Cached = true
		return result, nil
	}
	result, err := cache.next.List(ctx, req)
	if err != nil {
		return ListResult{}, err
	}
	cache.mu.Lock()
	cache.entries[key] = cacheEntry{result: result, storedAt: cache.now()}
	cache.mu.Unlock()
	return result, nil
}

// Invalidate drops the collection and everything cached below it.
func (cache *CachedLister) Invalidate(connection domain.Connection, collection string) {
	prefix := cacheKey(connection, collection)
	cache.mu.Lock()
	defer cache.mu.Unlock()
	for key := range cache.entries {
		if key == prefix || strings.HasPrefix(key, prefix+"/") {
			delete(cache.entries, key)
		}
	}
}

func (cache *CachedLister) Move(ctx context.Context, req MoveRequest) error {
	mover, ok := cache.next.(Mover)
	if !ok {
		return ErrUnsupportedServer
	}
	if err := mover.Move(ctx, req); err != nil {
		return err
	}
	cache.Invalidate(req.Connection, parentCollection(req.Source))
	cache.Invalidate(req.Connection, req.TargetCollection)
	cache.Invalidate(req.Connection, req.Source)
	return nil
}

func (cache *CachedLister) Read(ctx context.Context, req ReadRequest) ([]byte, error) {
	reader, ok := cache.next.(Reader)
	if !ok {
		return nil, ErrUnsupportedServer
	}
	return reader.Read(ctx, req)
}
