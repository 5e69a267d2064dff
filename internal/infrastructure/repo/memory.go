package repo

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	payload   []byte
	fetchedAt time.Time
}

// MemoryCache keeps cache entries for the life of the process.
type MemoryCache struct {
	mu sync.RWMutex
	m  map[string]entry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[string]entry)}
}

func (r *MemoryCache) Fetch(_ context.Context, key string) ([]byte, time.Time, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.m[key]
	if !ok {
		return nil, time.Time{}, false, nil
	}
	return append([]byte(nil), e.payload...), e.fetchedAt, true, nil
}

func (r *MemoryCache) Store(_ context.Context, key string, payload []byte, fetchedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[key] = entry{payload: append([]byte(nil), payload...), fetchedAt: fetchedAt}
	return nil
}

func (r *MemoryCache) Clear(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, key)
	return nil
}

func (r *MemoryCache) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.m)
}
