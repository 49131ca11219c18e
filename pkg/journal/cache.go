package journal

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheStore is a read-through LRU cache in front of another Store,
// keeping recently used snapshots out of the backing store's latency
// path (useful when that store is S3).
type CacheStore struct {
	backend Store
	cache   *lru.Cache[string, *Snapshot]
}

// NewCacheStore wraps backend with an LRU of the given size.
func NewCacheStore(backend Store, size int) (*CacheStore, error) {
	cache, err := lru.New[string, *Snapshot](size)
	if err != nil {
		return nil, err
	}
	return &CacheStore{backend: backend, cache: cache}, nil
}

// Save writes through to the backend and refreshes the cache.
func (s *CacheStore) Save(ctx context.Context, snap *Snapshot) error {
	if err := s.backend.Save(ctx, snap); err != nil {
		return err
	}
	s.cache.Add(snap.SessionID, clone(snap))
	return nil
}

// Load returns the cached snapshot when present, falling back to the
// backend and populating the cache on a hit there.
func (s *CacheStore) Load(ctx context.Context, sessionID string) (*Snapshot, error) {
	if snap, ok := s.cache.Get(sessionID); ok {
		return clone(snap), nil
	}

	snap, err := s.backend.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.cache.Add(sessionID, clone(snap))
	return snap, nil
}

// Delete removes the snapshot from both layers.
func (s *CacheStore) Delete(ctx context.Context, sessionID string) error {
	s.cache.Remove(sessionID)
	return s.backend.Delete(ctx, sessionID)
}

// Close purges the cache and closes the backend.
func (s *CacheStore) Close() error {
	s.cache.Purge()
	return s.backend.Close()
}
