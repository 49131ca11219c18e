package journal

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps snapshots in process memory with optional TTL-based
// expiry. Suitable for single-instance deployments and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]*memorySnapshot
	ttl    time.Duration
	closed bool
	done   chan struct{}
}

type memorySnapshot struct {
	snap      *Snapshot
	expiresAt time.Time // zero means no expiry
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithTTL sets how long snapshots live. Zero (the default) disables
// expiry.
func WithTTL(ttl time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) { s.ttl = ttl }
}

// NewMemoryStore creates a memory store. When a TTL is configured, a
// background sweeper removes expired snapshots once per TTL interval.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		data: make(map[string]*memorySnapshot),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.ttl > 0 {
		go s.sweep()
	}

	return s
}

// Save stores a snapshot.
func (s *MemoryStore) Save(_ context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	entry := &memorySnapshot{snap: clone(snap)}
	if s.ttl > 0 {
		entry.expiresAt = time.Now().Add(s.ttl)
	}
	s.data[snap.SessionID] = entry
	return nil
}

// Load retrieves a snapshot.
func (s *MemoryStore) Load(_ context.Context, sessionID string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	entry, ok := s.data[sessionID]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		return nil, ErrSnapshotNotFound
	}
	return clone(entry.snap), nil
}

// Delete removes a snapshot.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	delete(s.data, sessionID)
	return nil
}

// Close stops the sweeper and drops all snapshots.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.data = nil
	close(s.done)
	return nil
}

// Len returns the number of stored snapshots, expired ones included
// until the sweeper runs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// sweep periodically removes expired snapshots.
func (s *MemoryStore) sweep() {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for id, entry := range s.data {
				if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
					delete(s.data, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
