// Package location abstracts how URLs are represented and navigated.
//
// Two collaborator roles are defined:
//
//   - Platform wraps the hosting environment's native history mechanism
//     (a real browser reached through the bridge, or an in-memory fake).
//   - Strategy decides how application paths map onto platform URLs
//     (path-based or hash-based).
//
// The history tracker consumes a Strategy; the bridge provides a Platform
// backed by a live WebSocket connection.
package location

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrPlatformClosed is returned when an operation is attempted on a
// closed platform.
var ErrPlatformClosed = errors.New("location: platform closed")

// PopStateEvent describes an externally observed location change: the
// environment moved through its history (back/forward/go) rather than the
// application pushing a new entry.
type PopStateEvent struct {
	// URL is the platform URL after the move.
	URL string

	// State is the opaque state stored with the now-active entry.
	State any

	// Position is the 0-based index of the now-active entry in the
	// platform's history, or -1 if the platform does not track it.
	Position int
}

// Platform abstracts the native history primitives of the hosting
// environment. Implementations must deliver pop-state events synchronously
// from Back/Forward/Go so callers observe the new state on return.
type Platform interface {
	// URL returns the current URL (path plus optional "?query"), or ""
	// if the platform has no history yet.
	URL() string

	// PushState appends a new history entry. No pop-state event is
	// emitted for programmatic pushes.
	PushState(state any, url string)

	// ReplaceState replaces the current history entry in place.
	ReplaceState(state any, url string)

	// Back moves one entry toward the start of history. No-op at the
	// first entry.
	Back()

	// Forward moves one entry toward the end of history. No-op at the
	// last entry.
	Forward()

	// Go moves by delta entries. Out-of-range deltas and delta == 0 are
	// no-ops.
	Go(delta int)

	// OnPopState registers a pop-state handler and returns its removal
	// function. Removal is idempotent.
	OnPopState(fn func(PopStateEvent)) (remove func())

	// Close releases the platform and drops all handlers.
	Close() error
}

// popSub is one registered pop-state handler.
type popSub struct {
	id string
	fn func(PopStateEvent)
}

// popRegistry manages pop-state subscriptions. Handlers are notified in
// registration order using a copy taken under the lock, so a handler may
// remove itself (or register others) while being notified.
type popRegistry struct {
	mu     sync.Mutex
	subs   []popSub
	closed bool
}

func (r *popRegistry) add(fn func(PopStateEvent)) (remove func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || fn == nil {
		return func() {}
	}

	id := uuid.NewString()
	r.subs = append(r.subs, popSub{id: id, fn: fn})
	return func() { r.remove(id) }
}

func (r *popRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, s := range r.subs {
		if s.id == id {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			return
		}
	}
}

func (r *popRegistry) emit(ev PopStateEvent) {
	r.mu.Lock()
	subs := make([]popSub, len(r.subs))
	copy(subs, r.subs)
	r.mu.Unlock()

	for _, s := range subs {
		s.fn(ev)
	}
}

func (r *popRegistry) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = nil
	r.closed = true
}

func (r *popRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}
