package location

import "sync"

// memEntry is one entry in the fake browser history.
type memEntry struct {
	url   string
	state any
}

// MemoryPlatform is an in-process Platform backed by a slice, mimicking a
// browser's session history. It is used in tests and as the server-side
// mirror of a bridged browser.
//
// Pop-state events are emitted synchronously from Back, Forward, and Go,
// matching the contract the tracker relies on.
type MemoryPlatform struct {
	mu      sync.Mutex
	entries []memEntry
	pos     int
	reg     popRegistry
	closed  bool
}

// NewMemoryPlatform creates a memory platform. If initialURL is non-empty
// the history starts with a single entry for it (nil state), the way a
// browser tab always has the page it loaded on.
func NewMemoryPlatform(initialURL string) *MemoryPlatform {
	p := &MemoryPlatform{pos: -1}
	if initialURL != "" {
		p.entries = append(p.entries, memEntry{url: initialURL})
		p.pos = 0
	}
	return p
}

// URL returns the current URL, or "" if the history is empty.
func (p *MemoryPlatform) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pos < 0 {
		return ""
	}
	return p.entries[p.pos].url
}

// PushState drops any forward entries, appends a new entry, and makes it
// current. No pop-state event is emitted.
func (p *MemoryPlatform) PushState(state any, url string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.entries = append(p.entries[:p.pos+1], memEntry{url: url, state: state})
	p.pos = len(p.entries) - 1
}

// ReplaceState overwrites the current entry, or creates the first entry if
// the history is empty. No pop-state event is emitted.
func (p *MemoryPlatform) ReplaceState(state any, url string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	if p.pos < 0 {
		p.entries = append(p.entries, memEntry{url: url, state: state})
		p.pos = 0
		return
	}
	p.entries[p.pos] = memEntry{url: url, state: state}
}

// Back moves one entry backward and emits a pop-state event. No-op at the
// start of history.
func (p *MemoryPlatform) Back() { p.Go(-1) }

// Forward moves one entry forward and emits a pop-state event. No-op at
// the end of history.
func (p *MemoryPlatform) Forward() { p.Go(1) }

// Go moves by delta entries and emits a pop-state event. Deltas that land
// outside the history, and delta == 0, do nothing.
func (p *MemoryPlatform) Go(delta int) {
	p.mu.Lock()
	if p.closed || delta == 0 {
		p.mu.Unlock()
		return
	}
	target := p.pos + delta
	if target < 0 || target >= len(p.entries) {
		p.mu.Unlock()
		return
	}
	p.pos = target
	ev := PopStateEvent{
		URL:      p.entries[target].url,
		State:    p.entries[target].state,
		Position: target,
	}
	p.mu.Unlock()

	p.reg.emit(ev)
}

// OnPopState registers a pop-state handler.
func (p *MemoryPlatform) OnPopState(fn func(PopStateEvent)) (remove func()) {
	return p.reg.add(fn)
}

// Close drops all handlers and makes further navigation a no-op.
func (p *MemoryPlatform) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.reg.close()
	return nil
}

// Len returns the number of history entries.
func (p *MemoryPlatform) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Position returns the current entry index, or -1 if the history is empty.
func (p *MemoryPlatform) Position() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos
}
