package history

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/vango-dev/navhist/pkg/location"
	"github.com/vango-dev/navhist/pkg/urlpath"
)

// ChangeKind classifies how a URL change came about.
type ChangeKind uint8

const (
	// KindPush is a programmatic navigation that appended a new entry.
	KindPush ChangeKind = iota + 1

	// KindReplace is a programmatic navigation that replaced the current
	// entry.
	KindReplace

	// KindPop is an externally observed traversal (back/forward/go).
	KindPop
)

// String returns the change kind's name.
func (k ChangeKind) String() string {
	switch k {
	case KindPush:
		return "push"
	case KindReplace:
		return "replace"
	case KindPop:
		return "pop"
	default:
		return "unknown"
	}
}

// Change describes one URL change being dispatched to listeners.
type Change struct {
	URL   string
	State any
	Kind  ChangeKind
}

// Hook runs around each listener dispatch. Call next to proceed; an error
// is reported to outer hooks but never interrupts history bookkeeping,
// which has already happened by dispatch time.
type Hook func(ch Change, next func() error) error

// ChangeListener receives the resulting URL and the opaque state of the
// now-current entry, once per change event.
type ChangeListener func(url string, state any)

// subscription is one registered listener with its removal handle.
type subscription struct {
	id string
	fn ChangeListener
}

// Tracker owns a Timeline and a listener registry. All mutations are
// synchronous: state is observable via GetState immediately on return,
// and listener notification for programmatic navigation happens before
// the call returns.
//
// With a non-nil strategy, Back/Forward/HistoryGo delegate to the
// platform's history and the update arrives through its pop-state event
// (still synchronously for conforming platforms). With a nil strategy
// the tracker moves its own timeline directly.
type Tracker struct {
	mu       sync.Mutex
	timeline *Timeline
	strategy location.Strategy

	subs      []subscription
	subClosed bool
	stopPop   func()

	hooks    []Hook
	disposed atomic.Bool
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithHook adds a dispatch hook. Hooks run in registration order, each
// wrapping the next.
func WithHook(h Hook) Option {
	return func(t *Tracker) {
		if h != nil {
			t.hooks = append(t.hooks, h)
		}
	}
}

// NewTracker creates a tracker. strategy may be nil for a purely
// in-memory tracker. With a strategy, the tracker subscribes to its
// pop-state events and seeds the timeline with the strategy's current
// location (nil state) so positions line up with platform history.
func NewTracker(strategy location.Strategy, opts ...Option) *Tracker {
	t := &Tracker{
		timeline: NewTimeline(),
		strategy: strategy,
	}
	for _, opt := range opts {
		opt(t)
	}

	if strategy != nil {
		if path := strategy.Path(); path != "" {
			t.timeline.Push(Entry{Path: path, Query: strategy.Query()})
		}
		t.stopPop = strategy.OnPopState(t.handlePopState)
	}

	return t
}

// GoOption configures a single Go or Replace call.
type GoOption func(*Entry)

// WithQuery sets the query string for the new entry (no leading "?").
func WithQuery(query string) GoOption {
	return func(e *Entry) { e.Query = query }
}

// WithState attaches an opaque state value to the new entry. It is stored
// and handed back verbatim, never interpreted.
func WithState(state any) GoOption {
	return func(e *Entry) { e.State = state }
}

// Go navigates to path: any forward entries are discarded, a new entry is
// appended and made current, and listeners are notified once before Go
// returns. State defaults to nil when WithState is not given.
func (t *Tracker) Go(path string, opts ...GoOption) {
	t.navigate(path, KindPush, opts)
}

// Replace is like Go but overwrites the current entry instead of pushing,
// leaving the timeline length unchanged.
func (t *Tracker) Replace(path string, opts ...GoOption) {
	t.navigate(path, KindReplace, opts)
}

func (t *Tracker) navigate(path string, kind ChangeKind, opts []GoOption) {
	if t.disposed.Load() {
		return
	}

	entry := Entry{Path: path}
	for _, opt := range opts {
		opt(&entry)
	}

	t.mu.Lock()
	if kind == KindReplace {
		t.timeline.Replace(entry)
	} else {
		t.timeline.Push(entry)
	}
	strategy := t.strategy
	t.mu.Unlock()

	// Programmatic pushes do not produce pop-state events, so mirroring
	// the entry onto the platform cannot double-notify.
	if strategy != nil {
		if kind == KindReplace {
			strategy.ReplaceState(entry.State, entry.Path, entry.Query)
		} else {
			strategy.PushState(entry.State, entry.Path, entry.Query)
		}
	}

	t.dispatch(Change{URL: entry.URL(), State: entry.State, Kind: kind})
}

// GetState returns the state of the entry at the current position, or nil
// if no navigation has happened yet.
func (t *Tracker) GetState() any {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.timeline.Current(); ok {
		return e.State
	}
	return nil
}

// Back moves one entry toward the start of the timeline. At the first
// entry it does nothing.
func (t *Tracker) Back() { t.HistoryGo(-1) }

// Forward moves one entry toward the end of the timeline. At the last
// entry it does nothing.
func (t *Tracker) Forward() { t.HistoryGo(1) }

// HistoryGo moves the position by delta entries. A delta of 0 does
// nothing. A target outside the timeline leaves the position exactly
// where it was: out-of-range requests are ignored, not clamped.
func (t *Tracker) HistoryGo(delta int) {
	if t.disposed.Load() || delta == 0 {
		return
	}

	t.mu.Lock()
	pos := t.timeline.Position()
	target := pos + delta
	if pos < 0 || target < 0 || target >= t.timeline.Len() {
		t.mu.Unlock()
		return
	}
	strategy := t.strategy
	if strategy != nil {
		// The platform traversal emits a pop-state event which moves
		// the timeline and notifies listeners.
		t.mu.Unlock()
		strategy.Go(delta)
		return
	}
	t.timeline.Seek(delta)
	entry, _ := t.timeline.Current()
	t.mu.Unlock()

	t.dispatch(Change{URL: entry.URL(), State: entry.State, Kind: KindPop})
}

// handlePopState re-positions the timeline to match an external traversal
// and notifies listeners once.
func (t *Tracker) handlePopState(ev location.PopStateEvent) {
	if t.disposed.Load() {
		return
	}

	t.mu.Lock()
	if ev.Position >= 0 {
		t.timeline.SetPosition(ev.Position)
	}
	state := ev.State
	if e, ok := t.timeline.Current(); ok {
		state = e.State
	}
	t.mu.Unlock()

	t.dispatch(Change{
		URL:   urlpath.StripTrailingSlash(ev.URL),
		State: state,
		Kind:  KindPop,
	})
}

// OnURLChange registers a listener and returns its removal function.
// Each registered listener receives exactly one call per change event;
// removal stops future notifications for that listener only and is
// idempotent.
func (t *Tracker) OnURLChange(fn ChangeListener) (remove func()) {
	if fn == nil || t.disposed.Load() {
		return func() {}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.subClosed {
		return func() {}
	}
	id := uuid.NewString()
	t.subs = append(t.subs, subscription{id: id, fn: fn})
	return func() { t.removeListener(id) }
}

func (t *Tracker) removeListener(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, s := range t.subs {
		if s.id == id {
			t.subs = append(t.subs[:i], t.subs[i+1:]...)
			return
		}
	}
}

// dispatch notifies listeners of one change event, wrapped by any hooks.
// Listeners are copied out under the lock so one may remove itself (or a
// sibling) mid-dispatch without affecting this event's delivery.
func (t *Tracker) dispatch(ch Change) {
	t.mu.Lock()
	subs := make([]subscription, len(t.subs))
	copy(subs, t.subs)
	hooks := t.hooks
	t.mu.Unlock()

	run := func() error {
		for _, s := range subs {
			s.fn(ch.URL, ch.State)
		}
		return nil
	}
	for i := len(hooks) - 1; i >= 0; i-- {
		h, next := hooks[i], run
		run = func() error { return h(ch, next) }
	}
	_ = run()
}

// Entries returns a copy of the timeline's entries, oldest first.
func (t *Tracker) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timeline.Entries()
}

// Position returns the current timeline position, or -1 before any
// navigation.
func (t *Tracker) Position() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timeline.Position()
}

// Restore replaces the timeline with previously captured entries and
// position, clamping the position into bounds. Listeners are not
// notified; restoring is bookkeeping, not navigation.
func (t *Tracker) Restore(entries []Entry, pos int) {
	if t.disposed.Load() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeline.Reset(entries, pos)
}

// Dispose tears the tracker down: the listener registry is emptied, the
// pop-state subscription is released, and the tracker ignores all further
// calls. Dispose is idempotent and safe to call from a listener.
func (t *Tracker) Dispose() {
	if t.disposed.Swap(true) {
		return
	}

	t.mu.Lock()
	t.subs = nil
	t.subClosed = true
	stop := t.stopPop
	t.stopPop = nil
	t.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// TrackerDebug is a point-in-time snapshot of tracker internals for
// tests and diagnostics.
type TrackerDebug struct {
	// Listeners is the number of registered URL-change listeners.
	Listeners int

	// SubscriptionClosed reports whether the upstream pop-state
	// subscription has been released.
	SubscriptionClosed bool

	// Length and Position describe the timeline.
	Length   int
	Position int
}

// Inspect returns a snapshot of the tracker's internal counters. It
// exists so tests can assert on registry and subscription state without
// the tracker exposing mutable fields.
func (t *Tracker) Inspect() TrackerDebug {
	t.mu.Lock()
	defer t.mu.Unlock()

	return TrackerDebug{
		Listeners:          len(t.subs),
		SubscriptionClosed: t.subClosed,
		Length:             t.timeline.Len(),
		Position:           t.timeline.Position(),
	}
}
