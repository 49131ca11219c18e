package history

import (
	"errors"
	"testing"

	"github.com/vango-dev/navhist/pkg/location"
)

func TestTracker_GetStateBeforeNavigation(t *testing.T) {
	tracker := NewTracker(nil)
	defer tracker.Dispose()

	if got := tracker.GetState(); got != nil {
		t.Errorf("GetState() = %v, want nil", got)
	}
}

func TestTracker_GoStoresOpaqueState(t *testing.T) {
	tracker := NewTracker(nil)
	defer tracker.Dispose()

	type payload struct{ N int }
	p := &payload{N: 7}

	tracker.Go("/users", WithState(p))
	if got := tracker.GetState(); got != p {
		t.Errorf("GetState() = %v, want the exact value passed in", got)
	}

	// State defaults to nil when omitted.
	tracker.Go("/about")
	if got := tracker.GetState(); got != nil {
		t.Errorf("GetState() = %v, want nil for stateless navigation", got)
	}
}

func TestTracker_BackForwardStateTracking(t *testing.T) {
	tracker := NewTracker(nil)
	defer tracker.Dispose()

	tracker.Go("/a", WithState(1))
	tracker.Go("/b", WithState(2))
	tracker.Go("/c", WithState(3))

	tracker.Back()
	if got := tracker.GetState(); got != 2 {
		t.Errorf("after Back: GetState() = %v, want 2", got)
	}

	tracker.Back()
	if got := tracker.GetState(); got != 1 {
		t.Errorf("after Back x2: GetState() = %v, want 1", got)
	}

	// Clamped at the first entry.
	tracker.Back()
	if got := tracker.GetState(); got != 1 {
		t.Errorf("Back at start should be a no-op, GetState() = %v", got)
	}

	tracker.Forward()
	if got := tracker.GetState(); got != 2 {
		t.Errorf("after Forward: GetState() = %v, want 2", got)
	}

	tracker.Forward()
	tracker.Forward() // clamped at the last entry
	if got := tracker.GetState(); got != 3 {
		t.Errorf("Forward at tip should be a no-op, GetState() = %v", got)
	}
}

func TestTracker_HistoryGoOutOfRangeIgnored(t *testing.T) {
	tracker := NewTracker(nil)
	defer tracker.Dispose()

	tracker.Go("/a", WithState(1))
	tracker.Go("/b", WithState(2))
	tracker.Go("/c", WithState(3))

	// Out-of-range offsets are ignored outright, not clamped.
	tracker.HistoryGo(-100)
	if got := tracker.GetState(); got != 3 {
		t.Errorf("HistoryGo(-100): GetState() = %v, want 3", got)
	}

	tracker.HistoryGo(100)
	if got := tracker.GetState(); got != 3 {
		t.Errorf("HistoryGo(100): GetState() = %v, want 3", got)
	}

	tracker.HistoryGo(0)
	if got := tracker.GetState(); got != 3 {
		t.Errorf("HistoryGo(0): GetState() = %v, want 3", got)
	}

	tracker.HistoryGo(-2)
	if got := tracker.GetState(); got != 1 {
		t.Errorf("HistoryGo(-2): GetState() = %v, want 1", got)
	}

	tracker.HistoryGo(2)
	if got := tracker.GetState(); got != 3 {
		t.Errorf("HistoryGo(2): GetState() = %v, want 3", got)
	}
}

func TestTracker_GoTruncatesForwardBranch(t *testing.T) {
	tracker := NewTracker(nil)
	defer tracker.Dispose()

	tracker.Go("/a", WithState(1))
	tracker.Go("/b", WithState(2))
	tracker.Go("/c", WithState(3))
	tracker.Back()
	tracker.Back()

	// Navigating from a non-tip position drops the redo branch.
	tracker.Go("/d", WithState(4))

	tracker.Forward()
	if got := tracker.GetState(); got != 4 {
		t.Errorf("forward entries should be gone, GetState() = %v", got)
	}

	entries := tracker.Entries()
	if len(entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(entries))
	}
	if entries[0].Path != "/a" || entries[1].Path != "/d" {
		t.Errorf("entries = %v, want /a /d", entries)
	}
}

func TestTracker_NotificationURLFormat(t *testing.T) {
	tracker := NewTracker(nil)
	defer tracker.Dispose()

	var gotURL string
	remove := tracker.OnURLChange(func(url string, state any) { gotURL = url })
	defer remove()

	tracker.Go("/base/", WithQuery("param=1"))
	if gotURL != "/base?param=1" {
		t.Errorf("notified url = %q, want %q", gotURL, "/base?param=1")
	}
}

func TestTracker_ListenersNotifiedOncePerEvent(t *testing.T) {
	tracker := NewTracker(nil)
	defer tracker.Dispose()

	counts := make([]int, 3)
	for i := range counts {
		i := i
		tracker.OnURLChange(func(url string, state any) { counts[i]++ })
	}

	tracker.Go("/a")

	for i, n := range counts {
		if n != 1 {
			t.Errorf("listener %d notified %d times, want 1", i, n)
		}
	}

	tracker.Go("/b")
	tracker.Back()

	for i, n := range counts {
		if n != 3 {
			t.Errorf("listener %d notified %d times after 3 events, want 3", i, n)
		}
	}
}

func TestTracker_RemoveListener(t *testing.T) {
	tracker := NewTracker(nil)
	defer tracker.Dispose()

	var first, second int
	removeFirst := tracker.OnURLChange(func(url string, state any) { first++ })
	tracker.OnURLChange(func(url string, state any) { second++ })

	tracker.Go("/a")
	removeFirst()
	tracker.Go("/b")

	if first != 1 {
		t.Errorf("removed listener notified %d times, want 1", first)
	}
	if second != 2 {
		t.Errorf("remaining listener notified %d times, want 2", second)
	}

	// Removing again is a no-op.
	removeFirst()
	tracker.Go("/c")
	if first != 1 || second != 3 {
		t.Errorf("after double-remove: first=%d second=%d, want 1 and 3", first, second)
	}
}

func TestTracker_ListenerRemovesItselfMidDispatch(t *testing.T) {
	tracker := NewTracker(nil)
	defer tracker.Dispose()

	var selfCount, otherCount int
	var removeSelf func()
	removeSelf = tracker.OnURLChange(func(url string, state any) {
		selfCount++
		removeSelf()
	})
	tracker.OnURLChange(func(url string, state any) { otherCount++ })

	tracker.Go("/a")
	tracker.Go("/b")

	if selfCount != 1 {
		t.Errorf("self-removing listener notified %d times, want 1", selfCount)
	}
	if otherCount != 2 {
		t.Errorf("other listener notified %d times, want 2", otherCount)
	}
}

func TestTracker_DisposeTeardown(t *testing.T) {
	platform := location.NewMemoryPlatform("/")
	tracker := NewTracker(location.NewPathStrategy(platform, ""))

	var notified int
	tracker.OnURLChange(func(url string, state any) { notified++ })
	tracker.OnURLChange(func(url string, state any) { notified++ })

	tracker.Go("/a")
	if notified != 2 {
		t.Fatalf("notified = %d, want 2", notified)
	}

	tracker.Dispose()

	dbg := tracker.Inspect()
	if dbg.Listeners != 0 {
		t.Errorf("Listeners = %d after Dispose, want 0", dbg.Listeners)
	}
	if !dbg.SubscriptionClosed {
		t.Error("SubscriptionClosed = false after Dispose, want true")
	}

	// External traversal after teardown must not reach old listeners.
	platform.Back()
	if notified != 2 {
		t.Errorf("notified = %d after Dispose, want still 2", notified)
	}

	// Dispose is idempotent.
	tracker.Dispose()

	// Registration after teardown returns a working no-op remover.
	remove := tracker.OnURLChange(func(url string, state any) { notified++ })
	remove()
}

func TestTracker_Replace(t *testing.T) {
	tracker := NewTracker(nil)
	defer tracker.Dispose()

	tracker.Go("/a", WithState(1))
	tracker.Go("/b", WithState(2))
	tracker.Replace("/b2", WithState(22))

	if got := tracker.GetState(); got != 22 {
		t.Errorf("GetState() = %v, want 22", got)
	}
	if n := len(tracker.Entries()); n != 2 {
		t.Errorf("len(Entries) = %d, want 2 (replace must not grow the timeline)", n)
	}

	tracker.Back()
	if got := tracker.GetState(); got != 1 {
		t.Errorf("after Back: GetState() = %v, want 1", got)
	}
}

func TestTracker_Restore(t *testing.T) {
	tracker := NewTracker(nil)
	defer tracker.Dispose()

	var notified int
	tracker.OnURLChange(func(url string, state any) { notified++ })

	tracker.Restore([]Entry{
		{Path: "/a", State: 1},
		{Path: "/b", State: 2},
	}, 5) // out-of-range position clamps to the last entry

	if notified != 0 {
		t.Errorf("Restore must not notify listeners, notified = %d", notified)
	}
	if got := tracker.GetState(); got != 2 {
		t.Errorf("GetState() = %v, want 2", got)
	}
	if pos := tracker.Position(); pos != 1 {
		t.Errorf("Position = %d, want 1", pos)
	}

	tracker.Back()
	if got := tracker.GetState(); got != 1 {
		t.Errorf("after Back: GetState() = %v, want 1", got)
	}
}

func TestTracker_StrategyDrivenTraversal(t *testing.T) {
	platform := location.NewMemoryPlatform("/")
	strategy := location.NewPathStrategy(platform, "")
	tracker := NewTracker(strategy)
	defer tracker.Dispose()

	var urls []string
	var states []any
	tracker.OnURLChange(func(url string, state any) {
		urls = append(urls, url)
		states = append(states, state)
	})

	tracker.Go("/users", WithState("u"))
	tracker.Go("/users/42", WithState("d"))

	// Tracker position mirrors the platform's.
	if platform.Position() != tracker.Position() {
		t.Fatalf("platform pos %d != tracker pos %d", platform.Position(), tracker.Position())
	}

	// Programmatic Back flows through the platform and lands synchronously.
	tracker.Back()
	if got := tracker.GetState(); got != "u" {
		t.Errorf("after Back: GetState() = %v, want %q", got, "u")
	}

	// An external traversal (browser back button) is observed too.
	platform.Forward()
	if got := tracker.GetState(); got != "d" {
		t.Errorf("after external Forward: GetState() = %v, want %q", got, "d")
	}

	want := []string{"/users", "/users/42", "/users", "/users/42"}
	if len(urls) != len(want) {
		t.Fatalf("notified %d times, want %d (%v)", len(urls), len(want), urls)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
	if states[2] != "u" || states[3] != "d" {
		t.Errorf("pop states = %v %v, want u d", states[2], states[3])
	}
}

func TestTracker_StrategySeedsInitialLocation(t *testing.T) {
	platform := location.NewMemoryPlatform("/start")
	tracker := NewTracker(location.NewPathStrategy(platform, ""))
	defer tracker.Dispose()

	// The page the platform loaded on becomes the first timeline entry,
	// with nil state: no navigation has happened yet.
	if got := tracker.GetState(); got != nil {
		t.Errorf("GetState() = %v, want nil", got)
	}
	dbg := tracker.Inspect()
	if dbg.Length != 1 || dbg.Position != 0 {
		t.Errorf("timeline len=%d pos=%d, want 1 and 0", dbg.Length, dbg.Position)
	}

	tracker.Go("/next", WithState(1))
	tracker.Back()
	if got := tracker.GetState(); got != nil {
		t.Errorf("back to initial entry: GetState() = %v, want nil", got)
	}
}

func TestTracker_HookWrapsDispatch(t *testing.T) {
	var order []string
	hook := func(ch Change, next func() error) error {
		order = append(order, "hook:"+ch.Kind.String())
		return next()
	}

	tracker := NewTracker(nil, WithHook(hook))
	defer tracker.Dispose()

	tracker.OnURLChange(func(url string, state any) {
		order = append(order, "listener")
	})

	tracker.Go("/a")
	tracker.Back() // no-op, single entry
	tracker.Go("/b")
	tracker.HistoryGo(-1)

	want := []string{"hook:push", "listener", "hook:push", "listener", "hook:pop", "listener"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestTracker_HookErrorDoesNotBreakHistory(t *testing.T) {
	boom := errors.New("hook failure")
	tracker := NewTracker(nil, WithHook(func(ch Change, next func() error) error {
		_ = next()
		return boom
	}))
	defer tracker.Dispose()

	tracker.Go("/a", WithState(1))
	if got := tracker.GetState(); got != 1 {
		t.Errorf("GetState() = %v, want 1 despite hook error", got)
	}
}

func TestChangeKind_String(t *testing.T) {
	tests := []struct {
		kind ChangeKind
		want string
	}{
		{KindPush, "push"},
		{KindReplace, "replace"},
		{KindPop, "pop"},
		{ChangeKind(0), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ChangeKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
