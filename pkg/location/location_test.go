package location

import "testing"

func TestMemoryPlatform_PushAndTraverse(t *testing.T) {
	p := NewMemoryPlatform("/")

	var events []PopStateEvent
	remove := p.OnPopState(func(ev PopStateEvent) { events = append(events, ev) })
	defer remove()

	p.PushState("a", "/a")
	p.PushState("b", "/b")

	// Programmatic pushes never emit pop-state.
	if len(events) != 0 {
		t.Fatalf("events after pushes = %d, want 0", len(events))
	}
	if p.URL() != "/b" || p.Position() != 2 || p.Len() != 3 {
		t.Fatalf("url=%q pos=%d len=%d, want /b 2 3", p.URL(), p.Position(), p.Len())
	}

	p.Back()
	if len(events) != 1 {
		t.Fatalf("events after Back = %d, want 1", len(events))
	}
	if events[0].URL != "/a" || events[0].State != "a" || events[0].Position != 1 {
		t.Errorf("event = %+v, want /a a 1", events[0])
	}

	p.Forward()
	if len(events) != 2 || events[1].URL != "/b" {
		t.Fatalf("events after Forward = %v", events)
	}

	// Clamped at both ends: no events.
	p.Forward()
	p.Go(5)
	p.Go(-5)
	p.Go(0)
	if len(events) != 2 {
		t.Errorf("out-of-range traversal emitted events: %d, want 2", len(events))
	}
}

func TestMemoryPlatform_PushTruncatesForward(t *testing.T) {
	p := NewMemoryPlatform("/")
	p.PushState(nil, "/a")
	p.PushState(nil, "/b")
	p.Back()
	p.PushState(nil, "/c")

	if p.Len() != 3 {
		t.Errorf("Len = %d, want 3", p.Len())
	}
	if p.URL() != "/c" {
		t.Errorf("URL = %q, want /c", p.URL())
	}
	p.Forward()
	if p.URL() != "/c" {
		t.Errorf("forward branch should be gone, URL = %q", p.URL())
	}
}

func TestMemoryPlatform_ReplaceState(t *testing.T) {
	empty := NewMemoryPlatform("")
	if empty.URL() != "" || empty.Position() != -1 {
		t.Fatalf("empty platform: url=%q pos=%d", empty.URL(), empty.Position())
	}

	// Replace on an empty history creates the first entry.
	empty.ReplaceState("s", "/landed")
	if empty.URL() != "/landed" || empty.Len() != 1 {
		t.Errorf("url=%q len=%d, want /landed 1", empty.URL(), empty.Len())
	}

	empty.ReplaceState("s2", "/landed2")
	if empty.URL() != "/landed2" || empty.Len() != 1 {
		t.Errorf("replace grew history: url=%q len=%d", empty.URL(), empty.Len())
	}
}

func TestMemoryPlatform_RemoveHandler(t *testing.T) {
	p := NewMemoryPlatform("/")
	p.PushState(nil, "/a")

	var first, second int
	removeFirst := p.OnPopState(func(PopStateEvent) { first++ })
	p.OnPopState(func(PopStateEvent) { second++ })

	p.Back()
	removeFirst()
	removeFirst() // idempotent
	p.Forward()

	if first != 1 {
		t.Errorf("removed handler called %d times, want 1", first)
	}
	if second != 2 {
		t.Errorf("remaining handler called %d times, want 2", second)
	}
}

func TestMemoryPlatform_Close(t *testing.T) {
	p := NewMemoryPlatform("/")
	p.PushState(nil, "/a")

	var calls int
	p.OnPopState(func(PopStateEvent) { calls++ })

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	p.Back()
	p.PushState(nil, "/b")
	if calls != 0 {
		t.Errorf("handler called after Close: %d", calls)
	}
	if p.Len() != 2 {
		t.Errorf("push after Close mutated history: len=%d, want 2", p.Len())
	}

	// Registration after Close is inert.
	remove := p.OnPopState(func(PopStateEvent) { calls++ })
	remove()
}

func TestPathStrategy_BaseHref(t *testing.T) {
	p := NewMemoryPlatform("/app/users?page=2")
	s := NewPathStrategy(p, "/app/")

	if got := s.Path(); got != "/users" {
		t.Errorf("Path() = %q, want /users", got)
	}
	if got := s.Query(); got != "page=2" {
		t.Errorf("Query() = %q, want page=2", got)
	}

	s.PushState("st", "/projects", "sort=name")
	if got := p.URL(); got != "/app/projects?sort=name" {
		t.Errorf("platform URL = %q, want /app/projects?sort=name", got)
	}

	var got PopStateEvent
	s.OnPopState(func(ev PopStateEvent) { got = ev })
	s.Back()
	if got.URL != "/users?page=2" {
		t.Errorf("pop event URL = %q, want /users?page=2 (base stripped)", got.URL)
	}
}

func TestPathStrategy_EmptyPlatform(t *testing.T) {
	s := NewPathStrategy(NewMemoryPlatform(""), "")
	if got := s.Path(); got != "" {
		t.Errorf("Path() on empty platform = %q, want \"\"", got)
	}
}

func TestPathStrategy_BaseOnlyURL(t *testing.T) {
	p := NewMemoryPlatform("/app")
	s := NewPathStrategy(p, "/app")
	if got := s.Path(); got != "/" {
		t.Errorf("Path() = %q, want /", got)
	}
}

func TestHashStrategy(t *testing.T) {
	p := NewMemoryPlatform("/index.html#/users?page=2")
	s := NewHashStrategy(p, "/index.html")

	if got := s.Path(); got != "/users" {
		t.Errorf("Path() = %q, want /users", got)
	}
	if got := s.Query(); got != "page=2" {
		t.Errorf("Query() = %q, want page=2", got)
	}

	s.PushState(nil, "/projects", "")
	if got := p.URL(); got != "/index.html#/projects" {
		t.Errorf("platform URL = %q, want /index.html#/projects", got)
	}

	var got PopStateEvent
	s.OnPopState(func(ev PopStateEvent) { got = ev })
	s.Back()
	if got.URL != "/users?page=2" {
		t.Errorf("pop event URL = %q, want /users?page=2", got.URL)
	}

	// A URL without a fragment is the application root.
	noFrag := NewHashStrategy(NewMemoryPlatform("/index.html"), "/index.html")
	if got := noFrag.Path(); got != "/" {
		t.Errorf("Path() without fragment = %q, want /", got)
	}
}
