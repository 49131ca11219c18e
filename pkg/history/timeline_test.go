package history

import "testing"

func TestTimeline_PushTruncatesForwardBranch(t *testing.T) {
	tl := NewTimeline()
	tl.Push(Entry{Path: "/a"})
	tl.Push(Entry{Path: "/b"})
	tl.Push(Entry{Path: "/c"})

	if !tl.Seek(-1) {
		t.Fatal("Seek(-1) should move")
	}
	tl.Push(Entry{Path: "/d"})

	entries := tl.Entries()
	if len(entries) != 3 {
		t.Fatalf("Len = %d, want 3", len(entries))
	}
	if entries[0].Path != "/a" || entries[1].Path != "/b" || entries[2].Path != "/d" {
		t.Errorf("entries = %v, want /a /b /d", entries)
	}
	if tl.Position() != 2 {
		t.Errorf("Position = %d, want 2", tl.Position())
	}
}

func TestTimeline_SeekBounds(t *testing.T) {
	tl := NewTimeline()

	// Empty timeline: nothing moves.
	if tl.Seek(-1) || tl.Seek(1) || tl.Seek(0) {
		t.Error("Seek on empty timeline should not move")
	}

	tl.Push(Entry{Path: "/a"})
	tl.Push(Entry{Path: "/b"})

	tests := []struct {
		name      string
		delta     int
		wantMoved bool
		wantPos   int
	}{
		{name: "zero delta", delta: 0, wantMoved: false, wantPos: 1},
		{name: "back", delta: -1, wantMoved: true, wantPos: 0},
		{name: "past start ignored", delta: -5, wantMoved: false, wantPos: 0},
		{name: "forward", delta: 1, wantMoved: true, wantPos: 1},
		{name: "past end ignored", delta: 5, wantMoved: false, wantPos: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if moved := tl.Seek(tt.delta); moved != tt.wantMoved {
				t.Errorf("Seek(%d) = %v, want %v", tt.delta, moved, tt.wantMoved)
			}
			if tl.Position() != tt.wantPos {
				t.Errorf("Position = %d, want %d", tl.Position(), tt.wantPos)
			}
		})
	}
}

func TestTimeline_Replace(t *testing.T) {
	tl := NewTimeline()

	// Replace on empty behaves like Push.
	tl.Replace(Entry{Path: "/a"})
	if tl.Len() != 1 || tl.Position() != 0 {
		t.Fatalf("after replace-on-empty: len=%d pos=%d", tl.Len(), tl.Position())
	}

	tl.Replace(Entry{Path: "/b", State: 1})
	if tl.Len() != 1 {
		t.Errorf("Len = %d, want 1", tl.Len())
	}
	e, ok := tl.Current()
	if !ok || e.Path != "/b" || e.State != 1 {
		t.Errorf("Current = %+v, want /b with state 1", e)
	}
}

func TestTimeline_ResetClampsPosition(t *testing.T) {
	entries := []Entry{{Path: "/a"}, {Path: "/b"}}

	tests := []struct {
		name    string
		pos     int
		wantPos int
	}{
		{name: "in range", pos: 1, wantPos: 1},
		{name: "negative clamped to 0", pos: -3, wantPos: 0},
		{name: "past end clamped to last", pos: 99, wantPos: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := NewTimeline()
			tl.Reset(entries, tt.pos)
			if tl.Position() != tt.wantPos {
				t.Errorf("Position = %d, want %d", tl.Position(), tt.wantPos)
			}
		})
	}

	t.Run("empty entries", func(t *testing.T) {
		tl := NewTimeline()
		tl.Push(Entry{Path: "/a"})
		tl.Reset(nil, 0)
		if tl.Len() != 0 || tl.Position() != -1 {
			t.Errorf("after Reset(nil): len=%d pos=%d", tl.Len(), tl.Position())
		}
	})
}

func TestEntry_URL(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  string
	}{
		{name: "plain path", entry: Entry{Path: "/users"}, want: "/users"},
		{name: "trailing slash stripped", entry: Entry{Path: "/users/"}, want: "/users"},
		{name: "with query", entry: Entry{Path: "/users/", Query: "page=2"}, want: "/users?page=2"},
		{name: "root", entry: Entry{Path: "/"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.URL(); got != tt.want {
				t.Errorf("URL() = %q, want %q", got, tt.want)
			}
		})
	}
}
