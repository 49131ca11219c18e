package history

import "github.com/vango-dev/navhist/pkg/urlpath"

// Entry is one visited location: a path, an optional query string, and an
// opaque state value stored and returned verbatim.
type Entry struct {
	Path  string
	Query string
	State any
}

// URL returns the entry's display URL: path joined with the query, with a
// single trailing slash stripped from the path portion.
func (e Entry) URL() string {
	return urlpath.StripTrailingSlash(urlpath.JoinPathAndQuery(e.Path, e.Query))
}

// Timeline is an ordered sequence of entries plus a current position.
// The position always points at an existing entry (-1 only while the
// timeline is empty) and never moves past either end.
//
// Timeline is not safe for concurrent use; Tracker serializes access.
type Timeline struct {
	entries []Entry
	pos     int
}

// NewTimeline returns an empty timeline.
func NewTimeline() *Timeline {
	return &Timeline{pos: -1}
}

// Len returns the number of entries.
func (tl *Timeline) Len() int { return len(tl.entries) }

// Position returns the current entry index, or -1 if the timeline is
// empty.
func (tl *Timeline) Position() int { return tl.pos }

// Current returns the entry at the current position.
func (tl *Timeline) Current() (Entry, bool) {
	if tl.pos < 0 {
		return Entry{}, false
	}
	return tl.entries[tl.pos], true
}

// Push discards any entries beyond the current position (the forward
// branch), appends e, and makes it current.
func (tl *Timeline) Push(e Entry) {
	tl.entries = append(tl.entries[:tl.pos+1], e)
	tl.pos = len(tl.entries) - 1
}

// Replace overwrites the current entry in place, or behaves like Push on
// an empty timeline.
func (tl *Timeline) Replace(e Entry) {
	if tl.pos < 0 {
		tl.Push(e)
		return
	}
	tl.entries[tl.pos] = e
}

// Seek moves the position by delta. It reports whether the position
// changed: a delta of 0, or one that would land outside [0, Len()-1],
// leaves the position untouched and returns false.
func (tl *Timeline) Seek(delta int) bool {
	if delta == 0 || tl.pos < 0 {
		return false
	}
	target := tl.pos + delta
	if target < 0 || target >= len(tl.entries) {
		return false
	}
	tl.pos = target
	return true
}

// SetPosition moves the position to an absolute index. Out-of-range
// indices are ignored and reported as false.
func (tl *Timeline) SetPosition(pos int) bool {
	if pos < 0 || pos >= len(tl.entries) {
		return false
	}
	tl.pos = pos
	return true
}

// Entries returns a copy of the timeline's entries in order.
func (tl *Timeline) Entries() []Entry {
	out := make([]Entry, len(tl.entries))
	copy(out, tl.entries)
	return out
}

// Reset replaces the timeline's contents. The position is clamped into
// the new bounds; an empty entries slice empties the timeline.
func (tl *Timeline) Reset(entries []Entry, pos int) {
	tl.entries = append(tl.entries[:0:0], entries...)
	switch {
	case len(tl.entries) == 0:
		tl.pos = -1
	case pos < 0:
		tl.pos = 0
	case pos >= len(tl.entries):
		tl.pos = len(tl.entries) - 1
	default:
		tl.pos = pos
	}
}

// Clear empties the timeline.
func (tl *Timeline) Clear() {
	tl.entries = nil
	tl.pos = -1
}
