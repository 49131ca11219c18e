package location

import (
	"strings"

	"github.com/vango-dev/navhist/pkg/urlpath"
)

// HashStrategy keeps the application path in the URL fragment
// ("/index.html#/users?page=2"), so traversal never leaves the host page.
type HashStrategy struct {
	platform Platform
	base     string // page URL before the "#", defaults to "/"
}

// NewHashStrategy creates a hash-based strategy over the given platform.
// baseHref is the page URL the fragment is appended to; empty means "/".
func NewHashStrategy(p Platform, baseHref string) *HashStrategy {
	base := baseHref
	if base == "" {
		base = "/"
	}
	return &HashStrategy{platform: p, base: base}
}

// Path returns the current application path parsed from the fragment,
// or "" while the platform has no history.
func (s *HashStrategy) Path() string {
	if s.platform.URL() == "" {
		return ""
	}
	path, _ := urlpath.SplitPathAndQuery(s.fragment())
	return path
}

// Query returns the query string embedded in the fragment.
func (s *HashStrategy) Query() string {
	_, query := urlpath.SplitPathAndQuery(s.fragment())
	return query
}

// PushState appends a history entry for path/query.
func (s *HashStrategy) PushState(state any, path, query string) {
	s.platform.PushState(state, s.externalURL(path, query))
}

// ReplaceState replaces the current history entry.
func (s *HashStrategy) ReplaceState(state any, path, query string) {
	s.platform.ReplaceState(state, s.externalURL(path, query))
}

// Back moves one entry backward in platform history.
func (s *HashStrategy) Back() { s.platform.Back() }

// Forward moves one entry forward in platform history.
func (s *HashStrategy) Forward() { s.platform.Forward() }

// Go moves by delta entries in platform history.
func (s *HashStrategy) Go(delta int) { s.platform.Go(delta) }

// OnPopState registers a handler; event URLs are rewritten to the
// application form parsed from the fragment.
func (s *HashStrategy) OnPopState(fn func(PopStateEvent)) (remove func()) {
	return s.platform.OnPopState(func(ev PopStateEvent) {
		ev.URL = fragmentOf(ev.URL)
		fn(ev)
	})
}

func (s *HashStrategy) externalURL(path, query string) string {
	if path == "" {
		path = "/"
	}
	return s.base + "#" + urlpath.JoinPathAndQuery(path, query)
}

func (s *HashStrategy) fragment() string {
	return fragmentOf(s.platform.URL())
}

// fragmentOf extracts the application URL from a platform URL's fragment.
// A URL with no fragment maps to the root path.
func fragmentOf(url string) string {
	if _, frag, ok := strings.Cut(url, "#"); ok && frag != "" {
		return frag
	}
	return "/"
}
