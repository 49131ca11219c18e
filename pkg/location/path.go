package location

import (
	"strings"

	"github.com/vango-dev/navhist/pkg/urlpath"
)

// PathStrategy represents application paths as plain platform URLs,
// optionally below a base href ("/app" + "/users" → "/app/users").
type PathStrategy struct {
	platform Platform
	base     string // "" or "/prefix", never with a trailing slash
}

// NewPathStrategy creates a path-based strategy over the given platform.
// baseHref may be empty; a trailing slash on it is ignored.
func NewPathStrategy(p Platform, baseHref string) *PathStrategy {
	base := strings.TrimSuffix(baseHref, "/")
	if base != "" && !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return &PathStrategy{platform: p, base: base}
}

// Path returns the current application path, or "" while the platform
// has no history.
func (s *PathStrategy) Path() string {
	url := s.platform.URL()
	if url == "" {
		return ""
	}
	path, _ := urlpath.SplitPathAndQuery(url)
	return s.internalPath(path)
}

// Query returns the current query string.
func (s *PathStrategy) Query() string {
	_, query := urlpath.SplitPathAndQuery(s.platform.URL())
	return query
}

// PushState appends a history entry for path/query.
func (s *PathStrategy) PushState(state any, path, query string) {
	s.platform.PushState(state, s.externalURL(path, query))
}

// ReplaceState replaces the current history entry.
func (s *PathStrategy) ReplaceState(state any, path, query string) {
	s.platform.ReplaceState(state, s.externalURL(path, query))
}

// Back moves one entry backward in platform history.
func (s *PathStrategy) Back() { s.platform.Back() }

// Forward moves one entry forward in platform history.
func (s *PathStrategy) Forward() { s.platform.Forward() }

// Go moves by delta entries in platform history.
func (s *PathStrategy) Go(delta int) { s.platform.Go(delta) }

// OnPopState registers a handler; event URLs have the base href removed.
func (s *PathStrategy) OnPopState(fn func(PopStateEvent)) (remove func()) {
	return s.platform.OnPopState(func(ev PopStateEvent) {
		path, query := urlpath.SplitPathAndQuery(ev.URL)
		ev.URL = urlpath.JoinPathAndQuery(s.internalPath(path), query)
		fn(ev)
	})
}

// externalURL maps an application path/query to a platform URL.
func (s *PathStrategy) externalURL(path, query string) string {
	if path == "" {
		path = "/"
	}
	return s.base + urlpath.JoinPathAndQuery(path, query)
}

// internalPath strips the base href from a platform path.
func (s *PathStrategy) internalPath(path string) string {
	if s.base != "" {
		path = strings.TrimPrefix(path, s.base)
	}
	if path == "" {
		return "/"
	}
	return path
}
