package location

// Strategy abstracts how application paths are represented on the
// underlying platform. PathStrategy produces plain URLs; HashStrategy
// keeps the application path in the fragment so the host page never
// reloads.
//
// Strategies do not own the Platform they wrap; closing the platform is
// the creator's responsibility.
type Strategy interface {
	// Path returns the current application path (without query).
	Path() string

	// Query returns the current query string without the leading "?".
	Query() string

	// PushState appends a new history entry for path/query with the
	// given opaque state.
	PushState(state any, path, query string)

	// ReplaceState replaces the current history entry.
	ReplaceState(state any, path, query string)

	// Back, Forward, and Go delegate to the platform's history
	// traversal. Resulting changes surface as pop-state events.
	Back()
	Forward()
	Go(delta int)

	// OnPopState registers a handler for externally observed location
	// changes. Event URLs are in application form (base/fragment
	// handling already applied). Returns an idempotent removal function.
	OnPopState(fn func(PopStateEvent)) (remove func())
}
