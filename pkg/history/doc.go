// Package history implements the navigation history tracker: an ordered,
// positioned timeline of visited locations with opaque per-entry state,
// relative traversal (back/forward/go-by-offset), and a listener registry
// notified exactly once per observed URL change.
//
// A Tracker can run purely in memory, or drive a location.Strategy so
// traversal flows through the hosting environment's history and comes back
// as pop-state events.
//
// Basic usage:
//
//	tracker := history.NewTracker(nil)
//	defer tracker.Dispose()
//
//	remove := tracker.OnURLChange(func(url string, state any) {
//	    log.Printf("now at %s", url)
//	})
//	defer remove()
//
//	tracker.Go("/users", history.WithQuery("page=2"), history.WithState(42))
//	tracker.Back()
package history
