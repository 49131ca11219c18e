// Package journal persists navigation timelines so a detached session can
// resume with its history intact.
//
// Snapshots are plain data: entry states are JSON-encoded at capture time
// and decoded on restore, keeping the Store implementations free of any
// knowledge about what applications put in navigation state.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vango-dev/navhist/pkg/history"
)

// Store errors.
var (
	// ErrSnapshotNotFound is returned when no snapshot exists for a
	// session ID (or it has expired).
	ErrSnapshotNotFound = errors.New("journal: snapshot not found")

	// ErrStoreClosed is returned for operations on a closed store.
	ErrStoreClosed = errors.New("journal: store closed")
)

// EntrySnapshot is one serialized timeline entry.
type EntrySnapshot struct {
	Path  string          `json:"path"`
	Query string          `json:"query,omitempty"`
	State json.RawMessage `json:"state,omitempty"`
}

// Snapshot is a serialized timeline for one session.
type Snapshot struct {
	SessionID string          `json:"session_id"`
	Entries   []EntrySnapshot `json:"entries"`
	Position  int             `json:"position"`
	SavedAt   time.Time       `json:"saved_at"`
}

// Store persists timeline snapshots keyed by session ID.
type Store interface {
	// Save stores a snapshot, overwriting any previous one for the
	// same session.
	Save(ctx context.Context, snap *Snapshot) error

	// Load retrieves a session's snapshot. Returns ErrSnapshotNotFound
	// if none exists.
	Load(ctx context.Context, sessionID string) (*Snapshot, error)

	// Delete removes a session's snapshot. Deleting a missing snapshot
	// is not an error.
	Delete(ctx context.Context, sessionID string) error

	// Close releases store resources.
	Close() error
}

// Capture serializes the tracker's timeline into a snapshot. States must
// be JSON-marshalable; anything else fails the capture.
func Capture(t *history.Tracker, sessionID string) (*Snapshot, error) {
	entries := t.Entries()

	snap := &Snapshot{
		SessionID: sessionID,
		Entries:   make([]EntrySnapshot, 0, len(entries)),
		Position:  t.Position(),
		SavedAt:   time.Now().UTC(),
	}

	for _, e := range entries {
		es := EntrySnapshot{Path: e.Path, Query: e.Query}
		if e.State != nil {
			raw, err := json.Marshal(e.State)
			if err != nil {
				return nil, fmt.Errorf("journal: marshal state for %s: %w", e.Path, err)
			}
			es.State = raw
		}
		snap.Entries = append(snap.Entries, es)
	}

	return snap, nil
}

// Apply restores a snapshot into the tracker. States decode to generic
// JSON values (map[string]any, []any, float64, string, bool, nil); the
// tracker clamps the position into bounds.
func Apply(t *history.Tracker, snap *Snapshot) error {
	entries := make([]history.Entry, 0, len(snap.Entries))
	for _, es := range snap.Entries {
		e := history.Entry{Path: es.Path, Query: es.Query}
		if len(es.State) > 0 {
			var state any
			if err := json.Unmarshal(es.State, &state); err != nil {
				return fmt.Errorf("journal: unmarshal state for %s: %w", es.Path, err)
			}
			e.State = state
		}
		entries = append(entries, e)
	}

	t.Restore(entries, snap.Position)
	return nil
}

// clone deep-copies a snapshot so stores never hand out shared slices.
func clone(snap *Snapshot) *Snapshot {
	out := *snap
	out.Entries = make([]EntrySnapshot, len(snap.Entries))
	for i, es := range snap.Entries {
		out.Entries[i] = EntrySnapshot{
			Path:  es.Path,
			Query: es.Query,
			State: append(json.RawMessage(nil), es.State...),
		}
	}
	return &out
}
