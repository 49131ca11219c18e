package bridge

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/navhist/pkg/history"
	"github.com/vango-dev/navhist/pkg/journal"
	"github.com/vango-dev/navhist/pkg/location"
	"github.com/vango-dev/navhist/pkg/protocol"
	"github.com/vango-dev/navhist/pkg/urlpath"
)

// Session is one connected client: a WebSocket connection, the remote
// platform speaking frames over it, and the server-side history tracker
// observing that platform.
type Session struct {
	ID string

	conn     *websocket.Conn
	config   *Config
	logger   *slog.Logger
	platform *RemotePlatform
	tracker  *history.Tracker
	store    journal.Store
	metrics  *serverMetrics
	onClose  func(id string)

	writeMu sync.Mutex
	done    chan struct{}
	closed  atomic.Bool
}

// newSession wires a connection into a platform, strategy, and tracker.
// sessionID may be empty; a fresh ID is assigned then.
func newSession(conn *websocket.Conn, sessionID string, cfg *Config, logger *slog.Logger, metrics *serverMetrics, onClose func(id string)) *Session {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	s := &Session{
		ID:      sessionID,
		conn:    conn,
		config:  cfg,
		logger:  logger.With("session_id", sessionID),
		store:   cfg.Store,
		metrics: metrics,
		onClose: onClose,
		done:    make(chan struct{}),
	}

	s.platform = NewRemotePlatform(s)

	var strategy location.Strategy
	if cfg.UseHash {
		strategy = location.NewHashStrategy(s.platform, cfg.BaseHref)
	} else {
		strategy = location.NewPathStrategy(s.platform, cfg.BaseHref)
	}
	s.tracker = history.NewTracker(strategy, cfg.TrackerOptions...)

	return s
}

// Tracker returns the session's history tracker. Application code drives
// navigation for this client through it.
func (s *Session) Tracker() *history.Tracker {
	return s.tracker
}

// Navigate canonicalizes path and pushes it onto the session's history.
// Malformed or escaping paths are rejected before anything reaches the
// client.
func (s *Session) Navigate(path string, opts ...history.GoOption) error {
	res, err := urlpath.Canonicalize(path)
	if err != nil {
		return NewSessionError(s.ID, "navigate", err)
	}
	if res.Query != "" {
		opts = append([]history.GoOption{history.WithQuery(res.Query)}, opts...)
	}
	s.tracker.Go(res.Path, opts...)
	return nil
}

// restore loads a persisted timeline for this session, if one exists.
func (s *Session) restore(ctx context.Context) {
	if s.store == nil {
		return
	}
	snap, err := s.store.Load(ctx, s.ID)
	if err != nil {
		if !errors.Is(err, journal.ErrSnapshotNotFound) {
			s.logger.Error("snapshot load failed", "error", err)
		}
		return
	}
	if err := journal.Apply(s.tracker, snap); err != nil {
		s.logger.Error("snapshot apply failed", "error", err)
		return
	}
	s.logger.Info("timeline restored", "entries", len(snap.Entries), "position", snap.Position)
}

// persist captures and saves the session's timeline.
func (s *Session) persist() {
	if s.store == nil {
		return
	}
	snap, err := journal.Capture(s.tracker, s.ID)
	if err != nil {
		s.logger.Error("snapshot capture failed", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Save(ctx, snap); err != nil {
		s.logger.Error("snapshot save failed", "error", err)
	}
}

// Start launches the session's read and heartbeat loops.
func (s *Session) Start() {
	go s.readLoop()
	go s.heartbeatLoop()
}

// readLoop continuously reads frames from the connection until it closes.
func (s *Session) readLoop() {
	defer s.Close()

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}

		frame, err := protocol.Decode(msg)
		if err != nil {
			s.logger.Error("frame decode error", "error", err)
			continue
		}
		s.metrics.framesReceived.WithLabelValues(frame.Type.String()).Inc()

		switch frame.Type {
		case protocol.FramePopState:
			if err := s.platform.HandlePopState(frame); err != nil {
				s.logger.Error("popstate error", "error", err)
			}

		case protocol.FramePing:
			s.sendFrame(&protocol.Frame{Type: protocol.FramePong})

		case protocol.FramePong:
			s.logger.Debug("received pong")

		default:
			s.logger.Warn("unexpected frame type", "type", frame.Type.String())
		}
	}
}

// heartbeatLoop pings the client periodically until the session closes.
func (s *Session) heartbeatLoop() {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.sendFrame(&protocol.Frame{Type: protocol.FramePing}); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

// sendFrame encodes and writes one frame. It implements frameSender for
// the remote platform.
func (s *Session) sendFrame(f *protocol.Frame) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, f.Encode()); err != nil {
		s.logger.Error("write error", "error", err, "type", f.Type.String())
		return NewSessionError(s.ID, "write", err)
	}
	s.metrics.framesSent.WithLabelValues(f.Type.String()).Inc()
	return nil
}

// Close tears the session down: the timeline is persisted, the tracker
// and platform are disposed, and the connection is closed. Idempotent.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}

	s.persist()
	s.tracker.Dispose()
	s.platform.Close()
	close(s.done)
	s.conn.Close()
	s.metrics.sessionsActive.Dec()

	if s.onClose != nil {
		s.onClose(s.ID)
	}
	s.logger.Info("session closed")
}
