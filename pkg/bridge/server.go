// Package bridge serves navigation state to remote clients over
// WebSocket. Each connection gets a Session holding a RemotePlatform and
// a history tracker; application code navigates through the tracker and
// the bridge keeps the client's location in sync.
package bridge

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SessionHandler is called once per new session, after any persisted
// timeline has been restored and before the read loop starts. Use it to
// register listeners and drive initial navigation.
type SessionHandler func(s *Session)

// Server accepts WebSocket connections and manages their sessions.
type Server struct {
	config   *Config
	logger   *slog.Logger
	upgrader websocket.Upgrader
	metrics  *serverMetrics
	onOpen   SessionHandler

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool

	httpServer *http.Server
}

// New creates a Server. cfg may be nil for defaults.
func New(cfg *Config, onOpen SessionHandler) *Server {
	cfg = cfg.withDefaults()

	s := &Server{
		config: cfg,
		logger: slog.Default().With("component", "bridge"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     cfg.CheckOrigin,
		},
		metrics:  newServerMetrics(cfg.Registry),
		onOpen:   onOpen,
		sessions: make(map[string]*Session),
	}
	return s
}

// Handler returns the server's HTTP routes:
//
//	GET /ws       WebSocket upgrade (optional ?session_id= to resume)
//	GET /metrics  Prometheus metrics
//	GET /healthz  liveness probe
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/ws", s.handleWS)

	metricsHandler := promhttp.Handler()
	if g, ok := s.config.Registry.(prometheus.Gatherer); ok {
		metricsHandler = promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}

// ListenAndServe serves the bridge on the configured address, blocking
// until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServerClosed
	}
	s.httpServer = &http.Server{
		Addr:    s.config.Address,
		Handler: s.Handler(),
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("listening", "address", s.config.Address)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// handleWS upgrades the connection and starts a session.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		http.Error(w, "server closed", http.StatusServiceUnavailable)
		return
	}
	if s.config.MaxSessions > 0 && len(s.sessions) >= s.config.MaxSessions {
		s.mu.Unlock()
		s.logger.Warn("session limit reached", "max", s.config.MaxSessions)
		http.Error(w, "too many sessions", http.StatusServiceUnavailable)
		return
	}
	s.mu.Unlock()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade failed", "error", err)
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	sess := newSession(conn, sessionID, s.config, s.logger, s.metrics, s.dropSession)

	s.mu.Lock()
	if old, ok := s.sessions[sess.ID]; ok {
		// A reconnect with the same ID supersedes the old connection.
		s.mu.Unlock()
		old.Close()
		s.mu.Lock()
	}
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.metrics.sessionsActive.Inc()
	s.metrics.sessionsTotal.Inc()
	s.logger.Info("session opened", "session_id", sess.ID, "remote", r.RemoteAddr)

	sess.restore(r.Context())
	if s.onOpen != nil {
		s.onOpen(sess)
	}
	sess.Start()
}

// dropSession removes a closed session from the registry.
func (s *Server) dropSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Session looks a session up by ID.
func (s *Server) Session(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// SessionCount returns the number of live sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Shutdown closes all sessions and stops the HTTP listener. Session
// timelines are persisted on close when a store is configured.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	srv := s.httpServer
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			return err
		}
	}
	s.logger.Info("shutdown complete")
	return nil
}

// serverMetrics holds the bridge's Prometheus instruments.
type serverMetrics struct {
	sessionsActive prometheus.Gauge
	sessionsTotal  prometheus.Counter
	framesSent     *prometheus.CounterVec
	framesReceived *prometheus.CounterVec
}

func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &serverMetrics{
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "navhist",
			Subsystem: "bridge",
			Name:      "sessions_active",
			Help:      "Number of currently connected sessions.",
		}),
		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "navhist",
			Subsystem: "bridge",
			Name:      "sessions_total",
			Help:      "Total number of sessions accepted.",
		}),
		framesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navhist",
			Subsystem: "bridge",
			Name:      "frames_sent_total",
			Help:      "Frames sent to clients, by frame type.",
		}, []string{"type"}),
		framesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navhist",
			Subsystem: "bridge",
			Name:      "frames_received_total",
			Help:      "Frames received from clients, by frame type.",
		}, []string{"type"}),
	}
}
