package bridge

import (
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/navhist/pkg/history"
	"github.com/vango-dev/navhist/pkg/journal"
)

// Config holds server configuration.
type Config struct {
	// Address to listen on (e.g. ":8080").
	Address string

	// BaseHref is the prefix under which application paths live on the
	// client (e.g. "/app"). Empty means paths are served from the root.
	BaseHref string

	// UseHash keeps application paths in the URL fragment instead of the
	// path, so the host page never reloads on navigation.
	UseHash bool

	// WebSocket buffer sizes.
	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin validates the Origin header during the upgrade.
	// Defaults to rejecting cross-origin requests.
	CheckOrigin func(r *http.Request) bool

	// Connection timeouts.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// HeartbeatInterval is how often the server pings idle connections.
	HeartbeatInterval time.Duration

	// MaxSessions caps concurrent sessions. Zero means unlimited.
	MaxSessions int

	// Store persists timelines across disconnects. Nil disables
	// persistence.
	Store journal.Store

	// Registry receives bridge metrics. Nil uses the default registerer.
	Registry prometheus.Registerer

	// TrackerOptions are applied to every session's history tracker
	// (dispatch hooks, typically).
	TrackerOptions []history.Option

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":8080",
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		CheckOrigin:       sameOriginOnly,
	}
}

// withDefaults fills unset fields in from DefaultConfig.
func (c *Config) withDefaults() *Config {
	if c == nil {
		return DefaultConfig()
	}
	defaults := DefaultConfig()
	if c.Address == "" {
		c.Address = defaults.Address
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = defaults.ReadBufferSize
	}
	if c.WriteBufferSize == 0 {
		c.WriteBufferSize = defaults.WriteBufferSize
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = defaults.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = defaults.WriteTimeout
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = defaults.HeartbeatInterval
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if c.CheckOrigin == nil {
		c.CheckOrigin = defaults.CheckOrigin
	}
	return c
}

// sameOriginOnly allows requests whose Origin host matches the request
// host, and requests without an Origin header (non-browser clients).
func sameOriginOnly(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
