package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/navhist/pkg/history"
)

// MetricsConfig configures the Prometheus hook.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "navhist").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for dispatch duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registerer to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus hook.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) { c.Namespace = namespace }
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) { c.Subsystem = subsystem }
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) { c.ConstLabels = labels }
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) { c.Buckets = buckets }
}

// WithRegistry sets the Prometheus registerer.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) { c.Registry = registry }
}

// NavMetrics holds the Prometheus collectors for navigation events.
type NavMetrics struct {
	changesTotal     *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	dispatchErrors   *prometheus.CounterVec
}

// NewNavMetrics registers the navigation collectors on the configured
// registerer and returns them. Each call registers a fresh set, so use
// one NavMetrics (and usually one custom Registry) per process or test.
func NewNavMetrics(opts ...MetricsOption) *NavMetrics {
	config := MetricsConfig{
		Namespace: "navhist",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &NavMetrics{
		changesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "changes_total",
			Help:        "Total number of URL changes dispatched",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "status"}),

		dispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_duration_seconds",
			Help:        "Listener dispatch duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),

		dispatchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_errors_total",
			Help:        "Total number of dispatch hook errors",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),
	}
}

// Hook returns a dispatch hook recording a counter and duration sample
// per navigation event.
func (m *NavMetrics) Hook() history.Hook {
	return func(ch history.Change, next func() error) error {
		kind := ch.Kind.String()
		start := time.Now()

		err := next()

		m.dispatchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		status := "success"
		if err != nil {
			status = "error"
			m.dispatchErrors.WithLabelValues(kind).Inc()
		}
		m.changesTotal.WithLabelValues(kind, status).Inc()

		return err
	}
}

// Prometheus is a convenience wrapper: it registers collectors with the
// given options and returns the recording hook.
func Prometheus(opts ...MetricsOption) history.Hook {
	return NewNavMetrics(opts...).Hook()
}
