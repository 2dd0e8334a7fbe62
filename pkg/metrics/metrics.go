package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/observer/internal/errors"
	"github.com/vango-dev/observer/pkg/observer"
)

// Config configures a Collector.
type Config struct {
	// Namespace is the metrics namespace (default: "observer").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for notify duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures a Collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the notify duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "observer",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector records core activity as Prometheus metrics.
// It implements observer.Hooks.
type Collector struct {
	observersCreated *prometheus.CounterVec
	notifications    prometheus.Counter
	fanOut           prometheus.Histogram
	notifyDuration   prometheus.Histogram
	warnings         *prometheus.CounterVec

	// starts holds the start time of each in-flight notification.
	// Notifications nest, so this is a stack.
	mu     sync.Mutex
	starts []time.Time
}

// New creates a Collector and registers its metrics.
// It panics if the metrics are already registered on the registry.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Collector{
		observersCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "observers_created_total",
			Help:        "Total number of Observers attached to values",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		notifications: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notifications_total",
			Help:        "Total number of dependency notifications",
			ConstLabels: config.ConstLabels,
		}),

		fanOut: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notify_subscribers",
			Help:        "Number of subscribers updated per notification",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),

		notifyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notify_duration_seconds",
			Help:        "Time spent updating the subscribers of one dep",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		warnings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "warnings_total",
			Help:        "Total number of reported diagnostics by code",
			ConstLabels: config.ConstLabels,
		}, []string{"code"}),
	}
}

// ObserverCreated implements observer.Hooks.
func (c *Collector) ObserverCreated(ob *observer.Observer) {
	c.observersCreated.WithLabelValues(ob.Kind()).Inc()
}

// Notified implements observer.Hooks.
func (c *Collector) Notified(_ *observer.Dep, subscribers int) {
	c.notifications.Inc()
	c.fanOut.Observe(float64(subscribers))

	c.mu.Lock()
	c.starts = append(c.starts, time.Now())
	c.mu.Unlock()
}

// NotifyDone implements observer.Hooks.
func (c *Collector) NotifyDone(*observer.Dep) {
	c.mu.Lock()
	n := len(c.starts)
	if n == 0 {
		c.mu.Unlock()
		return
	}
	start := c.starts[n-1]
	c.starts = c.starts[:n-1]
	c.mu.Unlock()

	c.notifyDuration.Observe(time.Since(start).Seconds())
}

// Warned implements observer.Hooks.
func (c *Collector) Warned(err error) {
	code := errors.Code(err)
	if code == "" {
		code = "unknown"
	}
	c.warnings.WithLabelValues(code).Inc()
}

var _ observer.Hooks = (*Collector)(nil)
