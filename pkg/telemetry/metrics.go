package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "scenes").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for repeat duration.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "scenes",
		Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		Registry:  prometheus.DefaultRegisterer,
	}
}

type metrics struct {
	dependencyScans       prometheus.Counter
	serializationFailures prometheus.Counter
	repeatsTotal          prometheus.Counter
	repeatClones          prometheus.Histogram
	repeatDuration        prometheus.Histogram
	payloadsTotal         *prometheus.CounterVec
}

var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		dependencyScans: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dependency_scans_total",
			Help:        "Total number of variable dependency scans",
			ConstLabels: config.ConstLabels,
		}),

		serializationFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "serialization_failures_total",
			Help:        "Total number of state values that could not be scanned",
			ConstLabels: config.ConstLabels,
		}),

		repeatsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "repeats_total",
			Help:        "Total number of panel repeat expansions",
			ConstLabels: config.ConstLabels,
		}),

		repeatClones: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "repeat_clones",
			Help:        "Number of clones produced per expansion",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),

		repeatDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "repeat_duration_seconds",
			Help:        "Panel repeat expansion duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		payloadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "payloads_total",
			Help:        "Panel data payloads observed by repeaters, by loading state",
			ConstLabels: config.ConstLabels,
		}, []string{"state"}),
	}
}

// Init registers the metrics. Only the first call has an effect.
func Init(opts ...MetricsOption) {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
}

func current() *metrics {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	return globalMetrics
}

// RecordScan records one dependency scan.
func RecordScan() {
	if m := current(); m != nil {
		m.dependencyScans.Inc()
	}
}

// RecordSerializationFailure records a state value that could not be scanned.
func RecordSerializationFailure() {
	if m := current(); m != nil {
		m.serializationFailures.Inc()
	}
}

// RecordPayload records a payload observed by a repeater.
func RecordPayload(state string) {
	if m := current(); m != nil {
		m.payloadsTotal.WithLabelValues(state).Inc()
	}
}

// RecordRepeat records one expansion producing clones children.
func RecordRepeat(clones int, d time.Duration) {
	if m := current(); m != nil {
		m.repeatsTotal.Inc()
		m.repeatClones.Observe(float64(clones))
		m.repeatDuration.Observe(d.Seconds())
	}
}
