package arrive

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the engine's Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "arrive").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for batch handling duration.
	Buckets []float64
}

// MetricsOption configures the engine's Prometheus metrics.
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

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "arrive",
		Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
	}
}

// metrics holds the engine's collectors. A nil *metrics records nothing.
type metrics struct {
	registrations *prometheus.GaugeVec
	fired         *prometheus.CounterVec
	batches       *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
	panics        *prometheus.CounterVec
}

// Engines registering with the same registerer share one set of
// collectors.
var (
	sharedMetricsMu sync.Mutex
	sharedMetrics   = make(map[metricsKey]*metrics)
)

type metricsKey struct {
	reg       prometheus.Registerer
	namespace string
	subsystem string
}

// metricsFor returns the collectors registered with reg under config's
// namespace, creating them on first use.
func metricsFor(reg prometheus.Registerer, config MetricsConfig) *metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	key := metricsKey{reg: reg, namespace: config.Namespace, subsystem: config.Subsystem}

	sharedMetricsMu.Lock()
	defer sharedMetricsMu.Unlock()
	if m, ok := sharedMetrics[key]; ok {
		return m
	}
	m := newMetrics(reg, config)
	sharedMetrics[key] = m
	return m
}

func newMetrics(reg prometheus.Registerer, config MetricsConfig) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		registrations: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "registrations",
			Help:        "Number of live registrations",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		fired: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "handler_invocations_total",
			Help:        "Total handler invocations by kind and cause",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "cause"}),

		batches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mutation_batches_total",
			Help:        "Total mutation batches handled",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		batchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mutation_batch_duration_seconds",
			Help:        "Time spent walking a mutation batch",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),

		panics: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "handler_panics_total",
			Help:        "Total handler panics recovered",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),
	}
}

func (m *metrics) registrationAdded(k Kind) {
	if m != nil {
		m.registrations.WithLabelValues(k.String()).Inc()
	}
}

func (m *metrics) registrationRemoved(k Kind) {
	if m != nil {
		m.registrations.WithLabelValues(k.String()).Dec()
	}
}

func (m *metrics) handlerFired(k Kind, c cause) {
	if m != nil {
		m.fired.WithLabelValues(k.String(), c.String()).Inc()
	}
}

func (m *metrics) batchHandled(k Kind, d time.Duration) {
	if m != nil {
		m.batches.WithLabelValues(k.String()).Inc()
		m.batchDuration.WithLabelValues(k.String()).Observe(d.Seconds())
	}
}

func (m *metrics) handlerPanicked(k Kind) {
	if m != nil {
		m.panics.WithLabelValues(k.String()).Inc()
	}
}
