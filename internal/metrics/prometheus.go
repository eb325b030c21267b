// Package metrics exposes Prometheus metrics for the sunlight history service.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/sunlight-history/internal/sunlight"
)

const (
	defaultNamespace = "sunlight"
	defaultSubsystem = "history"
)

// Manager owns the service metrics and the registry they live on.
// It implements sunlight.Recorder.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry
	processMetrics   bool

	resolutions     *prometheus.CounterVec
	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	recordsCreated  prometheus.Counter
}

// Option configures a Manager.
type Option func(*Manager)

func WithNamespace(ns string) Option { return func(m *Manager) { m.namespace = ns } }

func WithSubsystem(sub string) Option { return func(m *Manager) { m.subsystem = sub } }

func WithHistogramBuckets(b []float64) Option {
	return func(m *Manager) {
		if len(b) > 0 {
			m.histogramBuckets = b
		}
	}
}

// WithRegistry registers metrics on r instead of a fresh private registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// WithProcessCollectors adds the Go runtime and process collectors.
func WithProcessCollectors() Option {
	return func(m *Manager) { m.processMetrics = true }
}

// NewManager creates a Manager on a private registry unless WithRegistry is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        defaultNamespace,
		subsystem:        defaultSubsystem,
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	if m.processMetrics {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.resolutions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "resolutions_total",
		Help:      "Historical information resolutions by outcome (hit, miss, error)",
	}, []string{"outcome"})

	m.providerCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "provider_requests_total",
		Help:      "Upstream requests by provider and result",
	}, []string{"provider", "result"})

	m.providerLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "provider_request_duration_seconds",
		Help:      "Upstream request latency in seconds",
		Buckets:   m.histogramBuckets,
	}, []string{"provider"})

	m.recordsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_created_total",
		Help:      "Historical information records persisted",
	})
}

// Registry returns the registry backing this manager.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Manager) ObserveResolution(outcome sunlight.Outcome) {
	m.resolutions.WithLabelValues(string(outcome)).Inc()
}

func (m *Manager) ObserveProviderCall(provider string, err error, took time.Duration) {
	m.providerCalls.WithLabelValues(provider, callResult(err)).Inc()
	m.providerLatency.WithLabelValues(provider).Observe(took.Seconds())
}

func (m *Manager) ObserveRecordCreated() {
	m.recordsCreated.Inc()
}

// callResult buckets provider errors into a small fixed label set.
func callResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, sunlight.ErrNetwork):
		return "network_error"
	case errors.Is(err, sunlight.ErrUpstream):
		return "upstream_error"
	case errors.Is(err, sunlight.ErrMalformedResponse):
		return "malformed_response"
	default:
		return "error"
	}
}

var _ sunlight.Recorder = (*Manager)(nil)
