package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provider records service metrics.
type Provider interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	AddSessionsDemoted(count int64)
	IncSweepFailures()
	ObserveSweepDuration(duration time.Duration)
}

type prometheusProvider struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	sessionsDemoted prometheus.Counter
	sweepFailures   prometheus.Counter
	sweepDuration   prometheus.Histogram
}

// New returns a Prometheus-backed provider registered with reg, or a no-op
// provider when disabled.
func New(enabled bool, reg prometheus.Registerer) Provider {
	if !enabled {
		return Noop()
	}
	factory := promauto.With(reg)

	return &prometheusProvider{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "codepulse_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "codepulse_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "codepulse_summary_cache_hits_total",
			Help: "Total number of project summary cache hits",
		}),

		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "codepulse_summary_cache_misses_total",
			Help: "Total number of project summary cache misses",
		}),

		sessionsDemoted: factory.NewCounter(prometheus.CounterOpts{
			Name: "codepulse_sessions_demoted_total",
			Help: "Total number of sessions marked offline by the liveness sweep",
		}),

		sweepFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "codepulse_sweep_failures_total",
			Help: "Total number of failed liveness sweep ticks",
		}),

		sweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "codepulse_sweep_duration_seconds",
			Help:    "Duration of liveness sweep ticks in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *prometheusProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *prometheusProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *prometheusProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *prometheusProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *prometheusProvider) AddSessionsDemoted(count int64) {
	m.sessionsDemoted.Add(float64(count))
}

func (m *prometheusProvider) IncSweepFailures() {
	m.sweepFailures.Inc()
}

func (m *prometheusProvider) ObserveSweepDuration(duration time.Duration) {
	m.sweepDuration.Observe(duration.Seconds())
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// Noop returns a provider that records nothing.
func Noop() Provider {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (noopMetrics) IncCacheHits()                                    {}
func (noopMetrics) IncCacheMisses()                                  {}
func (noopMetrics) AddSessionsDemoted(_ int64)                       {}
func (noopMetrics) IncSweepFailures()                                {}
func (noopMetrics) ObserveSweepDuration(_ time.Duration)             {}
