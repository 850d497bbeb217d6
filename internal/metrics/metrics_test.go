package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMetrics struct {
	noopMetrics
	requestEndpoint string
	requestStatus   int
	requestCalls    int
	durationCalls   int
}

func (m *mockMetrics) IncRequestsTotal(endpoint string, status int) {
	m.requestEndpoint = endpoint
	m.requestStatus = status
	m.requestCalls++
}

func (m *mockMetrics) ObserveRequestDuration(_ string, _ time.Duration) { m.durationCalls++ }

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := &mockMetrics{}

	r := chi.NewRouter()
	r.Use(Middleware(m))
	r.Get("/summary/project/{recordID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/summary/project/abc", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, 1, m.requestCalls)
	assert.Equal(t, "/summary/project/{recordID}", m.requestEndpoint)
	assert.Equal(t, http.StatusNotFound, m.requestStatus)
	assert.Equal(t, 1, m.durationCalls)
}

func TestMiddleware_DefaultStatus200(t *testing.T) {
	m := &mockMetrics{}

	handler := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, m.requestStatus)
	assert.Equal(t, unmatchedEndpoint, m.requestEndpoint)
}

func TestMiddleware_UnknownPathsShareOneSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := New(true, reg)

	r := chi.NewRouter()
	r.Use(Middleware(p))
	r.Get("/hello", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for i := range 50 {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/scan/%d", i), nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	count, err := testutil.GatherAndCount(reg, "codepulse_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = testutil.GatherAndCount(reg, "codepulse_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	requests := p.(*prometheusProvider).requestsTotal
	assert.Equal(t, float64(50), testutil.ToFloat64(requests.WithLabelValues(unmatchedEndpoint, "4xx")))
}

func TestPrometheusProvider_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := New(true, reg).(*prometheusProvider)

	p.AddSessionsDemoted(3)
	p.AddSessionsDemoted(2)
	p.IncSweepFailures()
	p.IncCacheHits()
	p.IncCacheMisses()
	p.IncCacheMisses()
	p.IncRequestsTotal("/hello", http.StatusOK)
	p.ObserveSweepDuration(10 * time.Millisecond)

	require.Equal(t, float64(5), testutil.ToFloat64(p.sessionsDemoted))
	require.Equal(t, float64(1), testutil.ToFloat64(p.sweepFailures))
	require.Equal(t, float64(1), testutil.ToFloat64(p.cacheHits))
	require.Equal(t, float64(2), testutil.ToFloat64(p.cacheMisses))
	require.Equal(t, float64(1), testutil.ToFloat64(p.requestsTotal.WithLabelValues("/hello", "2xx")))
}

func TestNew_DisabledIsNoop(t *testing.T) {
	p := New(false, prometheus.NewRegistry())
	_, ok := p.(noopMetrics)
	require.True(t, ok)
}

func TestHTTPStatusBucket(t *testing.T) {
	assert.Equal(t, "1xx", httpStatusBucket(101))
	assert.Equal(t, "2xx", httpStatusBucket(201))
	assert.Equal(t, "3xx", httpStatusBucket(304))
	assert.Equal(t, "4xx", httpStatusBucket(409))
	assert.Equal(t, "5xx", httpStatusBucket(503))
}
