package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and
// the view-compilation pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	compileDuration *prometheus.HistogramVec
	patchesTotal    prometheus.Counter
	refreshesTotal  prometheus.Counter
	subscriptions   prometheus.Gauge
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "view_cache_hits_total",
		Help: "Total compiled-view cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "view_cache_misses_total",
		Help: "Total compiled-view cache misses",
	})

	compileDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "grade_view_compile_seconds",
		Help:    "Duration of grade view compilations",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	patchesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconciler_patches_total",
		Help: "In-place patches applied to live grade views",
	})

	refreshesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconciler_refreshes_total",
		Help: "Debounced authoritative recompilations",
	})

	subscriptions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_subscriptions_active",
		Help: "Open realtime grade-view subscriptions",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHits, cacheMisses, compileDuration, patchesTotal, refreshesTotal, subscriptions, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		compileDuration: compileDuration,
		patchesTotal:    patchesTotal,
		refreshesTotal:  refreshesTotal,
		subscriptions:   subscriptions,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := []string{method, path, fmt.Sprintf("%d", status)}
	m.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(labels...).Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCompile records a grade view compilation.
func (m *MetricsService) ObserveCompile(duration time.Duration, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.compileDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordPatch counts an in-place reconciler patch.
func (m *MetricsService) RecordPatch() {
	if m == nil {
		return
	}
	m.patchesTotal.Inc()
}

// RecordRefresh counts a debounced authoritative refresh.
func (m *MetricsService) RecordRefresh() {
	if m == nil {
		return
	}
	m.refreshesTotal.Inc()
}

// SubscriptionOpened tracks an opened realtime channel.
func (m *MetricsService) SubscriptionOpened() {
	if m == nil {
		return
	}
	m.subscriptions.Inc()
}

// SubscriptionClosed tracks a released realtime channel.
func (m *MetricsService) SubscriptionClosed() {
	if m == nil {
		return
	}
	m.subscriptions.Dec()
}
