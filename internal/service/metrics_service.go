package service

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic,
// cache behaviour and the booking pipeline.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
	cacheLatency prometheus.Histogram

	slotExpansions    *prometheus.CounterVec
	slotExpansionSize prometheus.Histogram
	bookingAttempts   *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors on a private
// registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	slotExpansions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "slot_expansions_total",
		Help: "Total slot expansions by conflict source",
	}, []string{"conflict_source"})

	slotExpansionSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "slot_expansion_slot_count",
		Help:    "Number of slots produced per expansion",
		Buckets: []float64{0, 4, 8, 16, 24, 32, 48},
	})

	bookingAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_attempts_total",
		Help: "Total booking attempts by outcome",
	}, []string{"outcome"})

	registry.MustRegister(requestTotal, requestDuration, cacheHits, cacheMisses,
		cacheLatency, slotExpansions, slotExpansionSize, bookingAttempts)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		cacheLatency:      cacheLatency,
		slotExpansions:    slotExpansions,
		slotExpansionSize: slotExpansionSize,
		bookingAttempts:   bookingAttempts,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "metrics unavailable", http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// RecordHTTPRequest records one completed HTTP request.
func (m *MetricsService) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestTotal.WithLabelValues(method, path, status).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordCacheOperation records one cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
	m.cacheLatency.Observe(duration.Seconds())
}

// RecordSlotExpansion records one slot expansion and the source used for
// conflict detection ("live" or "degraded").
func (m *MetricsService) RecordSlotExpansion(conflictSource string, slotCount int) {
	if m == nil {
		return
	}
	m.slotExpansions.WithLabelValues(conflictSource).Inc()
	m.slotExpansionSize.Observe(float64(slotCount))
}

// RecordBookingAttempt records one booking attempt outcome, e.g. "booked",
// "no_fee", "stale_slot", "unavailable" or "error".
func (m *MetricsService) RecordBookingAttempt(outcome string) {
	if m == nil {
		return
	}
	m.bookingAttempts.WithLabelValues(outcome).Inc()
}
