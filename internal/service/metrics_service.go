package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	bookingOutcomes *prometheus.CounterVec
	enrollOutcomes  *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	queueDepth      prometheus.Gauge
}

// NewMetricsService registers the core collectors.
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

	bookingOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "appointment_bookings_total",
		Help: "Appointment booking attempts by outcome",
	}, []string{"outcome"})

	enrollOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "session_enrollments_total",
		Help: "Session enrollment attempts by outcome",
	}, []string{"outcome"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "report_cache_hits_total",
		Help: "Total report cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "report_cache_misses_total",
		Help: "Total report cache misses",
	})

	queueDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "notification_queue_depth",
		Help: "Jobs waiting in the notification queue",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, bookingOutcomes, enrollOutcomes, cacheHits, cacheMisses, queueDepth, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		bookingOutcomes: bookingOutcomes,
		enrollOutcomes:  enrollOutcomes,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		queueDepth:      queueDepth,
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
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordBooking counts an appointment booking attempt by outcome, e.g.
// "created" or "slot_taken".
func (m *MetricsService) RecordBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingOutcomes.WithLabelValues(outcome).Inc()
}

// RecordEnrollment counts an enrollment attempt by outcome, e.g. "created",
// "full" or "duplicate".
func (m *MetricsService) RecordEnrollment(outcome string) {
	if m == nil {
		return
	}
	m.enrollOutcomes.WithLabelValues(outcome).Inc()
}

// RecordCacheLookup counts a report cache hit or miss.
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

// SetQueueDepth reports the notification queue backlog.
func (m *MetricsService) SetQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}
