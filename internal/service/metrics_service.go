package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic and MAR reporting.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	marReports      *prometheus.CounterVec
	visitsReported  prometheus.Counter
	snapshotLoad    *prometheus.HistogramVec
	exports         *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors on a private registry.
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

	marReports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mar_reports_total",
		Help: "MAR reports computed, labelled by whether the date window included today",
	}, []string{"gate"})

	visitsReported := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mar_visits_reported_total",
		Help: "Visits summarised across all MAR reports",
	})

	snapshotLoad := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mar_snapshot_load_seconds",
		Help:    "Time spent loading MAR collections from the configured source",
		Buckets: prometheus.DefBuckets,
	}, []string{"source", "outcome"})

	exports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mar_exports_total",
		Help: "MAR report exports rendered, by format",
	}, []string{"format"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, marReports, visitsReported, snapshotLoad, exports, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		marReports:      marReports,
		visitsReported:  visitsReported,
		snapshotLoad:    snapshotLoad,
		exports:         exports,
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

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// RecordMarReport counts a computed report and the visits it covered.
func (m *MetricsService) RecordMarReport(gateOpen bool, visits int) {
	if m == nil {
		return
	}
	gate := "closed"
	if gateOpen {
		gate = "open"
	}
	m.marReports.WithLabelValues(gate).Inc()
	m.visitsReported.Add(float64(visits))
}

// ObserveSnapshotLoad records how long a source read took.
func (m *MetricsService) ObserveSnapshotLoad(source string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.snapshotLoad.WithLabelValues(source, outcome).Observe(duration.Seconds())
}

// RecordExport counts a rendered export.
func (m *MetricsService) RecordExport(format string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(format).Inc()
}
