package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pyreportal/kiosk-agent/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides
// lightweight snapshots for the maintenance screen.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	scanTotal       *prometheus.CounterVec
	scanDuration    prometheus.Observer
	commitTotal     *prometheus.CounterVec
	modalCloses     *prometheus.CounterVec
	pendingScans    prometheus.Gauge
	activeSessions  prometheus.Gauge

	requestCount         uint64
	requestDurationTotal uint64
	scanCount            uint64
	scanFailureCount     uint64
	commitCount          uint64
	commitFailureCount   uint64
	sessionCount         int64
	pendingCount         int64
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

	scanTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_scans_total",
		Help: "Total tag scan attempts by outcome",
	}, []string{"outcome"})

	scanDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "kiosk_scan_duration_seconds",
		Help:    "Time from scan start to tag acquisition",
		Buckets: []float64{0.5, 1, 2, 3, 5, 8, 10, 12},
	})

	commitTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_commits_total",
		Help: "Total tag assignment commits by outcome",
	}, []string{"outcome"})

	modalCloses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_modal_closes_total",
		Help: "Scan overlay dismissals by cause",
	}, []string{"cause"})

	pendingScans := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kiosk_pending_scans",
		Help: "Attendance scans waiting in the offline queue",
	})

	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kiosk_active_sessions",
		Help: "Live workflow sessions",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, scanTotal, scanDuration, commitTotal, modalCloses, pendingScans, activeSessions, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		scanTotal:       scanTotal,
		scanDuration:    scanDuration,
		commitTotal:     commitTotal,
		modalCloses:     modalCloses,
		pendingScans:    pendingScans,
		activeSessions:  activeSessions,
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

// ObserveHTTPRequest records request metrics and aggregates simple stats.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveScan records one scan attempt and how long acquisition took.
func (m *MetricsService) ObserveScan(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.scanTotal.WithLabelValues(outcome).Inc()
	m.scanDuration.Observe(duration.Seconds())
	atomic.AddUint64(&m.scanCount, 1)
	if outcome != "OK" {
		atomic.AddUint64(&m.scanFailureCount, 1)
	}
}

// ObserveCommit records one assignment commit attempt.
func (m *MetricsService) ObserveCommit(outcome string) {
	if m == nil {
		return
	}
	m.commitTotal.WithLabelValues(outcome).Inc()
	atomic.AddUint64(&m.commitCount, 1)
	if outcome != "OK" {
		atomic.AddUint64(&m.commitFailureCount, 1)
	}
}

// ObserveModalClose records the tagged dismissal cause of the scan overlay.
func (m *MetricsService) ObserveModalClose(cause models.ModalCloseCause) {
	if m == nil {
		return
	}
	m.modalCloses.WithLabelValues(string(cause)).Inc()
}

// SetPendingScans updates the offline backlog gauge.
func (m *MetricsService) SetPendingScans(count int64) {
	if m == nil {
		return
	}
	m.pendingScans.Set(float64(count))
	atomic.StoreInt64(&m.pendingCount, count)
}

// SessionOpened and SessionClosed track the live session gauge.
func (m *MetricsService) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
	atomic.AddInt64(&m.sessionCount, 1)
}

func (m *MetricsService) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
	atomic.AddInt64(&m.sessionCount, -1)
}

// Snapshot returns aggregated metrics for the maintenance endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		ScansTotal:               atomic.LoadUint64(&m.scanCount),
		ScanFailures:             atomic.LoadUint64(&m.scanFailureCount),
		CommitsTotal:             atomic.LoadUint64(&m.commitCount),
		CommitFailures:           atomic.LoadUint64(&m.commitFailureCount),
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		ActiveSessions:           int(atomic.LoadInt64(&m.sessionCount)),
		PendingScans:             atomic.LoadInt64(&m.pendingCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
