package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/punch-attendance/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation. A nil *MetricsService is a valid no-op.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	batches         *prometheus.CounterVec
	rows            *prometheus.CounterVec
	summaries       prometheus.Counter
	batchDuration   prometheus.Histogram
	reportJobs      *prometheus.CounterVec
	reportEmails    *prometheus.CounterVec
}

// NewMetricsService registers the collectors on a private registry.
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

	batches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_batches_total",
		Help: "Punch batches processed, by result",
	}, []string{"result"})

	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_rows_total",
		Help: "Punch rows seen, by outcome",
	}, []string{"outcome"})

	summaries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "attendance_summaries_total",
		Help: "Person-day summaries produced",
	})

	batchDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "attendance_batch_duration_seconds",
		Help:    "Time spent normalising, classifying and aggregating one batch",
		Buckets: prometheus.DefBuckets,
	})

	reportJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_jobs_total",
		Help: "Report jobs reaching a lifecycle state",
	}, []string{"status"})

	reportEmails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_emails_total",
		Help: "Report email deliveries, by result",
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, batches, rows, summaries, batchDuration, reportJobs, reportEmails, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		batches:         batches,
		rows:            rows,
		summaries:       summaries,
		batchDuration:   batchDuration,
		reportJobs:      reportJobs,
		reportEmails:    reportEmails,
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

// ObserveBatch records the outcome of one attendance batch. result is nil for failed batches.
func (m *MetricsService) ObserveBatch(result *models.BatchResult, duration time.Duration) {
	if m == nil {
		return
	}
	m.batchDuration.Observe(duration.Seconds())
	if result == nil {
		m.batches.WithLabelValues("failed").Inc()
		return
	}
	outcome := "ok"
	if len(result.Summaries) == 0 {
		outcome = "empty"
	}
	m.batches.WithLabelValues(outcome).Inc()
	m.rows.WithLabelValues("accepted").Add(float64(result.ValidRows))
	m.rows.WithLabelValues("skipped").Add(float64(result.SkippedRows))
	m.summaries.Add(float64(len(result.Summaries)))
}

// ObserveReportJob counts a job reaching the given status.
func (m *MetricsService) ObserveReportJob(status models.ReportStatus) {
	if m == nil {
		return
	}
	m.reportJobs.WithLabelValues(string(status)).Inc()
}

// ObserveEmail counts a report delivery attempt outcome.
func (m *MetricsService) ObserveEmail(status models.EmailStatus) {
	if m == nil {
		return
	}
	m.reportEmails.WithLabelValues(string(status)).Inc()
}
