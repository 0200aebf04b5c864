package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "school_portal"

// Result search outcomes.
const (
	SearchOutcomeFound        = "found"
	SearchOutcomeNotPublished = "not_published"
	SearchOutcomeNotFound     = "not_found"
	SearchOutcomeInvalid      = "invalid"
)

// MetricsService owns the Prometheus registry exposed on /metrics.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheLookups    *prometheus.CounterVec
	resultSearches  *prometheus.CounterVec
	importRows      *prometheus.CounterVec
	mediaBytes      *prometheus.CounterVec
	mailJobs        *prometheus.CounterVec
}

// NewMetricsService registers the service collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "cache_read_seconds",
		Help:      "Latency of cache lookups",
		Buckets:   prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "cache_write_seconds",
		Help:      "Latency of cache writes",
		Buckets:   prometheus.DefBuckets,
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "cache_lookups_total",
		Help:      "Cache lookups by result",
	}, []string{"result"})

	resultSearches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "result_searches_total",
		Help:      "Public result searches by outcome",
	}, []string{"outcome"})

	importRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "result_import_rows_total",
		Help:      "Imported result rows by status",
	}, []string{"status"})

	mediaBytes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "media_upload_bytes_total",
		Help:      "Bytes written to media storage by kind",
	}, []string{"kind"})

	mailJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "mail_jobs_total",
		Help:      "Notification emails by status",
	}, []string{"status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "goroutines",
		Help:      "Number of running goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheLookups,
		resultSearches, importRows, mediaBytes, mailJobs, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheLookups:    cacheLookups,
		resultSearches:  resultSearches,
		importRows:      importRows,
		mediaBytes:      mediaBytes,
		mailJobs:        mailJobs,
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

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a lookup and its latency.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordResultSearch counts a public search by outcome.
func (m *MetricsService) RecordResultSearch(outcome string) {
	if m == nil {
		return
	}
	m.resultSearches.WithLabelValues(outcome).Inc()
}

// RecordImportRows counts imported and failed rows of a bulk import.
func (m *MetricsService) RecordImportRows(imported, failed int) {
	if m == nil {
		return
	}
	m.importRows.WithLabelValues("imported").Add(float64(imported))
	m.importRows.WithLabelValues("failed").Add(float64(failed))
}

func (m *MetricsService) RecordMediaUpload(kind string, bytes int) {
	if m == nil {
		return
	}
	m.mediaBytes.WithLabelValues(kind).Add(float64(bytes))
}

func (m *MetricsService) RecordMailJob(status string) {
	if m == nil {
		return
	}
	m.mailJobs.WithLabelValues(status).Inc()
}
