package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "lfd"

// Upload outcomes used as the "result" label.
const (
	resultOK                 = "ok"
	resultInvalidContentType = "invalid_content_type"
	resultLengthRequired     = "length_required"
	resultTooLarge           = "too_large"
	resultIncompleteBody     = "incomplete_body"
	resultStorageUnavailable = "storage_unavailable"
)

// Metrics holds the Prometheus collectors for one server. All methods are
// safe on a nil receiver so handlers can be tested without metrics.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	uploads         *prometheus.CounterVec
	storedFiles     prometheus.Counter
	storedBytes     prometheus.Counter
	skippedParts    *prometheus.CounterVec
	downloads       *prometheus.CounterVec
	sideEffectFails *prometheus.CounterVec
	uptime          prometheus.GaugeFunc
}

// NewMetrics registers the server's collectors, plus Go runtime and
// process collectors, on a fresh registry.
func NewMetrics() (*Metrics, error) {
	started := time.Now()
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "upload_requests_total",
			Help:      "Upload requests by result.",
		}, []string{"result"}),
		storedFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "stored_files_total",
			Help:      "Files written to the storage directory.",
		}),
		storedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "stored_bytes_total",
			Help:      "Payload bytes written to the storage directory.",
		}),
		skippedParts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "skipped_parts_total",
			Help:      "Multipart parts that were not stored, by reason.",
		}, []string{"reason"}),
		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "downloads_total",
			Help:      "Download requests by result.",
		}, []string{"result"}),
		sideEffectFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "side_effect_failures_total",
			Help:      "Failed mirror or audit writes after a file was stored.",
		}, []string{"target"}),
	}
	m.uptime = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "uptime_seconds",
		Help:      "Seconds since the server started.",
	}, func() float64 { return time.Since(started).Seconds() })

	cs := []prometheus.Collector{
		m.requests, m.requestDuration, m.uploads, m.storedFiles, m.storedBytes,
		m.skippedParts, m.downloads, m.sideEffectFails, m.uptime,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range cs {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return m, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest counts one HTTP request.
func (m *Metrics) RecordRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// RecordUpload counts one upload request by result.
func (m *Metrics) RecordUpload(result string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(result).Inc()
}

// RecordStored counts one file written to disk.
func (m *Metrics) RecordStored(size int) {
	if m == nil {
		return
	}
	m.storedFiles.Inc()
	m.storedBytes.Add(float64(size))
}

// RecordSkipped counts a part that was not stored.
func (m *Metrics) RecordSkipped(reason string) {
	if m == nil {
		return
	}
	m.skippedParts.WithLabelValues(reason).Inc()
}

// RecordDownload counts one download request by result.
func (m *Metrics) RecordDownload(result string) {
	if m == nil {
		return
	}
	m.downloads.WithLabelValues(result).Inc()
}

// RecordSideEffectFailure counts a failed mirror or audit write.
func (m *Metrics) RecordSideEffectFailure(target string) {
	if m == nil {
		return
	}
	m.sideEffectFails.WithLabelValues(target).Inc()
}
