// Package metrics exposes Prometheus collectors for the HTTP layer and note activity.
package metrics

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application collectors and the registry they live in
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	notesCreatedTotal  *prometheus.CounterVec
	notesDeletedTotal  prometheus.Counter
	ratingsSavedTotal  *prometheus.CounterVec
	downloadsTotal     prometheus.Counter
	catalogCacheLookup *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on a fresh registry
func NewMetrics() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.initMetrics()
	if err := m.registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notehub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)
	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notehub_http_request_duration_seconds",
			Help:    "Time taken for HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	m.notesCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notehub_notes_created_total",
			Help: "Notes created, by file kind",
		},
		[]string{"kind"}, // pdf, image, text
	)
	m.notesDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notehub_notes_deleted_total",
		Help: "Notes deleted",
	})
	m.ratingsSavedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notehub_ratings_saved_total",
			Help: "Ratings saved, by action",
		},
		[]string{"action"}, // created, updated
	)
	m.downloadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notehub_downloads_total",
		Help: "Note file downloads",
	})
	m.catalogCacheLookup = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notehub_catalog_cache_lookups_total",
			Help: "Catalog cache lookups, by result",
		},
		[]string{"result"}, // hit, miss
	)
}

// Describe implements prometheus.Collector
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.httpRequestsTotal.Describe(ch)
	m.httpRequestDuration.Describe(ch)
	m.notesCreatedTotal.Describe(ch)
	m.notesDeletedTotal.Describe(ch)
	m.ratingsSavedTotal.Describe(ch)
	m.downloadsTotal.Describe(ch)
	m.catalogCacheLookup.Describe(ch)
}

// Collect implements prometheus.Collector
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.httpRequestsTotal.Collect(ch)
	m.httpRequestDuration.Collect(ch)
	m.notesCreatedTotal.Collect(ch)
	m.notesDeletedTotal.Collect(ch)
	m.ratingsSavedTotal.Collect(ch)
	m.downloadsTotal.Collect(ch)
	m.catalogCacheLookup.Collect(ch)
}

// RecordHTTPRequest records one served request. path is the route template, not the raw URL.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordNoteCreated counts a created note of the given kind
func (m *Metrics) RecordNoteCreated(kind string) {
	m.notesCreatedTotal.WithLabelValues(kind).Inc()
}

// RecordNoteDeleted counts a deleted note
func (m *Metrics) RecordNoteDeleted() {
	m.notesDeletedTotal.Inc()
}

// RecordRatingSaved counts a saved rating; action is created or updated
func (m *Metrics) RecordRatingSaved(action string) {
	m.ratingsSavedTotal.WithLabelValues(action).Inc()
}

// RecordDownload counts a file download
func (m *Metrics) RecordDownload() {
	m.downloadsTotal.Inc()
}

// RecordCatalogCache counts a catalog cache hit or miss
func (m *Metrics) RecordCatalogCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.catalogCacheLookup.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}
