package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request phases used as the "phase" label.
const (
	PhaseIndex   = "index"
	PhaseListing = "listing"
	PhaseDetail  = "detail"
	PhaseImage   = "image"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry            *prometheus.Registry
	RequestsTotal       *prometheus.CounterVec
	RequestDuration     prometheus.Histogram
	BooksExtractedTotal prometheus.Counter
	DegradedFieldsTotal *prometheus.CounterVec
	ErrorsTotal         *prometheus.CounterVec
	ImagesWrittenTotal  prometheus.Counter
	ImageOverwrites     prometheus.Counter
	CategoriesExported  prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookscraper_requests_total",
			Help: "Total HTTP requests issued, by crawl phase.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bookscraper_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	books := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookscraper_books_extracted_total",
			Help: "Total number of detail pages turned into records.",
		},
	)
	degraded := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookscraper_degraded_fields_total",
			Help: "Fields replaced by the placeholder, by field name.",
		},
		[]string{"field"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookscraper_fetch_errors_total",
			Help: "Total number of failed fetches by type.",
		},
		[]string{"error_type"},
	)
	images := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookscraper_images_written_total",
			Help: "Total number of cover images written to disk.",
		},
	)
	overwrites := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookscraper_image_overwrites_total",
			Help: "Cover images that replaced a file written for another book.",
		},
	)
	categories := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookscraper_categories_exported_total",
			Help: "Total number of categories exported.",
		},
	)

	registry.MustRegister(requests, requestDuration, books, degraded, errorsTotal, images, overwrites, categories)

	return &Metrics{
		Registry:            registry,
		RequestsTotal:       requests,
		RequestDuration:     requestDuration,
		BooksExtractedTotal: books,
		DegradedFieldsTotal: degraded,
		ErrorsTotal:         errorsTotal,
		ImagesWrittenTotal:  images,
		ImageOverwrites:     overwrites,
		CategoriesExported:  categories,
	}
}

// IncRequest increments the requests counter for a phase.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncBooks increments the extracted books counter.
func (m *Metrics) IncBooks() {
	if m == nil {
		return
	}
	m.BooksExtractedTotal.Inc()
}

// IncDegraded increments the placeholder counter for a field.
func (m *Metrics) IncDegraded(field string) {
	if m == nil {
		return
	}
	m.DegradedFieldsTotal.WithLabelValues(field).Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncImages increments the images counter.
func (m *Metrics) IncImages() {
	if m == nil {
		return
	}
	m.ImagesWrittenTotal.Inc()
}

// IncOverwrites increments the image overwrite counter.
func (m *Metrics) IncOverwrites() {
	if m == nil {
		return
	}
	m.ImageOverwrites.Inc()
}

// IncCategories increments the exported categories counter.
func (m *Metrics) IncCategories() {
	if m == nil {
		return
	}
	m.CategoriesExported.Inc()
}
