// Package metrics exposes Prometheus collectors for the ingestion pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	apiRequestsTotal          *prometheus.CounterVec
	apiRequestDurationSeconds prometheus.Histogram
	apiPaceWaitSeconds        prometheus.Histogram
	apiTruncatedCatalogsTotal prometheus.Counter
	listingPagesTotal         *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		apiRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brewharvest_api_requests_total",
				Help: "Total beer API requests issued, labeled by status class.",
			},
			[]string{"status_class"},
		)

		apiRequestDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "brewharvest_api_request_duration_seconds",
				Help:    "Histogram of beer API request latencies.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
		)

		apiPaceWaitSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "brewharvest_api_pace_wait_seconds",
				Help:    "Histogram of time spent waiting out the provider's minimum request interval.",
				Buckets: []float64{0.01, 0.1, 0.25, 0.5, 1, 2},
			},
		)

		apiTruncatedCatalogsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "brewharvest_api_truncated_catalogs_total",
				Help: "Catalogs whose totalCount exceeded the page size; only the first page is fetched.",
			},
		)

		listingPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brewharvest_listing_pages_total",
				Help: "Listing pages scraped, labeled by kind (index or region) and result.",
			},
			[]string{"kind", "result"},
		)
	})
}

// StatusClass buckets an HTTP status code into "2xx".."5xx", or "none" for
// requests that never completed.
func StatusClass(code int) string {
	if code < 100 || code > 599 {
		return "none"
	}
	return strconv.Itoa(code/100) + "xx"
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveAPIRequest records one beer API request outcome.
func ObserveAPIRequest(statusCode int, duration time.Duration) {
	apiRequestsTotal.WithLabelValues(StatusClass(statusCode)).Inc()
	apiRequestDurationSeconds.Observe(duration.Seconds())
}

// ObservePaceWait records the duration of one inter-request wait.
func ObservePaceWait(duration time.Duration) {
	apiPaceWaitSeconds.Observe(duration.Seconds())
}

// ObserveTruncatedCatalog counts a brewer whose catalog did not fit the page.
func ObserveTruncatedCatalog() {
	apiTruncatedCatalogsTotal.Inc()
}

// ObserveListingPage records one listing-page scrape outcome.
func ObserveListingPage(kind, result string) {
	listingPagesTotal.WithLabelValues(kind, result).Inc()
}
