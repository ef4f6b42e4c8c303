package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lexandro/docshelf-mcp/catalog"
	"github.com/lexandro/docshelf-mcp/library"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the shelf and HTTP collectors.
type Metrics struct {
	ScansTotal     prometheus.Counter
	ScanDuration   prometheus.Histogram
	Documents      *prometheus.GaugeVec
	EntriesSkipped prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ScansTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "docshelf_scans_total",
			Help: "Number of completed scans.",
		}),
		ScanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "docshelf_scan_duration_seconds",
			Help:    "Duration of scans in seconds.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		Documents: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "docshelf_documents",
			Help: "Documents on the shelf after the latest scan, by category.",
		}, []string{"category"}),
		EntriesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "docshelf_entries_skipped_total",
			Help: "Directory entries whose metadata could not be read.",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docshelf_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docshelf_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Observe updates the shelf metrics from library events. Register it with
// library.Subscribe.
func (m *Metrics) Observe(event library.Event) {
	snap := event.Snapshot
	if snap == nil {
		return
	}
	if event.Kind == library.EventRefreshed {
		m.ScansTotal.Inc()
		m.ScanDuration.Observe(snap.Stats.Duration.Seconds())
		m.EntriesSkipped.Add(float64(snap.Stats.EntriesSkipped))
	}

	counts := make(map[string]int)
	for _, c := range catalog.Categories() {
		counts[string(c)] = 0
	}
	for _, doc := range snap.Documents {
		counts[string(doc.Category)]++
	}
	for category, count := range counts {
		if category == "" {
			category = "OTHER"
		}
		m.Documents.WithLabelValues(category).Set(float64(count))
	}
}

// Middleware records request counts and durations per chi route pattern,
// so document ids never become label values.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := newResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
