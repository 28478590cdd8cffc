package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collide_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "collide_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	propagationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "collide_propagation_duration_seconds",
		Help:    "Wall time to propagate a full catalog over the run grid.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	})

	objectsPropagated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "collide_objects_propagated_total",
		Help: "Catalog objects successfully propagated.",
	})

	warningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collide_propagation_warnings_total",
			Help: "Non-fatal propagation warnings by kind.",
		},
		[]string{"kind"},
	)

	catalogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "collide_catalog_objects",
		Help: "Objects in the currently served catalog.",
	})

	catalogAge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "collide_catalog_age_seconds",
		Help: "Age of the element data behind the served catalog.",
	})

	screensTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "collide_screens_total",
		Help: "Candidate screening runs.",
	})

	eventsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "collide_collision_events_total",
		Help: "Close-approach events reported across all screens.",
	})

	screenDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "collide_screen_duration_seconds",
		Help:    "Wall time of synthesis, detection and report assembly.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
	})

	consistencyFaults = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "collide_consistency_faults_total",
		Help: "Events whose catalog sample could not be joined back.",
	})
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		propagationDuration,
		objectsPropagated,
		warningsTotal,
		catalogSize,
		catalogAge,
		screensTotal,
		eventsTotal,
		screenDuration,
		consistencyFaults,
	)
}

// RecordPropagation records one catalog propagation.
func RecordPropagation(d time.Duration, objects int) {
	propagationDuration.Observe(d.Seconds())
	objectsPropagated.Add(float64(objects))
}

// AddWarnings counts n warnings of the given kind.
func AddWarnings(kind string, n int) {
	if n > 0 {
		warningsTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// SetCatalogSize publishes the served catalog's object count.
func SetCatalogSize(n int) { catalogSize.Set(float64(n)) }

// SetCatalogAge publishes the served catalog's data age.
func SetCatalogAge(seconds float64) { catalogAge.Set(seconds) }

// RecordScreen records one screening run.
func RecordScreen(d time.Duration, events, faults int) {
	screensTotal.Inc()
	screenDuration.Observe(d.Seconds())
	eventsTotal.Add(float64(events))
	consistencyFaults.Add(float64(faults))
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// knownRoutes are exact paths that keep their own label.
var knownRoutes = map[string]bool{
	"/healthz":                true,
	"/readyz":                 true,
	"/metrics":                true,
	"/api/v1/catalog":         true,
	"/api/v1/catalog/refresh": true,
	"/api/v1/screen":          true,
}

// normalizeRoute bounds label cardinality: catalog object lookups collapse to
// one label and anything unknown becomes "other".
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if rest, ok := strings.CutPrefix(path, "/api/v1/catalog/objects/"); ok && rest != "" && !strings.Contains(rest, "/") {
		return "/api/v1/catalog/objects/{id}"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		path := normalizeRoute(r.URL.Path)
		httpRequestsTotal.WithLabelValues(path, r.Method, strconv.Itoa(rw.statusCode)).Inc()
		httpDurationSeconds.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
	})
}
