package metrics

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},
		{"/api/v1/catalog", "/api/v1/catalog"},
		{"/api/v1/catalog/refresh", "/api/v1/catalog/refresh"},
		{"/api/v1/screen", "/api/v1/screen"},

		{"/api/v1/catalog/objects/ISS%20(ZARYA)", "/api/v1/catalog/objects/{id}"},
		{"/api/v1/catalog/objects/25544", "/api/v1/catalog/objects/{id}"},

		{"/api/v1/catalog/objects/", "other"},
		{"/api/v1/catalog/objects/a/b", "other"},
		{"/wp-admin", "other"},
		{"/.env", "other"},
		{"/api/v2/screen", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeRoute(tt.path))
		})
	}
}

// TestMetricsCardinality verifies that 100 distinct object ids share one label.
func TestMetricsCardinality(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[normalizeRoute("/api/v1/catalog/objects/"+strconv.Itoa(40000+i))] = true
	}
	assert.Len(t, seen, 1)
}

func TestMiddlewareCountsStatus(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/v1/screen", http.MethodPost, "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/screen", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/v1/screen", http.MethodPost, "418"))

	assert.Equal(t, before+1, after)
}

func TestRecordScreen(t *testing.T) {
	screens := testutil.ToFloat64(screensTotal)
	events := testutil.ToFloat64(eventsTotal)

	RecordScreen(time.Millisecond, 3, 0)

	assert.Equal(t, screens+1, testutil.ToFloat64(screensTotal))
	assert.Equal(t, events+3, testutil.ToFloat64(eventsTotal))
}

func TestAddWarningsIgnoresZero(t *testing.T) {
	AddWarnings("parse_failure", 0)
	before := testutil.ToFloat64(warningsTotal.WithLabelValues("parse_failure"))
	AddWarnings("parse_failure", 2)
	assert.Equal(t, before+2, testutil.ToFloat64(warningsTotal.WithLabelValues("parse_failure")))
}
