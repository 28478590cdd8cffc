package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

func serve(cfg Config, method, path, header string) int {
	h := Middleware(cfg, testLogger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(method, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestMiddleware(t *testing.T) {
	enabled := Config{Enabled: true, Token: "secret"}
	tests := []struct {
		name   string
		cfg    Config
		method string
		path   string
		header string
		want   int
	}{
		{"disabled passes refresh", Config{}, http.MethodPost, "/api/v1/catalog/refresh", "", http.StatusNoContent},
		{"refresh without token", enabled, http.MethodPost, "/api/v1/catalog/refresh", "", http.StatusUnauthorized},
		{"refresh wrong token", enabled, http.MethodPost, "/api/v1/catalog/refresh", "Bearer nope", http.StatusUnauthorized},
		{"refresh wrong scheme", enabled, http.MethodPost, "/api/v1/catalog/refresh", "Basic secret", http.StatusUnauthorized},
		{"refresh trailing slash", enabled, http.MethodPost, "/api/v1/catalog/refresh/", "", http.StatusUnauthorized},
		{"refresh valid token", enabled, http.MethodPost, "/api/v1/catalog/refresh", "Bearer secret", http.StatusNoContent},
		{"catalog is public", enabled, http.MethodGet, "/api/v1/catalog", "", http.StatusNoContent},
		{"screen is public", enabled, http.MethodPost, "/api/v1/screen", "", http.StatusNoContent},
		{"probes are public", enabled, http.MethodGet, "/readyz", "", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(tt.cfg, tt.method, tt.path, tt.header))
		})
	}
}
