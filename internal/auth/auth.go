// Package auth guards the endpoints that change service state.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// Config holds authentication configuration.
type Config struct {
	Enabled bool
	Token   string
}

// protectedPaths require a bearer token when auth is enabled. Reads and
// screening stay public.
var protectedPaths = map[string]bool{
	"/api/v1/catalog/refresh": true,
}

// IsProtected reports whether path requires a token.
func IsProtected(path string) bool {
	return protectedPaths[strings.TrimSuffix(path, "/")]
}

// Middleware returns an HTTP middleware that enforces Bearer token auth on
// protected paths when auth is enabled.
func Middleware(cfg Config, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || !IsProtected(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(cfg.Token)) != 1 {
				logger.Warn("rejected unauthenticated request", "method", r.Method, "path", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
