package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/auth"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/config"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/health"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/metrics"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/trajectory"
)

// Options configures the HTTP layer.
type Options struct {
	Addr        string
	Auth        auth.Config
	Candidate   trajectory.Candidate // defaults for screen requests
	Limits      config.Limits
	Frame       string
	ScreenRate  float64 // screens per second per client
	ScreenBurst int
	TrustProxy  bool
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	state      *State
	opts       Options
	limiter    *screenLimiter
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(opts Options, state *State, logger *slog.Logger) *Server {
	s := &Server{
		state:   state,
		opts:    opts,
		limiter: newScreenLimiter(opts.ScreenRate, opts.ScreenBurst),
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(state.Ready))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/v1/catalog/objects/{id}", s.handleObject)
	mux.HandleFunc("POST /api/v1/catalog/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/v1/screen", s.handleScreen)

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(opts.Auth, logger)(handler)
	handler = loggingMiddleware(logger, opts.TrustProxy)(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}
			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_ip", clientIP(r, trustProxy),
			)
		})
	}
}
