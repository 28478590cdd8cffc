package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/analysis"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/api"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/config"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/tle"
)

func main() {
	fs := pflag.NewFlagSet("conjunctiond", pflag.ExitOnError)
	configFile := fs.String("config", "", "config file (yaml, json or toml)")
	fs.String("http.addr", ":8080", "listen address")
	fs.String("log_level", "info", "debug, info, warn or error")
	fs.Parse(os.Args[1:])

	cfg, err := config.Load(*configFile, fs)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
	logger.Info("configuration loaded", "config", cfg)

	engine := analysis.NewEngine(cfg.Analysis(), logger)
	loader := tle.NewLoader(cfg.Loader(), logger)
	state := api.NewState(engine, loader, logger)

	srv := api.NewServer(api.Options{
		Addr:        cfg.HTTP.Addr,
		Auth:        cfg.AuthMiddleware(),
		Candidate:   cfg.CandidateSpec(),
		Limits:      cfg.Limits,
		Frame:       cfg.Frame,
		ScreenRate:  cfg.HTTP.ScreenRate,
		ScreenBurst: cfg.HTTP.ScreenBurst,
		TrustProxy:  cfg.HTTP.TrustProxy,
	}, state, logger)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The first catalog is built in the background; /readyz reports 503 until then.
	go func() {
		if _, err := state.Refresh(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("initial catalog load failed, retrying on schedule", "error", err, "interval", cfg.HTTP.RefreshInterval.String())
		}
		state.Run(ctx, cfg.HTTP.RefreshInterval)
	}()

	go func() {
		logger.Info("starting server", "addr", cfg.HTTP.Addr, "auth_enabled", cfg.Auth.Enabled, "tle_fetch_enabled", cfg.TLE.EnableFetch)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
