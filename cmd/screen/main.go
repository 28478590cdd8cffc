// Command screen runs one screening batch: load element data, propagate the
// catalog over the run grid, and test the configured candidate against it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/analysis"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/api"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/config"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/report"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/tle"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("screen", pflag.ContinueOnError)
	fs.String("config", "", "config file (yaml, json or toml)")
	fs.Bool("json", false, "print the full report as JSON")
	fs.Duration("timeout", 2*time.Minute, "deadline for the whole batch")
	fs.String("start", "", "grid start, RFC 3339 (default now)")

	// Names match config keys so viper picks them up.
	fs.String("tle.file", "", "read element sets from this file instead of the cache/network")
	fs.Float64("collision_threshold_km", 5, "close-approach threshold, km")
	fs.Int("propagation_steps", 144, "number of grid instants")
	fs.Int("step_minutes", 10, "grid step, minutes")
	fs.Int("max_catalog_size", 20, "catalog objects accepted")
	fs.String("frame", "teme", "output frame: teme or ecef")
	fs.String("candidate.name", "NEW_SAT", "candidate identifier")
	fs.String("candidate.variant", "orbit", "candidate variant: orbit or fixed")
	fs.Float64("candidate.radius_km", 7050, "orbit variant radius, km")
	fs.Float64("candidate.z_amplitude_km", 500, "orbit variant out-of-plane amplitude, km")
	fs.Float64("candidate.x_km", 0, "fixed variant x, km")
	fs.Float64("candidate.y_km", 0, "fixed variant y, km")
	fs.Float64("candidate.z_km", 0, "fixed variant z, km")
	fs.String("log_level", "info", "debug, info, warn or error (logs go to stderr)")
	return fs
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet()
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	configFile, _ := fs.GetString("config")
	asJSON, _ := fs.GetBool("json")
	timeout, _ := fs.GetDuration("timeout")
	start := time.Now()
	if v, _ := fs.GetString("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			fmt.Fprintln(stderr, "ERROR: --start:", err)
			return 2
		}
		start = t
	}

	cfg, err := config.Load(configFile, fs)
	if err != nil {
		fmt.Fprintln(stderr, "ERROR:", err)
		return 2
	}
	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ds, err := tle.NewLoader(cfg.Loader(), logger).Load(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "ERROR loading element data:", err)
		return 1
	}

	engine := analysis.NewEngine(cfg.Analysis(), logger)
	res, err := engine.Run(ctx, ds.Records, cfg.CandidateSpec(), start)
	var ce *report.ConsistencyError
	if err != nil && !errors.As(err, &ce) {
		fmt.Fprintln(stderr, "ERROR:", err)
		return 1
	}

	if asJSON {
		if werr := api.WriteResult(stdout, res, err); werr != nil {
			fmt.Fprintln(stderr, "ERROR writing report:", werr)
			return 1
		}
	} else {
		summarize(stdout, ds, res)
	}
	if ce != nil {
		fmt.Fprintln(stderr, "ERROR:", ce)
		return 3
	}
	return 0
}
