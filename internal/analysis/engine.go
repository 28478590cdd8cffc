// Package analysis runs the propagate-then-screen batch: catalog element sets
// become series on one shared grid, and candidates are screened against them.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/metrics"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/propagation"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/proximity"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/report"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/timegrid"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/tle"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/trajectory"
)

// ErrNotPropagated is returned when screening is requested before any
// catalog was propagated.
var ErrNotPropagated = errors.New("catalog has not been propagated")

// Options are the run-wide constants of an engine.
type Options struct {
	Steps       int
	Step        time.Duration
	ThresholdKm float64
	Propagation propagation.Config
}

// Engine holds no mutable state; screens with different candidates and
// thresholds may run concurrently against the same Catalog.
type Engine struct {
	opts   Options
	prop   *propagation.Propagator
	logger *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(opts Options, logger *slog.Logger) *Engine {
	return &Engine{
		opts:   opts,
		prop:   propagation.NewPropagator(opts.Propagation, logger),
		logger: logger,
	}
}

// Options returns the engine's run-wide constants.
func (e *Engine) Options() Options { return e.opts }

// NewGrid builds the run grid starting at now. Every series of a run must
// come from the one grid this returns.
func (e *Engine) NewGrid(now time.Time) (*timegrid.Grid, error) {
	return timegrid.New(now, e.opts.Step, e.opts.Steps)
}

// Catalog is the propagated catalog for one grid. It is read-only once built.
type Catalog struct {
	Grid         *timegrid.Grid
	Series       []trajectory.Series
	Warnings     []propagation.Warning
	Ignored      int
	PropagatedAt time.Time

	byID map[string]int
}

// Empty reports whether no object propagated. Whether that is an error is the
// caller's decision.
func (c *Catalog) Empty() bool { return len(c.Series) == 0 }

// Lookup returns the series of one object.
func (c *Catalog) Lookup(id string) (trajectory.Series, bool) {
	i, ok := c.byID[id]
	if !ok {
		return trajectory.Series{}, false
	}
	return c.Series[i], true
}

// Propagate builds the catalog for grid. Per-object and per-sample failures
// are returned as warnings; the only error is ctx's.
func (e *Engine) Propagate(ctx context.Context, records []tle.Record, grid *timegrid.Grid) (*Catalog, error) {
	batch, err := e.prop.PropagateCatalog(ctx, records, grid)
	if err != nil {
		return nil, fmt.Errorf("propagating catalog: %w", err)
	}

	c := &Catalog{
		Grid:         grid,
		Series:       batch.Series,
		Warnings:     batch.Warnings,
		Ignored:      batch.Ignored,
		PropagatedAt: time.Now().UTC(),
		byID:         make(map[string]int, len(batch.Series)),
	}
	for i, s := range c.Series {
		c.byID[s.ID()] = i
	}
	if c.Empty() {
		e.logger.Warn("no catalog objects propagated", "records", len(records), "warnings", len(c.Warnings))
	}
	return c, nil
}

// Result is the outcome of screening one candidate.
type Result struct {
	Grid        *timegrid.Grid
	ThresholdKm float64
	Candidate   trajectory.Series
	Report      *report.Report
	Warnings    []propagation.Warning
}

// Safe reports whether no close approach was found.
func (r *Result) Safe() bool { return r.Report.Safe() }

// Screen synthesises candidate on the catalog's grid and reports every close
// approach under thresholdKm. When an event cannot be joined back to the
// catalog the full result is returned together with a *report.ConsistencyError.
func (e *Engine) Screen(catalog *Catalog, candidate trajectory.Candidate, thresholdKm float64) (*Result, error) {
	if catalog == nil || catalog.Grid == nil {
		return nil, ErrNotPropagated
	}
	start := time.Now()

	cs, err := trajectory.Synthesize(candidate, catalog.Grid)
	if err != nil {
		return nil, fmt.Errorf("synthesizing candidate: %w", err)
	}
	events, err := proximity.Detect(cs, catalog.Series, thresholdKm)
	if err != nil {
		return nil, fmt.Errorf("detecting close approaches: %w", err)
	}

	rep, buildErr := report.Build(events, catalog.Series)
	res := &Result{
		Grid:        catalog.Grid,
		ThresholdKm: thresholdKm,
		Candidate:   cs,
		Report:      rep,
		Warnings:    catalog.Warnings,
	}

	faults := 0
	var ce *report.ConsistencyError
	if errors.As(buildErr, &ce) {
		faults = len(ce.Unmatched)
		e.logger.Error("close-approach events without catalog samples", "candidate", candidate.Name, "unmatched", faults, "error", buildErr)
	}
	metrics.RecordScreen(time.Since(start), len(events), faults)

	e.logger.Info("candidate screened",
		"candidate", candidate.Name,
		"variant", candidate.Variant,
		"threshold_km", thresholdKm,
		"objects", len(catalog.Series),
		"events", len(events),
	)
	return res, buildErr
}

// Run is the whole batch as one cancellable unit: build the grid at now,
// propagate records, screen candidate at the configured threshold.
func (e *Engine) Run(ctx context.Context, records []tle.Record, candidate trajectory.Candidate, now time.Time) (*Result, error) {
	grid, err := e.NewGrid(now)
	if err != nil {
		return nil, err
	}
	catalog, err := e.Propagate(ctx, records, grid)
	if err != nil {
		return nil, err
	}
	return e.Screen(catalog, candidate, e.opts.ThresholdKm)
}
