package propagation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/metrics"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/timegrid"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/tle"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/trajectory"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/transform"
)

// Propagator turns element sets into series on a caller-supplied grid.
// It holds no per-run state and is safe for concurrent use.
type Propagator struct {
	pool   *WorkerPool
	config Config
	logger *slog.Logger
}

// NewPropagator creates a propagator.
func NewPropagator(config Config, logger *slog.Logger) *Propagator {
	if config.Frame == "" {
		config.Frame = transform.FrameTEME
	}
	pool := NewWorkerPool(config.Workers, logger)
	config.Workers = pool.Workers()
	return &Propagator{pool: pool, config: config, logger: logger}
}

// Config returns the effective configuration.
func (p *Propagator) Config() Config { return p.config }

// Propagate computes one object's series. A record whose elements cannot be
// initialised returns an error wrapping ErrInvalidElements and no series.
// Instants SGP4 cannot resolve are left out of the series and reported as
// warnings.
func (p *Propagator) Propagate(ctx context.Context, rec tle.Record, grid *timegrid.Grid) (trajectory.Series, []Warning, error) {
	model, err := NewSGP4Model(rec)
	if err != nil {
		return trajectory.Series{}, nil, err
	}
	return p.propagateModel(ctx, rec.ID(), model, grid)
}

// propagateModel samples model at every grid instant. Instants are independent
// of each other; only ctx cancellation aborts the object.
func (p *Propagator) propagateModel(ctx context.Context, id string, model Model, grid *timegrid.Grid) (trajectory.Series, []Warning, error) {
	samples := make([]trajectory.Sample, 0, grid.Len())
	var warnings []Warning

	for i := 0; i < grid.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return trajectory.Series{}, nil, err
		}
		t := grid.At(i)
		teme, err := model.Position(t)
		if err != nil {
			warnings = append(warnings, Warning{Kind: KindPropagationFailure, ObjectID: id, Time: t, Err: err})
			continue
		}
		samples = append(samples, trajectory.Sample{
			Index:    i,
			Time:     t,
			Position: transform.FromTEME(p.config.Frame, teme, t),
		})
	}

	series, err := trajectory.NewSeries(id, grid, samples)
	if err != nil {
		return trajectory.Series{}, nil, fmt.Errorf("building series: %w", err)
	}
	return series, warnings, nil
}

// catalogEntry is an accepted object awaiting propagation.
type catalogEntry struct {
	id    string
	model Model
}

// entryResult is the output of a single object propagation.
type entryResult struct {
	series   trajectory.Series
	warnings []Warning
	err      error
}

// PropagateCatalog propagates records in input order, accepting at most
// MaxCatalog objects whose elements initialise. Parse failures and duplicate
// identifiers are skipped with a warning and do not count toward the cap.
// The returned series keep input order whatever order the workers finish in.
// The only error is ctx's.
func (p *Propagator) PropagateCatalog(ctx context.Context, records []tle.Record, grid *timegrid.Grid) (Batch, error) {
	start := time.Now()
	entries, batch := p.accept(records)
	return p.run(ctx, entries, batch, grid, start)
}

// accept selects the catalog from records, collecting object-level warnings.
func (p *Propagator) accept(records []tle.Record) ([]catalogEntry, Batch) {
	var (
		batch   Batch
		entries []catalogEntry
		seen    = make(map[string]bool, len(records))
	)
	for _, rec := range records {
		if p.config.MaxCatalog > 0 && len(entries) >= p.config.MaxCatalog {
			batch.Ignored++
			continue
		}
		id := rec.ID()
		if seen[id] {
			batch.Warnings = append(batch.Warnings, p.warn(Warning{
				Kind:     KindDuplicate,
				ObjectID: id,
				Err:      errors.New("identifier already in catalog"),
			}))
			continue
		}
		model, err := NewSGP4Model(rec)
		if err != nil {
			batch.Warnings = append(batch.Warnings, p.warn(Warning{Kind: KindParseFailure, ObjectID: id, Err: err}))
			continue
		}
		seen[id] = true
		entries = append(entries, catalogEntry{id: id, model: model})
	}
	if batch.Ignored > 0 {
		p.logger.Info("catalog cap reached", "max_catalog_size", p.config.MaxCatalog, "ignored", batch.Ignored)
	}
	return entries, batch
}

func (p *Propagator) run(ctx context.Context, entries []catalogEntry, batch Batch, grid *timegrid.Grid, start time.Time) (Batch, error) {
	results := make([]entryResult, len(entries))
	err := p.pool.Run(ctx, len(entries), func(ctx context.Context, i int) {
		s, w, err := p.propagateModel(ctx, entries[i].id, entries[i].model, grid)
		results[i] = entryResult{series: s, warnings: w, err: err}
	})
	if err != nil {
		return Batch{}, err
	}

	sampleFailures := 0
	for _, r := range results {
		if r.err != nil {
			// Only cancellation reaches here, and that returned above.
			return Batch{}, r.err
		}
		batch.Series = append(batch.Series, r.series)
		for _, w := range r.warnings {
			batch.Warnings = append(batch.Warnings, p.warn(w))
		}
		sampleFailures += len(r.warnings)
	}

	duration := time.Since(start)
	metrics.RecordPropagation(duration, len(batch.Series))
	metrics.AddWarnings(string(KindPropagationFailure), sampleFailures)

	p.logger.Info("catalog propagated",
		"objects", len(batch.Series),
		"warnings", len(batch.Warnings),
		"steps", grid.Len(),
		"frame", p.config.Frame,
		"workers", p.config.Workers,
		"duration_ms", duration.Milliseconds(),
	)
	return batch, nil
}

// warn logs w, counts object-level kinds, and returns it.
func (p *Propagator) warn(w Warning) Warning {
	attrs := []any{"kind", w.Kind, "object_id", w.ObjectID, "error", w.Err}
	if !w.Time.IsZero() {
		attrs = append(attrs, "time", w.Time.Format(time.RFC3339))
	}
	p.logger.Warn("propagation warning", attrs...)
	if w.Kind != KindPropagationFailure {
		metrics.AddWarnings(string(w.Kind), 1)
	}
	return w
}
