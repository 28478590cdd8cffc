package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/analysis"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/metrics"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/tle"
)

// ErrRefreshInProgress is returned when a refresh is requested while another
// one is still running.
var ErrRefreshInProgress = errors.New("catalog refresh already in progress")

// Source supplies element data. *tle.Loader implements it.
type Source interface {
	Load(ctx context.Context) (*tle.Dataset, error)
}

// Snapshot is one propagated catalog and the data it came from. Snapshots
// are never modified; a refresh swaps in a new one.
type Snapshot struct {
	Catalog *analysis.Catalog
	Dataset *tle.Dataset
}

// State owns the catalog served over HTTP.
type State struct {
	engine *analysis.Engine
	source Source
	logger *slog.Logger
	now    func() time.Time

	current    atomic.Pointer[Snapshot]
	refreshing sync.Mutex
}

// NewState creates a State with no catalog; Refresh must succeed before the
// service is ready.
func NewState(engine *analysis.Engine, source Source, logger *slog.Logger) *State {
	return &State{engine: engine, source: source, logger: logger, now: time.Now}
}

// Engine returns the analysis engine.
func (s *State) Engine() *analysis.Engine { return s.engine }

// Current returns the served snapshot, or nil before the first refresh.
func (s *State) Current() *Snapshot { return s.current.Load() }

// Ready reports whether a catalog is being served.
func (s *State) Ready() (bool, string) {
	if s.Current() == nil {
		return false, "no catalog propagated"
	}
	return true, ""
}

// Refresh loads element data, propagates it on a fresh grid and swaps the
// result in. Readers keep the previous snapshot until the swap. A failed
// refresh leaves the previous snapshot in place.
func (s *State) Refresh(ctx context.Context) (*Snapshot, error) {
	if !s.refreshing.TryLock() {
		return nil, ErrRefreshInProgress
	}
	defer s.refreshing.Unlock()

	ds, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading element data: %w", err)
	}
	grid, err := s.engine.NewGrid(s.now())
	if err != nil {
		return nil, err
	}
	catalog, err := s.engine.Propagate(ctx, ds.Records, grid)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Catalog: catalog, Dataset: ds}
	s.current.Store(snap)
	metrics.SetCatalogSize(len(catalog.Series))
	s.updateAge()

	s.logger.Info("catalog refreshed",
		"source", ds.Source,
		"records", len(ds.Records),
		"objects", len(catalog.Series),
		"warnings", len(catalog.Warnings),
		"grid", grid.String(),
	)
	return snap, nil
}

func (s *State) updateAge() {
	if snap := s.Current(); snap != nil {
		metrics.SetCatalogAge(s.now().Sub(snap.Dataset.FetchedAt).Seconds())
	}
}

// Run refreshes every interval and keeps the age gauge current until ctx is
// done. Failures are logged; the previous catalog stays in service.
func (s *State) Run(ctx context.Context, interval time.Duration) {
	refresh := time.NewTicker(interval)
	defer refresh.Stop()
	age := time.NewTicker(10 * time.Second)
	defer age.Stop()

	for {
		select {
		case <-refresh.C:
			if _, err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("scheduled catalog refresh failed", "error", err)
			}
		case <-age.C:
			s.updateAge()
		case <-ctx.Done():
			return
		}
	}
}
