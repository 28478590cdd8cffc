// Package trajectory holds position-over-time series and the synthesizer that
// builds the candidate object's series.
package trajectory

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/timegrid"
)

// Sample is one object's position at one grid instant.
// Position is in kilometres in the run's output frame.
type Sample struct {
	Index    int // position of Time in the run grid
	Time     time.Time
	Position r3.Vec
}

// Series is an object's samples on a shared grid, in grid order.
// A Series is read-only once built; it may have fewer samples than the grid
// when individual instants failed to propagate.
type Series struct {
	id      string
	grid    *timegrid.Grid
	samples []Sample
	byIndex []int // grid index -> sample index, -1 when absent
}

// NewSeries builds a series from samples drawn from grid. Samples may arrive
// in any order; they are stored in grid order. Samples off the grid, with an
// Index that disagrees with their Time, or repeating an instant are rejected.
func NewSeries(id string, grid *timegrid.Grid, samples []Sample) (Series, error) {
	if grid == nil {
		return Series{}, fmt.Errorf("series %q: nil grid", id)
	}

	byIndex := make([]int, grid.Len())
	for i := range byIndex {
		byIndex[i] = -1
	}
	// Bucket by index so callers can hand samples over in completion order.
	bucket := make([]*Sample, grid.Len())
	for i := range samples {
		s := &samples[i]
		idx, ok := grid.Index(s.Time)
		if !ok {
			return Series{}, fmt.Errorf("series %q: sample at %s is not on grid %s", id, s.Time.Format(time.RFC3339), grid)
		}
		if idx != s.Index {
			return Series{}, fmt.Errorf("series %q: sample index %d does not match grid index %d", id, s.Index, idx)
		}
		if bucket[idx] != nil {
			return Series{}, fmt.Errorf("series %q: duplicate sample at grid index %d", id, idx)
		}
		bucket[idx] = s
	}

	ordered := make([]Sample, 0, len(samples))
	for _, s := range bucket {
		if s == nil {
			continue
		}
		byIndex[s.Index] = len(ordered)
		ordered = append(ordered, Sample{Index: s.Index, Time: s.Time.UTC(), Position: s.Position})
	}

	return Series{id: id, grid: grid, samples: ordered, byIndex: byIndex}, nil
}

// ID returns the object identifier.
func (s Series) ID() string { return s.id }

// Grid returns the grid the series was sampled on.
func (s Series) Grid() *timegrid.Grid { return s.grid }

// Len returns the number of samples present.
func (s Series) Len() int { return len(s.samples) }

// Complete reports whether every grid instant has a sample.
func (s Series) Complete() bool { return s.grid != nil && len(s.samples) == s.grid.Len() }

// Samples returns the samples in grid order. The slice must not be modified.
func (s Series) Samples() []Sample { return s.samples }

// At returns the sample at grid index i, if present.
func (s Series) At(i int) (Sample, bool) {
	if i < 0 || i >= len(s.byIndex) {
		return Sample{}, false
	}
	j := s.byIndex[i]
	if j < 0 {
		return Sample{}, false
	}
	return s.samples[j], true
}

// AtTime returns the sample at instant t, if present.
func (s Series) AtTime(t time.Time) (Sample, bool) {
	if s.grid == nil {
		return Sample{}, false
	}
	i, ok := s.grid.Index(t)
	if !ok {
		return Sample{}, false
	}
	return s.At(i)
}
